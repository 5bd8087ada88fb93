package restock

import (
	"math"

	"github.com/andresuchdata/autopo-py/restockd/internal/domain"
	"github.com/andresuchdata/autopo-py/restockd/internal/features"
)

const (
	minAdjustment = 0.5
	maxAdjustment = 1.5
)

// AdjustmentFactor compares the mean of the last recentDays values of the
// sales proxy column with the mean over the whole history and clamps the
// ratio to [0.5, 1.5]. It returns 1 when there is no history, when the
// overall mean is zero, or when any day lacks a numeric proxy value.
func AdjustmentFactor(history []domain.DayRecord, proxyCol string, recentDays int) float64 {
	if len(history) == 0 {
		return 1.0
	}

	sales := make([]float64, len(history))
	for i, day := range history {
		raw, ok := day[proxyCol]
		if !ok || raw == nil {
			return 1.0
		}
		v, err := features.Number(raw)
		if err != nil || math.IsNaN(v) {
			return 1.0
		}
		sales[i] = v
	}

	overall := mean(sales)
	if overall == 0 {
		return 1.0
	}

	recent := sales
	if recentDays > 0 && recentDays < len(sales) {
		recent = sales[len(sales)-recentDays:]
	}
	factor := mean(recent) / overall

	return math.Max(minAdjustment, math.Min(maxAdjustment, factor))
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
