package decision

import (
	"math"

	"github.com/andresuchdata/autopo-py/restockd/internal/domain"
)

// SelectCheapest returns the candidate with the lowest total cost. The first
// of several equal minima wins; NaN costs never win.
func SelectCheapest(candidates []domain.Candidate) (domain.Candidate, error) {
	best := -1
	for i, c := range candidates {
		if math.IsNaN(c.TotalCost) {
			continue
		}
		if best < 0 || c.TotalCost < candidates[best].TotalCost {
			best = i
		}
	}
	if best < 0 {
		return domain.Candidate{}, domain.ErrNoCandidates
	}
	return candidates[best], nil
}

// Decide packages the cheapest candidate into a decision.
func Decide(candidates []domain.Candidate, forecast float64) (domain.Decision, error) {
	best, err := SelectCheapest(candidates)
	if err != nil {
		return domain.Decision{}, err
	}
	return domain.Decision{
		SKU:                  best.SKU,
		Forecast:             forecast,
		OrderQuantity:        best.Quantity,
		RecommendedWarehouse: best.WarehouseID,
		Transport:            best.Mode,
		TotalCost:            best.TotalCost,
		UnitCost:             best.UnitCost,
	}, nil
}
