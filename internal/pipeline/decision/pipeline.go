// Package decision answers "what should be ordered, from which warehouse and
// by which transport": forecast demand, price every shipping option for the
// buffered quantity, pick the cheapest.
package decision

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/autopo-py/restockd/internal/config"
	"github.com/andresuchdata/autopo-py/restockd/internal/domain"
	"github.com/andresuchdata/autopo-py/restockd/internal/metrics"
)

const pipelineName = "decision"

// Pipeline chains the three stages. Any stage failure ends the request.
type Pipeline struct {
	forecaster *Forecaster
	candidates *CandidateGenerator
}

func NewPipeline(store Artifacts, cfg config.ForecastConfig) *Pipeline {
	return &Pipeline{
		forecaster: NewForecaster(store, cfg),
		candidates: NewCandidateGenerator(store),
	}
}

// Run produces the order decision for one item.
func (p *Pipeline) Run(ctx context.Context, sku, storeID string) (domain.Decision, error) {
	start := time.Now()
	forecast, qty, err := p.forecaster.Forecast(ctx, sku, storeID)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("forecast: %w", err)
	}
	metrics.ObserveStage(pipelineName, "forecast", start)

	start = time.Now()
	candidates, err := p.candidates.Generate(ctx, sku, storeID, qty)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("cost candidates: %w", err)
	}
	metrics.ObserveStage(pipelineName, "cost_candidates", start)

	decision, err := Decide(candidates, forecast)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("select: %w", err)
	}

	log.Debug().
		Str("sku", sku).
		Str("store_id", storeID).
		Str("warehouse", decision.RecommendedWarehouse).
		Str("transport", decision.Transport).
		Float64("total_cost", decision.TotalCost).
		Msg("Decision selected")
	return decision, nil
}
