// Package restock answers "should this item be restocked, and by how much"
// for a batch of items in one model call.
package restock

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/autopo-py/restockd/internal/artifact"
	"github.com/andresuchdata/autopo-py/restockd/internal/config"
	"github.com/andresuchdata/autopo-py/restockd/internal/domain"
	"github.com/andresuchdata/autopo-py/restockd/internal/metrics"
)

const pipelineName = "restock"

// Artifacts is the part of the artifact store the engine reads.
type Artifacts interface {
	Restock() (*artifact.Restock, error)
}

type categoryCounter interface {
	Categories() int
}

// Engine runs the batch restock recommendation.
type Engine struct {
	store Artifacts
	cfg   config.RestockConfig
	calc  *Calculator
}

func NewEngine(store Artifacts, cfg config.RestockConfig) *Engine {
	return &Engine{
		store: store,
		cfg:   cfg,
		calc:  NewCalculator(cfg.LeadTimeDays, cfg.SafetyDays),
	}
}

// Recommend returns one recommendation per item, in input order. Any invalid
// item fails the whole batch.
func (e *Engine) Recommend(ctx context.Context, items []domain.RestockItem) ([]domain.RestockRecommendation, error) {
	bundle, err := e.store.Restock()
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []domain.RestockRecommendation{}, nil
	}

	// 1. Preprocess every item before touching the model
	start := time.Now()
	sequences := make([][][]float64, len(items))
	categories := make([]int, len(items))
	for i, item := range items {
		seq, err := e.preprocess(bundle, item)
		if err != nil {
			return nil, err
		}
		sequences[i] = seq
		categories[i] = int(item.CategoryID)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	metrics.ObserveStage(pipelineName, "preprocess", start)

	// 2. One forward pass for the whole batch
	start = time.Now()
	scaled, err := bundle.Model.Predict(sequences, categories)
	if err != nil {
		return nil, fmt.Errorf("%w: restock model: %v", domain.ErrUnexpectedProcessing, err)
	}
	if len(scaled) != len(items) {
		return nil, fmt.Errorf("%w: restock model returned %d rows for %d items",
			domain.ErrUnexpectedProcessing, len(scaled), len(items))
	}
	metrics.ObserveStage(pipelineName, "predict", start)
	demand, err := bundle.ScalerY.InverseTransform(scaled)
	if err != nil {
		return nil, fmt.Errorf("%w: scaler_y: %v", domain.ErrUnexpectedProcessing, err)
	}

	// 3. Recency adjustment and reorder policy per item
	recs := make([]domain.RestockRecommendation, len(items))
	for i, item := range items {
		base := demand[i][0]
		factor := AdjustmentFactor(item.HistoricalData, e.cfg.SalesProxyCol, e.cfg.RecentDays)

		rec := e.calc.Calculate(base*factor, item.CurrentStock)
		rec.ItemID = item.ItemID
		recs[i] = rec
	}

	log.Debug().Int("items", len(items)).Msg("Restock batch scored")
	return recs, nil
}

func (e *Engine) preprocess(bundle *artifact.Restock, item domain.RestockItem) ([][]float64, error) {
	if len(item.HistoricalData) != e.cfg.LookBack {
		return nil, fmt.Errorf("%w for %s: got %d days, want %d",
			domain.ErrInvalidHistoryLength, item.ItemID, len(item.HistoricalData), e.cfg.LookBack)
	}

	id := int(item.CategoryID)
	if id < 0 {
		return nil, fmt.Errorf("%w: category id %d for %s", domain.ErrInvalidRequest, id, item.ItemID)
	}
	if cc, ok := bundle.Model.(categoryCounter); ok && id >= cc.Categories() {
		return nil, fmt.Errorf("%w: category id %d for %s outside [0, %d)",
			domain.ErrInvalidRequest, id, item.ItemID, cc.Categories())
	}

	matrix, err := bundle.Schema.RecordMatrix(item.HistoricalData)
	if err != nil {
		return nil, fmt.Errorf("item %s: %w", item.ItemID, err)
	}
	scaled, err := bundle.ScalerX.Transform(matrix)
	if err != nil {
		return nil, fmt.Errorf("%w: scaler_X: %v", domain.ErrUnexpectedProcessing, err)
	}
	return scaled, nil
}
