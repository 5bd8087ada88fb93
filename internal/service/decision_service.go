package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/autopo-py/restockd/internal/cache"
	"github.com/andresuchdata/autopo-py/restockd/internal/domain"
	"github.com/andresuchdata/autopo-py/restockd/internal/metrics"
)

// Decider runs the order-decision pipeline for one item.
type Decider interface {
	Run(ctx context.Context, sku, storeID string) (domain.Decision, error)
}

type DecisionService struct {
	pipeline Decider
	cache    cache.DecisionCache
}

func NewDecisionService(pipeline Decider, cacheImpl cache.DecisionCache) *DecisionService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopDecisionCache()
	}
	return &DecisionService{pipeline: pipeline, cache: cacheImpl}
}

// Decide serves a cached decision when one exists. Only successful decisions
// are cached.
func (s *DecisionService) Decide(ctx context.Context, sku, storeID string) (*domain.Decision, error) {
	if cached, ok, err := s.cache.Get(ctx, sku, storeID); err == nil && ok {
		metrics.RecordCacheResult("hit")
		return cached, nil
	} else if err != nil {
		metrics.RecordCacheResult("error")
		log.Warn().Err(err).Msg("decision: cache get failed")
	} else {
		metrics.RecordCacheResult("miss")
	}

	decision, err := s.pipeline.Run(ctx, sku, storeID)
	if err != nil {
		metrics.RecordPipelineError("decision", err)
		return nil, err
	}

	if err := s.cache.Set(ctx, sku, storeID, &decision); err != nil {
		log.Warn().Err(err).Msg("decision: cache set failed")
	}

	return &decision, nil
}
