package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/autopo-py/restockd/internal/domain"
	"github.com/andresuchdata/autopo-py/restockd/internal/metrics"
)

// Recommender runs the batch restock engine.
type Recommender interface {
	Recommend(ctx context.Context, items []domain.RestockItem) ([]domain.RestockRecommendation, error)
}

type RestockService struct {
	engine Recommender
}

func NewRestockService(engine Recommender) *RestockService {
	return &RestockService{engine: engine}
}

func (s *RestockService) RecommendBatch(ctx context.Context, items []domain.RestockItem) ([]domain.RestockRecommendation, error) {
	metrics.RestockBatchSize.Observe(float64(len(items)))

	recs, err := s.engine.Recommend(ctx, items)
	if err != nil {
		metrics.RecordPipelineError("restock", err)
		return nil, err
	}

	restock := 0
	for _, r := range recs {
		if r.Recommendation == domain.RecommendationRestock {
			restock++
		}
	}
	log.Info().Int("items", len(items)).Int("restock", restock).Msg("Restock batch processed")
	return recs, nil
}
