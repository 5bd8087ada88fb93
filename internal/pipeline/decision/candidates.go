package decision

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/autopo-py/restockd/internal/domain"
	"github.com/andresuchdata/autopo-py/restockd/internal/frame"
)

// FeatureRenames maps reference table columns to the cost model's feature
// names.
var FeatureRenames = map[string]string{
	"distance_km":                  "lane_distance_km",
	"delay_rate":                   "lane_delay_rate",
	"avg_lead_time_days":           "lane_lead_time_days",
	"avg_procurement_cost_per_sku": "wh_procurement_cost",
	"service_score":                "wh_service_score",
	"base_cost_per_km":             "tr_base_cost_per_km",
	"reliability":                  "tr_reliability",
	"co2_kg_per_km":                "tr_co2_kg_per_km",
}

// CandidateGenerator prices every lane x warehouse x transport option for an
// order.
type CandidateGenerator struct {
	store Artifacts
}

func NewCandidateGenerator(store Artifacts) *CandidateGenerator {
	return &CandidateGenerator{store: store}
}

// Generate returns one priced candidate per joined row, in join order. Empty
// reference tables give an empty result, not an error.
func (g *CandidateGenerator) Generate(ctx context.Context, sku, storeID string, qty float64) ([]domain.Candidate, error) {
	costModel, err := g.store.CostModel()
	if err != nil {
		return nil, err
	}
	refs, err := g.store.References()
	if err != nil {
		return nil, err
	}

	// 1. Join lanes with warehouses, then with transports
	joined, err := frame.InnerJoin(refs.Lanes, refs.Warehouses, "warehouse_id")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnexpectedProcessing, err)
	}
	joined, err = frame.InnerJoin(joined, refs.Transports, "transport_id")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnexpectedProcessing, err)
	}
	if joined.Len() == 0 {
		return []domain.Candidate{}, nil
	}

	// 2. Stamp the query and move into the model's feature names
	rows := joined.
		WithColumn("sku", sku).
		WithColumn("store_id", storeID).
		WithColumn("qty", strconv.FormatFloat(qty, 'g', -1, 64)).
		Rename(FeatureRenames)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 3. One vectorised prediction over all rows
	unitCosts, err := costModel.Predict(rows)
	if err != nil {
		return nil, err
	}
	if len(unitCosts) != rows.Len() {
		return nil, fmt.Errorf("%w: cost model returned %d predictions for %d rows",
			domain.ErrUnexpectedProcessing, len(unitCosts), rows.Len())
	}

	// 4. Total cost per row
	candidates := make([]domain.Candidate, rows.Len())
	for i, unit := range unitCosts {
		c := domain.Candidate{
			Index:     i,
			SKU:       sku,
			StoreID:   storeID,
			Quantity:  qty,
			UnitCost:  unit,
			TotalCost: unit * qty,
		}
		c.LaneID, _ = rows.Value(i, "lane_id")
		c.WarehouseID, _ = rows.Value(i, "warehouse_id")
		c.TransportID, _ = rows.Value(i, "transport_id")
		c.Mode, _ = rows.Value(i, "mode")
		candidates[i] = c
	}

	log.Debug().
		Str("sku", sku).
		Str("store_id", storeID).
		Int("candidates", len(candidates)).
		Msg("Cost candidates generated")
	return candidates, nil
}
