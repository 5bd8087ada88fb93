// restockd/internal/domain/restock.go
package domain

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Recommendation is the restock verdict for one item.
type Recommendation string

const (
	RecommendationHold    Recommendation = "Hold"
	RecommendationRestock Recommendation = "Restock"
)

// DayRecord is one day of an item's history as sent by the client. Values are
// either JSON numbers, booleans or strings (the raw categorical columns).
type DayRecord map[string]interface{}

// CategoryID accepts both `3` and `"3"` on the wire.
type CategoryID int

func (c *CategoryID) UnmarshalJSON(data []byte) error {
	raw := string(bytes.Trim(bytes.TrimSpace(data), `"`))
	if raw == "" || raw == "null" {
		return fmt.Errorf("%w: categoryId is required", ErrInvalidRequest)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("%w: categoryId %q is not a number", ErrInvalidRequest, raw)
	}
	*c = CategoryID(int(v))
	return nil
}

// RestockItem is one entry of a batch restock request.
type RestockItem struct {
	ItemID         string      `json:"itemId" validate:"required"`
	CategoryID     CategoryID  `json:"categoryId"`
	HistoricalData []DayRecord `json:"historicalData" validate:"required"`
	CurrentStock   float64     `json:"currentStock"`
}

// RestockBatchRequest is the body of POST /api/recommend_batch.
type RestockBatchRequest struct {
	InventoryItems []RestockItem `json:"inventory_items" validate:"required,dive"`
}

// RestockRecommendation is the per-item answer of the batch restock engine.
type RestockRecommendation struct {
	ItemID                   string         `json:"itemId"`
	Recommendation           Recommendation `json:"recommendation"`
	SuggestedQuantity        int            `json:"suggested_quantity"`
	ReorderPoint             float64        `json:"reorder_point"`
	SafetyStock              float64        `json:"safety_stock"`
	PredictedDemandNext7Days float64        `json:"predicted_demand_next_7_days"`
}
