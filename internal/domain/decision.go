// restockd/internal/domain/decision.go
package domain

// Decision is the answer of the order-decision pipeline for one item.
type Decision struct {
	SKU                  string  `json:"sku"`
	Forecast             float64 `json:"forecast"`
	OrderQuantity        float64 `json:"order_quantity"`
	RecommendedWarehouse string  `json:"recommended_warehouse"`
	Transport            string  `json:"transport"`
	TotalCost            float64 `json:"total_cost"`
	UnitCost             float64 `json:"unit_cost"`
}

// Candidate is one lane x warehouse x transport option priced by the cost model.
type Candidate struct {
	Index       int     `json:"index"`
	SKU         string  `json:"sku"`
	StoreID     string  `json:"store_id"`
	LaneID      string  `json:"lane_id,omitempty"`
	WarehouseID string  `json:"warehouse_id"`
	TransportID string  `json:"transport_id"`
	Mode        string  `json:"mode"`
	Quantity    float64 `json:"qty"`
	UnitCost    float64 `json:"predicted_unit_cost"`
	TotalCost   float64 `json:"total_cost"`
}

// InventoryItem is a row of the inventory listing served to the frontend.
type InventoryItem struct {
	SKU           string `json:"sku"`
	StoreID       string `json:"store_id"`
	QuantityUnits int    `json:"quantity_units"`
}
