package service

import (
	"context"
	"fmt"
	"math"

	"github.com/andresuchdata/autopo-py/restockd/internal/domain"
	"github.com/andresuchdata/autopo-py/restockd/internal/frame"
)

const (
	defaultInventoryStore    = "S001"
	defaultInventoryQuantity = 100
)

// InventoryService lists the latest shipment row per sku.
type InventoryService struct {
	shipmentsPath string
}

func NewInventoryService(shipmentsPath string) *InventoryService {
	return &InventoryService{shipmentsPath: shipmentsPath}
}

// List reads the shipments table on every call so a synced file is picked up
// without a restart.
func (s *InventoryService) List(ctx context.Context) ([]domain.InventoryItem, error) {
	table, err := frame.ReadCSV(s.shipmentsPath)
	if err != nil {
		return nil, err
	}
	if !table.Has("sku") {
		return nil, fmt.Errorf("shipments table has no sku column")
	}

	latest := table.DropDuplicates("sku")
	items := make([]domain.InventoryItem, 0, latest.Len())
	for i := 0; i < latest.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sku, _ := latest.Value(i, "sku")
		item := domain.InventoryItem{
			SKU:           sku,
			StoreID:       defaultInventoryStore,
			QuantityUnits: defaultInventoryQuantity,
		}
		if v, ok := latest.Value(i, "store_id"); ok {
			item.StoreID = v
		}
		if latest.Has("quantity_units") {
			q := latest.Float(i, "quantity_units")
			if math.IsNaN(q) || q != math.Trunc(q) {
				raw, _ := latest.Value(i, "quantity_units")
				return nil, fmt.Errorf("sku %s: quantity_units %q is not an integer", sku, raw)
			}
			item.QuantityUnits = int(q)
		}
		items = append(items, item)
	}
	return items, nil
}
