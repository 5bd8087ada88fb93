package decision

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/autopo-py/restockd/internal/artifact"
	"github.com/andresuchdata/autopo-py/restockd/internal/config"
	"github.com/andresuchdata/autopo-py/restockd/internal/domain"
	"github.com/andresuchdata/autopo-py/restockd/internal/frame"
	"github.com/andresuchdata/autopo-py/restockd/internal/model"
)

// Artifacts is the read-only view of the artifact store the decision
// pipeline needs.
type Artifacts interface {
	Forecaster() (*artifact.Forecaster, error)
	History() (*frame.Frame, error)
	CostModel() (artifact.CostModel, error)
	References() (*artifact.References, error)
}

// Forecaster produces a non-negative demand forecast and the buffered order
// quantity for one item.
type Forecaster struct {
	store Artifacts
	cfg   config.ForecastConfig
}

func NewForecaster(store Artifacts, cfg config.ForecastConfig) *Forecaster {
	return &Forecaster{store: store, cfg: cfg}
}

// Forecast runs the demand model over the item's history window.
func (f *Forecaster) Forecast(ctx context.Context, sku, storeID string) (forecast, orderQty float64, err error) {
	bundle, err := f.store.Forecaster()
	if err != nil {
		return 0, 0, err
	}
	history, err := f.store.History()
	if err != nil {
		return 0, 0, err
	}

	// 1. Most recent window of the item's history
	window, err := f.window(history, sku, storeID)
	if err != nil {
		return 0, 0, err
	}

	// 2. Encode with the fixed vocabulary, coerce to numbers, order columns
	seq, err := bundle.Schema.FrameMatrix(window)
	if err != nil {
		return 0, 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	// 3. Model output in normalised space
	raw, err := bundle.Model.Predict(seq)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: forecaster: %v", domain.ErrUnexpectedProcessing, err)
	}

	// 4. Denormalise, then softplus keeps the forecast non-negative
	y := bundle.Target.Denormalize(raw)
	forecast = model.Softplus(y)

	// 5. Fixed buffer policy
	orderQty = forecast * f.cfg.Buffer

	log.Debug().
		Str("sku", sku).
		Str("store_id", storeID).
		Float64("raw", raw).
		Float64("forecast", forecast).
		Msg("Demand forecast computed")
	return forecast, orderQty, nil
}

// window selects the rows the forecast is computed from. A table keyed by
// sku (and store, when that column exists) is narrowed to the item first;
// an unkeyed table is treated as one shared series. Rows are ordered by date
// and the most recent Window rows are kept.
func (f *Forecaster) window(history *frame.Frame, sku, storeID string) (*frame.Frame, error) {
	rows := history
	if f.cfg.SKUColumn != "" && history.Has(f.cfg.SKUColumn) {
		byStore := f.cfg.StoreColumn != "" && history.Has(f.cfg.StoreColumn)
		rows = history.Filter(func(row int) bool {
			if v, _ := history.Value(row, f.cfg.SKUColumn); v != sku {
				return false
			}
			if byStore {
				v, _ := history.Value(row, f.cfg.StoreColumn)
				return v == storeID
			}
			return true
		})
	}
	rows = rows.SortStableByDate(f.cfg.DateColumn)

	if rows.Len() < f.cfg.Window {
		return nil, fmt.Errorf("%w: %d history rows for sku %q store %q, need %d",
			domain.ErrInvalidHistoryLength, rows.Len(), sku, storeID, f.cfg.Window)
	}
	return rows.Tail(f.cfg.Window), nil
}
