// Package scalers fits the restock model's feature and target scalers from
// the training table and writes them next to the feature manifest. No model
// is trained here.
package scalers

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/autopo-py/restockd/internal/features"
	"github.com/andresuchdata/autopo-py/restockd/internal/frame"
	"github.com/andresuchdata/autopo-py/restockd/internal/model"
)

// Options names the training table columns.
type Options struct {
	ProductCol    string
	DateCol       string
	Numerical     []string
	Categorical   []string
	CategoryIDCol string
	Target        string
}

// DefaultOptions matches the columns the restock model was trained on.
func DefaultOptions() Options {
	return Options{
		ProductCol: "Product ID",
		DateCol:    "Date",
		Numerical: []string{
			"Lag_Sales_D-1", "Lag_Sales_D-2", "Lag_Sales_D-7", "Lag_Inventory_D-1", "Rolling_Mean_7D",
			"Price", "Discount", "Holiday/Promotion", "Competitor Pricing",
		},
		Categorical:   []string{"Region", "Weather Condition", "Seasonality"},
		CategoryIDCol: "Category_ID",
		Target:        "Target_Sales_D+7",
	}
}

// Result is the fitted artifact set.
type Result struct {
	ScalerX  *model.MinMaxScaler
	ScalerY  *model.MinMaxScaler
	Manifest features.Manifest
	Rows     int
}

// Fit builds the drop-first vocabulary of every categorical column, then fits
// a [0,1] min/max scaler over the numerical plus indicator columns and one
// over the target.
func Fit(table *frame.Frame, opts Options) (*Result, error) {
	for _, col := range append(append([]string{opts.Target}, opts.Numerical...), opts.Categorical...) {
		if !table.Has(col) {
			return nil, fmt.Errorf("training table has no column %q", col)
		}
	}
	if table.Len() == 0 {
		return nil, fmt.Errorf("training table is empty")
	}

	// 1. Order by product then date
	sorted := table.SortStableByDate(opts.DateCol).SortStableBy(opts.ProductCol)

	// 2. Fixed vocabulary and the indicator columns it yields
	vocabulary := make(map[string][]string, len(opts.Categorical))
	columns := append([]string(nil), opts.Numerical...)
	for _, col := range opts.Categorical {
		values := make([]string, sorted.Len())
		for i := range values {
			values[i], _ = sorted.Value(i, col)
		}
		levels := features.Levels(values)
		vocabulary[col] = levels
		for _, level := range features.DropFirst(levels) {
			columns = append(columns, col+"_"+level)
		}
	}

	manifest := features.Manifest{
		Numerical:     columns,
		Categorical:   append([]string(nil), opts.Categorical...),
		CategoryIDCol: opts.CategoryIDCol,
		Vocabulary:    vocabulary,
	}
	schema := manifest.Schema()

	// 3. Encode and fit; missing numeric cells stay NaN and are ignored
	x := make([][]float64, sorted.Len())
	y := make([][]float64, sorted.Len())
	for i := range x {
		row := make([]float64, len(columns))
		for j, col := range columns {
			if source, level, ok := schema.Indicator(col); ok {
				if v, _ := sorted.Value(i, source); v == level {
					row[j] = 1
				}
				continue
			}
			row[j] = sorted.Float(i, col)
		}
		x[i] = row
		y[i] = []float64{sorted.Float(i, opts.Target)}
	}

	scalerX, err := model.FitMinMax(x, 0, 1)
	if err != nil {
		return nil, fmt.Errorf("fit scaler_X: %w", err)
	}
	scalerY, err := model.FitMinMax(y, 0, 1)
	if err != nil {
		return nil, fmt.Errorf("fit scaler_y: %w", err)
	}

	log.Info().
		Int("rows", sorted.Len()).
		Int("features", len(columns)).
		Msg("Scalers fitted")
	return &Result{ScalerX: scalerX, ScalerY: scalerY, Manifest: manifest, Rows: sorted.Len()}, nil
}

// Write stores the three artifacts under dir with the given file names.
func (r *Result) Write(dir, scalerXFile, scalerYFile, manifestFile string) error {
	if err := r.ScalerX.Save(filepath.Join(dir, scalerXFile)); err != nil {
		return fmt.Errorf("write scaler_X: %w", err)
	}
	if err := r.ScalerY.Save(filepath.Join(dir, scalerYFile)); err != nil {
		return fmt.Errorf("write scaler_y: %w", err)
	}
	if err := features.WriteManifest(filepath.Join(dir, manifestFile), r.Manifest); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
