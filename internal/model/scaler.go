package model

import (
	"fmt"
	"math"
	"os"

	"github.com/goccy/go-json"
)

// MinMaxScaler rescales each feature linearly into FeatureRange using the
// per-feature minimum and maximum observed when it was fitted.
type MinMaxScaler struct {
	FeatureRange [2]float64 `json:"feature_range"`
	DataMin      []float64  `json:"data_min"`
	DataMax      []float64  `json:"data_max"`

	scale []float64
	min   []float64
}

// FitMinMax fits a scaler over rows (samples x features).
func FitMinMax(rows [][]float64, lo, hi float64) (*MinMaxScaler, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("fit min/max: no samples")
	}
	n := len(rows[0])
	s := &MinMaxScaler{
		FeatureRange: [2]float64{lo, hi},
		DataMin:      make([]float64, n),
		DataMax:      make([]float64, n),
	}
	for j := 0; j < n; j++ {
		s.DataMin[j] = math.Inf(1)
		s.DataMax[j] = math.Inf(-1)
	}
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("fit min/max: row %d has %d features, want %d", i, len(row), n)
		}
		for j, v := range row {
			if math.IsNaN(v) {
				continue
			}
			s.DataMin[j] = math.Min(s.DataMin[j], v)
			s.DataMax[j] = math.Max(s.DataMax[j], v)
		}
	}
	for j := 0; j < n; j++ {
		if math.IsInf(s.DataMin[j], 1) {
			s.DataMin[j], s.DataMax[j] = 0, 0
		}
	}
	if err := s.prepare(); err != nil {
		return nil, err
	}
	return s, nil
}

// Prepare derives the per-feature scale and offset. Loaders call it once so
// that a shared scaler is never written to while serving.
func (s *MinMaxScaler) Prepare() error { return s.prepare() }

func (s *MinMaxScaler) prepare() error {
	if len(s.DataMin) != len(s.DataMax) {
		return fmt.Errorf("scaler: data_min has %d entries, data_max has %d", len(s.DataMin), len(s.DataMax))
	}
	lo, hi := s.FeatureRange[0], s.FeatureRange[1]
	if lo == 0 && hi == 0 {
		lo, hi = 0, 1
		s.FeatureRange = [2]float64{0, 1}
	}
	if lo >= hi {
		return fmt.Errorf("scaler: invalid feature range [%v, %v]", lo, hi)
	}
	s.scale = make([]float64, len(s.DataMin))
	s.min = make([]float64, len(s.DataMin))
	for j := range s.DataMin {
		span := s.DataMax[j] - s.DataMin[j]
		if span == 0 {
			// constant feature keeps a unit range
			span = 1
		}
		s.scale[j] = (hi - lo) / span
		s.min[j] = lo - s.DataMin[j]*s.scale[j]
	}
	return nil
}

// Features returns the number of features the scaler was fitted on.
func (s *MinMaxScaler) Features() int { return len(s.DataMin) }

// Transform returns a scaled copy of rows.
func (s *MinMaxScaler) Transform(rows [][]float64) ([][]float64, error) {
	return s.apply(rows, func(v float64, j int) float64 { return v*s.scale[j] + s.min[j] })
}

// InverseTransform maps scaled rows back to the original units.
func (s *MinMaxScaler) InverseTransform(rows [][]float64) ([][]float64, error) {
	return s.apply(rows, func(v float64, j int) float64 { return (v - s.min[j]) / s.scale[j] })
}

func (s *MinMaxScaler) apply(rows [][]float64, fn func(v float64, j int) float64) ([][]float64, error) {
	if s.scale == nil {
		if err := s.prepare(); err != nil {
			return nil, err
		}
	}
	out := make([][]float64, len(rows))
	for i, row := range rows {
		if len(row) != len(s.scale) {
			return nil, fmt.Errorf("scaler expects %d features, got %d", len(s.scale), len(row))
		}
		scaled := make([]float64, len(row))
		for j, v := range row {
			scaled[j] = fn(v, j)
		}
		out[i] = scaled
	}
	return out, nil
}

// TargetScaler undoes the mean/std normalisation applied to a regression target.
type TargetScaler struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// Denormalize maps a model output back to target units.
func (t TargetScaler) Denormalize(v float64) float64 {
	return v*t.Std + t.Mean
}

// LoadMinMaxScaler reads a fitted scaler and prepares it for use.
func LoadMinMaxScaler(path string) (*MinMaxScaler, error) {
	var s MinMaxScaler
	if err := readJSON(path, &s); err != nil {
		return nil, err
	}
	if s.Features() == 0 {
		return nil, fmt.Errorf("scaler %s: no features", path)
	}
	if err := s.Prepare(); err != nil {
		return nil, fmt.Errorf("scaler %s: %w", path, err)
	}
	return &s, nil
}

// Save writes the scaler as JSON.
func (s *MinMaxScaler) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadTargetScaler reads a mean/std target scaler.
func LoadTargetScaler(path string) (TargetScaler, error) {
	var t TargetScaler
	if err := readJSON(path, &t); err != nil {
		return TargetScaler{}, err
	}
	if t.Std == 0 {
		return TargetScaler{}, fmt.Errorf("target scaler %s: std is zero", path)
	}
	return t, nil
}
