// Package features turns raw daily records into the numeric matrices the
// sequence models were trained on. Categorical columns use drop-first
// indicator encoding over a vocabulary fixed when the artifacts were fitted:
// the indicator for level L of column C is named "C_L", the first (sorted)
// level has no indicator, and unseen values encode as all zeros.
package features

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/andresuchdata/autopo-py/restockd/internal/domain"
	"github.com/andresuchdata/autopo-py/restockd/internal/frame"
)

// Unknown is the level used for a categorical column missing from a record.
const Unknown = "Unknown"

type indicator struct {
	source string
	level  string
}

// Schema is the ordered list of model input columns plus the knowledge of
// which of them are indicator columns.
type Schema struct {
	Columns     []string
	Categorical []string

	indicators map[string]indicator
}

// NewSchema builds a schema over columns. When vocabulary lists the levels of
// a categorical column, its indicators are levels[1:]. Otherwise they are
// recovered from the column names carrying the "<col>_" prefix.
func NewSchema(columns, categorical []string, vocabulary map[string][]string) *Schema {
	s := &Schema{
		Columns:     append([]string(nil), columns...),
		Categorical: append([]string(nil), categorical...),
		indicators:  make(map[string]indicator),
	}

	// longer names first so "Weather Condition" wins over "Weather"
	byLength := append([]string(nil), categorical...)
	sort.SliceStable(byLength, func(i, j int) bool { return len(byLength[i]) > len(byLength[j]) })

	for _, col := range byLength {
		if levels, ok := vocabulary[col]; ok {
			for _, level := range DropFirst(levels) {
				s.indicators[col+"_"+level] = indicator{source: col, level: level}
			}
			continue
		}
		prefix := col + "_"
		for _, name := range columns {
			if _, taken := s.indicators[name]; taken {
				continue
			}
			if strings.HasPrefix(name, prefix) {
				s.indicators[name] = indicator{source: col, level: strings.TrimPrefix(name, prefix)}
			}
		}
	}
	return s
}

// Width is the number of encoded features per time step.
func (s *Schema) Width() int { return len(s.Columns) }

// Indicator reports whether col is an indicator column and which source
// column and level it tests.
func (s *Schema) Indicator(col string) (source, level string, ok bool) {
	ind, ok := s.indicators[col]
	return ind.source, ind.level, ok
}

// Levels returns the sorted distinct values, the order a fitted vocabulary
// is stored in. Blank values are missing and never become a level.
func Levels(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0)
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// DropFirst returns the levels that get an indicator column.
func DropFirst(levels []string) []string {
	if len(levels) <= 1 {
		return nil
	}
	return levels[1:]
}

// FrameMatrix encodes rows of a table. Non-numeric cells become 0. An input
// column that is neither in the table nor an indicator of a categorical
// column present in the table is a feature mismatch.
func (s *Schema) FrameMatrix(f *frame.Frame) ([][]float64, error) {
	for _, col := range s.Columns {
		if f.Has(col) {
			continue
		}
		if source, _, ok := s.Indicator(col); ok && f.Has(source) {
			continue
		}
		return nil, fmt.Errorf("%w: expected feature %q not found after encoding", domain.ErrFeatureMismatch, col)
	}

	out := make([][]float64, f.Len())
	for row := range out {
		vec := make([]float64, len(s.Columns))
		for j, col := range s.Columns {
			if source, level, ok := s.Indicator(col); ok && !f.Has(col) {
				if v, _ := f.Value(row, source); v == level {
					vec[j] = 1
				}
				continue
			}
			v := f.Float(row, col)
			if math.IsNaN(v) {
				v = 0
			}
			vec[j] = v
		}
		out[row] = vec
	}
	return out, nil
}

// RecordMatrix encodes client-supplied day records. A record missing a
// categorical column takes the Unknown level, a missing input column reads
// as 0, and a value that cannot be read as a number is an invalid request.
func (s *Schema) RecordMatrix(records []domain.DayRecord) ([][]float64, error) {
	out := make([][]float64, len(records))
	for i, rec := range records {
		vec := make([]float64, len(s.Columns))
		for j, col := range s.Columns {
			if source, level, ok := s.Indicator(col); ok {
				if _, present := rec[col]; !present {
					if categoryOf(rec, source) == level {
						vec[j] = 1
					}
					continue
				}
			}
			raw, present := rec[col]
			if !present || raw == nil {
				continue
			}
			v, err := Number(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: day %d column %q: %v", domain.ErrInvalidRequest, i, col, err)
			}
			vec[j] = v
		}
		out[i] = vec
	}
	return out, nil
}

func categoryOf(rec domain.DayRecord, col string) string {
	raw, ok := rec[col]
	if !ok || raw == nil {
		return Unknown
	}
	switch v := raw.(type) {
	case string:
		return v
	case float64:
		return frameNumber(v)
	case bool:
		if v {
			return "True"
		}
		return "False"
	}
	return fmt.Sprint(raw)
}

// Number reads a JSON scalar as a float.
func Number(raw interface{}) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		f := frame.ParseFloat(v)
		if math.IsNaN(f) {
			return 0, fmt.Errorf("%q is not numeric", v)
		}
		return f, nil
	}
	return 0, fmt.Errorf("unsupported value %v", raw)
}

func frameNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprint(v)
}
