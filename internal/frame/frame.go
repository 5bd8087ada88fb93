// Package frame holds the small tabular toolkit the pipelines need: CSV
// loading, inner joins on a key column, column renames and constant
// columns. Cells are kept as the strings they were read as; numeric
// access parses on demand.
//
// Every transforming method returns a new Frame. Frames handed out by the
// artifact store are therefore never mutated by request paths.
package frame

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are the date formats SortStableByDate understands.
var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Frame is an ordered set of named columns over string cells.
type Frame struct {
	Columns []string
	Rows    [][]string

	index map[string]int
}

// New builds a frame, copying neither argument. Rows shorter than the header
// are padded with empty cells.
func New(columns []string, rows [][]string) *Frame {
	f := &Frame{Columns: columns, Rows: rows}
	for i, r := range f.Rows {
		if len(r) < len(columns) {
			padded := make([]string, len(columns))
			copy(padded, r)
			f.Rows[i] = padded
		} else if len(r) > len(columns) {
			f.Rows[i] = r[:len(columns)]
		}
	}
	f.reindex()
	return f
}

func (f *Frame) reindex() {
	f.index = make(map[string]int, len(f.Columns))
	for i, c := range f.Columns {
		if _, dup := f.index[c]; !dup {
			f.index[c] = i
		}
	}
}

// ReadCSV loads a CSV file with a header row.
func ReadCSV(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	f, err := Read(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return f, nil
}

// Read parses CSV with a header row from r.
func Read(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty csv: missing header")
		}
		return nil, err
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	rows := make([][]string, 0)
	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		rows = append(rows, record)
	}
	return New(columns, rows), nil
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.Rows) }

// Index returns the position of col or -1.
func (f *Frame) Index(col string) int {
	if f.index == nil {
		f.reindex()
	}
	if i, ok := f.index[col]; ok {
		return i
	}
	return -1
}

// Has reports whether col exists.
func (f *Frame) Has(col string) bool { return f.Index(col) >= 0 }

// Value returns the raw cell at row/col.
func (f *Frame) Value(row int, col string) (string, bool) {
	idx := f.Index(col)
	if idx < 0 || row < 0 || row >= len(f.Rows) || idx >= len(f.Rows[row]) {
		return "", false
	}
	return f.Rows[row][idx], true
}

// Float returns the cell parsed as a float, NaN when absent or not numeric.
func (f *Frame) Float(row int, col string) float64 {
	v, ok := f.Value(row, col)
	if !ok {
		return math.NaN()
	}
	return ParseFloat(v)
}

// ParseFloat parses numeric cells the way the reference data writes them.
// Booleans map to 1/0; anything else unparsable is NaN.
func ParseFloat(v string) float64 {
	v = strings.TrimSpace(v)
	switch strings.ToLower(v) {
	case "":
		return math.NaN()
	case "true":
		return 1
	case "false":
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	cols := append([]string(nil), f.Columns...)
	rows := make([][]string, len(f.Rows))
	for i, r := range f.Rows {
		rows[i] = append([]string(nil), r...)
	}
	return New(cols, rows)
}

// Slice returns rows [from, to) as a new frame.
func (f *Frame) Slice(from, to int) *Frame {
	if from < 0 {
		from = 0
	}
	if to > len(f.Rows) {
		to = len(f.Rows)
	}
	if from > to {
		from = to
	}
	out := &Frame{Columns: append([]string(nil), f.Columns...)}
	out.Rows = make([][]string, 0, to-from)
	for _, r := range f.Rows[from:to] {
		out.Rows = append(out.Rows, append([]string(nil), r...))
	}
	out.reindex()
	return out
}

// Tail returns the last n rows.
func (f *Frame) Tail(n int) *Frame { return f.Slice(len(f.Rows)-n, len(f.Rows)) }

// Filter keeps the rows for which keep returns true.
func (f *Frame) Filter(keep func(row int) bool) *Frame {
	out := &Frame{Columns: append([]string(nil), f.Columns...)}
	for i, r := range f.Rows {
		if keep(i) {
			out.Rows = append(out.Rows, append([]string(nil), r...))
		}
	}
	out.reindex()
	return out
}

// SortStableBy orders rows by the string value of col, keeping ties in
// their original order. A missing column returns an unchanged copy.
func (f *Frame) SortStableBy(col string) *Frame {
	out := f.Clone()
	idx := out.Index(col)
	if idx < 0 {
		return out
	}
	sort.SliceStable(out.Rows, func(i, j int) bool {
		return out.Rows[i][idx] < out.Rows[j][idx]
	})
	return out
}

// SortStableByDate orders rows chronologically by col. When any non-empty
// cell fails to parse as a date the string order of SortStableBy is used.
// Empty cells sort first.
func (f *Frame) SortStableByDate(col string) *Frame {
	idx := f.Index(col)
	if idx < 0 {
		return f.Clone()
	}
	times := make([]time.Time, len(f.Rows))
	for i, r := range f.Rows {
		v := strings.TrimSpace(r[idx])
		if v == "" {
			continue
		}
		t, ok := ParseDate(v)
		if !ok {
			return f.SortStableBy(col)
		}
		times[i] = t
	}

	order := make([]int, len(f.Rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return times[order[i]].Before(times[order[j]])
	})

	out := &Frame{Columns: append([]string(nil), f.Columns...), Rows: make([][]string, len(order))}
	for i, src := range order {
		out.Rows[i] = append([]string(nil), f.Rows[src]...)
	}
	out.reindex()
	return out
}

// ParseDate parses s with the first matching layout.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Rename returns a copy with columns renamed according to mapping.
func (f *Frame) Rename(mapping map[string]string) *Frame {
	out := f.Clone()
	for i, c := range out.Columns {
		if to, ok := mapping[c]; ok {
			out.Columns[i] = to
		}
	}
	out.reindex()
	return out
}

// WithColumn returns a copy where col holds value on every row. An existing
// column is overwritten in place, a new one is appended.
func (f *Frame) WithColumn(col, value string) *Frame {
	out := f.Clone()
	idx := out.Index(col)
	if idx < 0 {
		out.Columns = append(out.Columns, col)
		for i := range out.Rows {
			out.Rows[i] = append(out.Rows[i], value)
		}
		out.reindex()
		return out
	}
	for i := range out.Rows {
		out.Rows[i][idx] = value
	}
	return out
}

// DropDuplicates keeps the last row for every distinct value of col, in the
// order those last occurrences appear.
func (f *Frame) DropDuplicates(col string) *Frame {
	idx := f.Index(col)
	if idx < 0 {
		return f.Clone()
	}
	last := make(map[string]int, len(f.Rows))
	for i, r := range f.Rows {
		last[r[idx]] = i
	}
	return f.Filter(func(row int) bool {
		return last[f.Rows[row][idx]] == row
	})
}

// InnerJoin joins left and right on key. Row order follows the left frame,
// then the right frame for multiple matches. Non-key columns present on both
// sides get "_x" / "_y" suffixes.
func InnerJoin(left, right *Frame, key string) (*Frame, error) {
	li, ri := left.Index(key), right.Index(key)
	if li < 0 {
		return nil, fmt.Errorf("join key %q missing on left side", key)
	}
	if ri < 0 {
		return nil, fmt.Errorf("join key %q missing on right side", key)
	}

	leftSet := make(map[string]struct{}, len(left.Columns))
	for _, c := range left.Columns {
		leftSet[c] = struct{}{}
	}
	rightSet := make(map[string]struct{}, len(right.Columns))
	for _, c := range right.Columns {
		rightSet[c] = struct{}{}
	}

	columns := make([]string, 0, len(left.Columns)+len(right.Columns)-1)
	for _, c := range left.Columns {
		if _, clash := rightSet[c]; clash && c != key {
			c += "_x"
		}
		columns = append(columns, c)
	}
	rightCols := make([]int, 0, len(right.Columns)-1)
	for i, c := range right.Columns {
		if i == ri {
			continue
		}
		if _, clash := leftSet[c]; clash {
			c += "_y"
		}
		columns = append(columns, c)
		rightCols = append(rightCols, i)
	}

	byKey := make(map[string][]int, len(right.Rows))
	for i, r := range right.Rows {
		byKey[r[ri]] = append(byKey[r[ri]], i)
	}

	rows := make([][]string, 0, len(left.Rows))
	for _, lr := range left.Rows {
		for _, rIdx := range byKey[lr[li]] {
			rr := right.Rows[rIdx]
			row := make([]string, 0, len(columns))
			row = append(row, lr...)
			for _, c := range rightCols {
				row = append(row, rr[c])
			}
			rows = append(rows, row)
		}
	}
	return New(columns, rows), nil
}
