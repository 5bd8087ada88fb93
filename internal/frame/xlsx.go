package frame

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX loads the first sheet of an XLSX workbook. The first row is the
// header.
func ReadXLSX(path string) (*Frame, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx file %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx file %s has no sheets", path)
	}
	sheet := sheets[0]

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheet, err)
	}
	defer rows.Close()

	var (
		columns []string
		records [][]string
	)
	for rows.Next() {
		record, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("failed to read row from %s: %w", path, err)
		}
		if columns == nil {
			columns = make([]string, len(record))
			for i, c := range record {
				columns[i] = strings.TrimSpace(c)
			}
			continue
		}
		records = append(records, record)
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("error iterating rows in %s: %w", path, err)
	}
	if columns == nil {
		return nil, fmt.Errorf("xlsx file %s has no header row", path)
	}
	return New(columns, records), nil
}

// ReadTable loads a CSV or XLSX file depending on its extension.
func ReadTable(path string) (*Frame, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ReadXLSX(path)
	}
	return ReadCSV(path)
}

// WriteCSV stores the frame with a header row.
func (f *Frame) WriteCSV(path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv file %s: %w", path, err)
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if err := w.Write(f.Columns); err != nil {
		return fmt.Errorf("failed to write csv header to %s: %w", path, err)
	}
	if err := w.WriteAll(f.Rows); err != nil {
		return fmt.Errorf("failed to write csv rows to %s: %w", path, err)
	}
	return out.Close()
}
