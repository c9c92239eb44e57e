package format

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

func init() {
	Register(&xlsxAdapter{})
}

type xlsxAdapter struct{}

func (a *xlsxAdapter) ID() string           { return "xlsx" }
func (a *xlsxAdapter) Extensions() []string { return []string{".xlsx"} }
func (a *xlsxAdapter) Description() string  { return "Excel workbook, first sheet with a header row" }

// Parse reads the first sheet. excelize trims trailing empty cells, so short
// rows are padded to the header width instead of being skipped.
func (a *xlsxAdapter) Parse(data []byte) (*Result, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}
	cells, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	var (
		header []string
		rows   []row
	)
	for i, c := range cells {
		if blank(c) {
			continue
		}
		if header == nil {
			header = c
			continue
		}
		rows = append(rows, row{line: i + 1, cells: c})
	}
	if header == nil {
		return &Result{}, nil
	}
	records, anomalies := buildRecords(header, rows, true)
	return &Result{Records: records, Anomalies: anomalies}, nil
}
