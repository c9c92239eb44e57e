package format

import (
	"strings"

	"github.com/hazyhaar/healthdash/pkg/record"
)

// row is one data line of a tabular file with its 1-based source line.
type row struct {
	line  int
	cells []string
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// cellValue is Number when the cell is a complete finite numeric literal, the
// raw text otherwise.
func cellValue(s string) record.Value {
	if n, ok := record.ParseNumber(s); ok {
		return record.Number(n)
	}
	return record.String(s)
}

// buildRecords maps every row whose width matches the header to a flat record
// keyed by column name. With pad set, short rows are completed with empty cells
// and long rows whose extra cells are blank are truncated.
func buildRecords(header []string, rows []row, pad bool) ([]record.Value, []Anomaly) {
	records := make([]record.Value, 0, len(rows))
	var anomalies []Anomaly
	for _, r := range rows {
		cells := r.cells
		if pad {
			if len(cells) < len(header) {
				cells = append(cells, make([]string, len(header)-len(cells))...)
			} else if len(cells) > len(header) && blank(cells[len(header):]) {
				cells = cells[:len(header)]
			}
		}
		if len(cells) != len(header) {
			anomalies = append(anomalies, raggedRow(r.line, len(r.cells), len(header)))
			continue
		}
		obj := record.NewObject()
		for i, name := range header {
			obj.Set(name, cellValue(cells[i]))
		}
		records = append(records, record.ObjectOf(obj))
	}
	return records, anomalies
}
