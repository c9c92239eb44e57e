package format

import (
	"encoding/csv"
	"errors"
	"strings"
)

func init() {
	Register(&csvAdapter{})
}

type csvAdapter struct{}

func (a *csvAdapter) ID() string           { return "csv" }
func (a *csvAdapter) Extensions() []string { return []string{".csv"} }
func (a *csvAdapter) Description() string  { return "Comma-separated values with a header row" }

// Parse reads CSV one physical line at a time. The first non-blank line is the
// header; rows whose field count differs from it are skipped and reported as
// anomalies. Quoted fields cannot span lines, so a stray quote costs only its
// own line.
func (a *csvAdapter) Parse(data []byte) (*Result, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}

	var (
		header    []string
		rows      []row
		anomalies []Anomaly
	)
	for i, line := range strings.Split(string(text), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields, err := splitCSVLine(line)
		if err != nil {
			anomalies = append(anomalies, Anomaly{Line: i + 1, Reason: err.Error()})
			continue
		}
		if header == nil {
			header = fields
			continue
		}
		rows = append(rows, row{line: i + 1, cells: fields})
	}
	if header == nil {
		return nil, ErrEmptyCSV
	}

	records, ragged := buildRecords(header, rows, false)
	return &Result{Records: records, Anomalies: mergeAnomalies(anomalies, ragged)}, nil
}

// splitCSVLine splits a single line with RFC 4180 quoting. An unterminated
// quote leaves the rest of the line in one field.
func splitCSVLine(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	fields, err := r.Read()
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, pe.Err
		}
		return nil, err
	}
	return fields, nil
}

// mergeAnomalies merges two lists already ordered by line.
func mergeAnomalies(a, b []Anomaly) []Anomaly {
	out := make([]Anomaly, 0, len(a)+len(b))
	for len(a) > 0 && len(b) > 0 {
		if a[0].Line <= b[0].Line {
			out, a = append(out, a[0]), a[1:]
		} else {
			out, b = append(out, b[0]), b[1:]
		}
	}
	out = append(append(out, a...), b...)
	if len(out) == 0 {
		return nil
	}
	return out
}
