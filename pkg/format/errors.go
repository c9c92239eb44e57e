package format

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyCSV          = errors.New("CSV file is empty")
	ErrNoArrayData       = errors.New("no array data found")
	ErrScriptLiteral     = errors.New("could not parse the script-like file")
	ErrNoSheet           = errors.New("workbook has no sheet")
)

// ParseError reports a file that could not be turned into records.
type ParseError struct {
	Format string // adapter ID, empty when no adapter matched
	File   string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("parse %s: %v", e.File, e.Err)
	}
	return fmt.Sprintf("parse %s (%s): %v", e.File, e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Anomaly is a row that was skipped during a tabular parse. The rest of the file
// is still imported.
type Anomaly struct {
	Line   int    `json:"line"`
	Got    int    `json:"got,omitempty"`
	Want   int    `json:"want,omitempty"`
	Reason string `json:"reason"`
}

func (a Anomaly) String() string {
	return fmt.Sprintf("line %d: %s", a.Line, a.Reason)
}

func raggedRow(line, got, want int) Anomaly {
	return Anomaly{
		Line:   line,
		Got:    got,
		Want:   want,
		Reason: fmt.Sprintf("has %d values, expected %d", got, want),
	}
}
