// CLAUDE:SUMMARY Import pipeline: read a file, parse it, validate against the canonical schema, hand invalid datasets to a mapping session, log attempts.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hazyhaar/healthdash/pkg/format"
	"github.com/hazyhaar/healthdash/pkg/record"
	"github.com/hazyhaar/healthdash/pkg/schema"
)

// Status is the result of an import attempt.
type Status string

const (
	// StatusImported: the file already matched the schema.
	StatusImported Status = "imported"
	// StatusNeedsMapping: well-formed file with the wrong shape; a Session is attached.
	StatusNeedsMapping Status = "needs_mapping"
	// StatusEmpty: the file parsed but held no records.
	StatusEmpty Status = "empty"

	// History-only statuses.
	StatusFailed        Status = "failed"
	StatusMapped        Status = "mapped"
	StatusMappingFailed Status = "mapping_failed"
)

// Outcome is what Import returns for a file that could be parsed.
type Outcome struct {
	File       string             `json:"file"`
	Format     string             `json:"format"`
	Status     Status             `json:"status"`
	Records    []schema.Record    `json:"records,omitempty"`
	Anomalies  []format.Anomaly   `json:"anomalies,omitempty"`
	Violations []schema.Violation `json:"violations,omitempty"`
	Session    *Session           `json:"-"`
}

// Importer runs the parse and validate steps. It holds no per-import state
// and is safe for concurrent use.
type Importer struct {
	policy  schema.Policy
	charset string
	logger  *slog.Logger
	history *History
}

// Option configures an Importer.
type Option func(*Importer)

// WithPolicy selects how many records the validator inspects.
func WithPolicy(p schema.Policy) Option { return func(im *Importer) { im.policy = p } }

// WithCharset transcodes input from a legacy charset before parsing.
func WithCharset(name string) Option { return func(im *Importer) { im.charset = name } }

// WithLogger sets the logger. Without it nothing is logged.
func WithLogger(l *slog.Logger) Option { return func(im *Importer) { im.logger = l } }

// WithHistory records every attempt in h.
func WithHistory(h *History) Option { return func(im *Importer) { im.history = h } }

// New creates an Importer.
func New(opts ...Option) *Importer {
	im := &Importer{
		policy: schema.PolicyFirstRecord,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(im)
	}
	return im
}

// Policy returns the validation policy in use.
func (im *Importer) Policy() schema.Policy { return im.policy }

// ImportFile opens path and imports it under its base name.
func (im *Importer) ImportFile(ctx context.Context, path string) (*Outcome, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return im.Import(ctx, filepath.Base(path), f)
}

// Import reads r to the end, then parses and validates its content. The name
// selects the format by extension. A file that cannot be parsed returns a
// *format.ParseError; a file with the wrong shape is not an error and comes
// back with StatusNeedsMapping.
func (im *Importer) Import(ctx context.Context, name string, r io.Reader) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := im.ImportBytes(name, data)
	im.record(ctx, attemptOf(name, out, err))
	return out, err
}

// ImportBytes is Import for content already in memory. It does not touch the
// history.
func (im *Importer) ImportBytes(name string, data []byte) (*Outcome, error) {
	data, err := format.DecodeCharset(im.charset, data)
	if err != nil {
		return nil, &format.ParseError{File: name, Err: err}
	}

	res, err := format.Parse(name, data)
	if err != nil {
		im.logger.Warn("parse failed", "file", name, "error", err)
		return nil, err
	}
	for _, a := range res.Anomalies {
		im.logger.Warn("row skipped", "file", name, "line", a.Line, "reason", a.Reason)
	}

	out := &Outcome{File: name, Format: res.Format, Anomalies: res.Anomalies}
	if len(res.Records) == 0 {
		out.Status = StatusEmpty
		im.logger.Info("no data", "file", name, "format", res.Format)
		return out, nil
	}

	if schema.IsValid(res.Records, im.policy) {
		recs, err := schema.FromValues(res.Records)
		if err == nil {
			schema.SortByDate(recs)
			out.Status = StatusImported
			out.Records = recs
			im.logger.Info("imported", "file", name, "format", res.Format, "records", len(recs), "policy", im.policy.String())
			return out, nil
		}
		// A record past the sampled one is malformed: the file goes to mapping
		// like any other wrong-shaped file.
		var ire *schema.InvalidRecordError
		if !errors.As(err, &ire) {
			return nil, fmt.Errorf("import %s: %w", name, err)
		}
		out.Violations = ire.Violations
		im.logger.Warn("record drifts from the schema", "file", name, "record", ire.Index)
	} else {
		_, out.Violations = schema.FirstInvalid(res.Records, im.policy)
	}

	out.Status = StatusNeedsMapping
	out.Session = newSession(name, res.Format, res.Records, im.policy)
	im.logger.Info("mapping required", "file", name, "format", res.Format,
		"records", len(res.Records), "candidates", len(out.Session.Candidates()))
	return out, nil
}

// NewSession starts a mapping session over records parsed elsewhere.
func (im *Importer) NewSession(name string, records []record.Value) (*Session, error) {
	if len(records) == 0 {
		return nil, errors.New("no records to map")
	}
	return newSession(name, "", records, im.policy), nil
}

// Apply runs s.Apply and records the attempt.
func (im *Importer) Apply(ctx context.Context, s *Session) ([]schema.Record, error) {
	recs, err := s.Apply()
	a := Attempt{File: s.file, Format: s.format, Status: StatusMapped, Records: len(recs)}
	if err != nil {
		a.Status = StatusMappingFailed
		a.Error = err.Error()
		im.logger.Warn("mapping rejected", "file", s.file, "error", err)
	} else {
		im.logger.Info("mapping applied", "file", s.file, "records", len(recs))
	}
	im.record(ctx, a)
	return recs, err
}

func (im *Importer) record(ctx context.Context, a Attempt) {
	if im.history == nil {
		return
	}
	if err := im.history.Record(ctx, a); err != nil {
		im.logger.Warn("history write failed", "file", a.File, "error", err)
	}
}

func attemptOf(name string, out *Outcome, err error) Attempt {
	a := Attempt{File: name}
	if err != nil {
		a.Status = StatusFailed
		a.Error = err.Error()
		var pe *format.ParseError
		if errors.As(err, &pe) {
			a.Format = pe.Format
		}
		return a
	}
	a.Format = out.Format
	a.Status = out.Status
	a.Records = len(out.Records)
	a.Anomalies = len(out.Anomalies)
	if out.Session != nil {
		a.Records = len(out.Session.records)
	}
	return a
}
