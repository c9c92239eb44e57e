package importer

import (
	"errors"
	"fmt"

	"github.com/hazyhaar/healthdash/pkg/mapping"
	"github.com/hazyhaar/healthdash/pkg/record"
	"github.com/hazyhaar/healthdash/pkg/schema"
)

var (
	ErrUnknownPath      = errors.New("not a canonical field path")
	ErrUnknownCandidate = errors.New("not a field of the uploaded data")
)

// Session holds the records of a file that failed validation and the mapping
// being edited for them. It belongs to one caller and is not safe for
// concurrent use.
type Session struct {
	file       string
	format     string
	policy     schema.Policy
	records    []record.Value
	candidates []string
	pool       map[string]bool
	mapping    mapping.Mapping
}

func newSession(file, format string, records []record.Value, policy schema.Policy) *Session {
	s := &Session{
		file:       file,
		format:     format,
		policy:     policy,
		records:    records,
		candidates: record.ExtractFields(records[0]),
	}
	s.pool = make(map[string]bool, len(s.candidates))
	for _, c := range s.candidates {
		s.pool[c] = true
	}
	s.AutoDetect()
	return s
}

// File returns the name of the imported file.
func (s *Session) File() string { return s.file }

// Records returns the parsed records. They must not be modified.
func (s *Session) Records() []record.Value {
	return append([]record.Value(nil), s.records...)
}

// Candidates returns the field paths of the first record, the pool of mapping sources.
func (s *Session) Candidates() []string {
	return append([]string(nil), s.candidates...)
}

// Mapping returns a copy of the current mapping.
func (s *Session) Mapping() mapping.Mapping { return s.mapping.Clone() }

// Set assigns candidate as the source of required. An empty candidate or
// mapping.NotMapped clears it.
func (s *Session) Set(required, candidate string) error {
	if !schema.IsRequired(required) {
		return fmt.Errorf("%w: %q", ErrUnknownPath, required)
	}
	if candidate == "" || candidate == mapping.NotMapped {
		delete(s.mapping, required)
		return nil
	}
	if !s.pool[candidate] {
		return fmt.Errorf("%w: %q", ErrUnknownCandidate, candidate)
	}
	s.mapping[required] = candidate
	return nil
}

// Clear unsets the source of required.
func (s *Session) Clear(required string) { delete(s.mapping, required) }

// AutoDetect replaces the mapping with a fresh inference and returns a copy.
func (s *Session) AutoDetect() mapping.Mapping {
	s.mapping = mapping.Infer(schema.RequiredPaths(), s.candidates)
	return s.mapping.Clone()
}

// UseMapping replaces the mapping with m, typically loaded from a reviewed
// mapping file. Nothing changes when an entry is rejected.
func (s *Session) UseMapping(m mapping.Mapping) error {
	next := &Session{pool: s.pool, mapping: mapping.Mapping{}}
	for req, src := range m {
		if err := next.Set(req, src); err != nil {
			return err
		}
	}
	s.mapping = next.mapping
	return nil
}

// Unmapped lists the canonical paths that still have no source.
func (s *Session) Unmapped() []string {
	return s.mapping.Unmapped(schema.RequiredPaths())
}

// Suggestions explains the automatic choice for every canonical path.
func (s *Session) Suggestions() []mapping.Suggestion {
	return mapping.Suggest(schema.RequiredPaths(), s.candidates)
}

// Apply transforms the records with the current mapping and returns them
// sorted by date. On a *mapping.MappingError the session stays editable.
func (s *Session) Apply() ([]schema.Record, error) {
	recs, err := mapping.Apply(s.records, s.mapping, s.policy)
	if err != nil {
		return nil, err
	}
	schema.SortByDate(recs)
	return recs, nil
}
