package mapping

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hazyhaar/healthdash/pkg/record"
	"github.com/hazyhaar/healthdash/pkg/schema"
)

// ErrIncomplete is matched by every *MappingError.
var ErrIncomplete = errors.New("mapping incomplete or invalid")

// MappingError reports a mapping whose output still fails schema validation.
// Nothing is imported when it is returned.
type MappingError struct {
	Index      int // first failing record, -1 when there are no records
	Violations []schema.Violation
}

func (e *MappingError) Error() string {
	if len(e.Violations) == 0 {
		return ErrIncomplete.Error()
	}
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.String())
	}
	return fmt.Sprintf("%v: record %d: %s", ErrIncomplete, e.Index, strings.Join(msgs, "; "))
}

func (e *MappingError) Unwrap() error { return ErrIncomplete }

// Coerce converts a source value for a numeric destination: numbers pass
// through, strings that fully parse as a finite number are converted, anything
// else becomes 0.
func Coerce(v record.Value) float64 {
	if n, ok := v.AsNumber(); ok {
		return n
	}
	if s, ok := v.AsString(); ok {
		if n, ok := record.ParseNumber(s); ok {
			return n
		}
	}
	return 0
}

// Transform builds one canonical-shaped record per input record without
// validating the result. Each output starts from a fresh schema.Template.
// Sources that are absent in a record leave the zero value in place. Inputs
// are never modified.
func Transform(records []record.Value, m Mapping) []record.Value {
	keys := m.orderedKeys()
	out := make([]record.Value, 0, len(records))
	for _, r := range records {
		dst := schema.Template()
		for _, target := range keys {
			src, ok := m.Source(target)
			if !ok {
				continue
			}
			v, ok := r.Lookup(src)
			if !ok {
				continue
			}
			if kind, _ := schema.KindOf(target); kind == schema.KindNumber {
				dst.SetPath(target, record.Number(Coerce(v)))
				continue
			}
			dst.SetPath(target, v.Clone())
		}
		out = append(out, record.ObjectOf(dst))
	}
	return out
}

// Apply transforms records with m, validates the output under policy and
// materializes typed records. Records outside the validation sample must
// still convert, so a later malformed record also yields a *MappingError.
func Apply(records []record.Value, m Mapping, policy schema.Policy) ([]schema.Record, error) {
	transformed := Transform(records, m)
	if !schema.IsValid(transformed, policy) {
		idx, violations := schema.FirstInvalid(transformed, policy)
		return nil, &MappingError{Index: idx, Violations: violations}
	}
	typed, err := schema.FromValues(transformed)
	if err != nil {
		var ire *schema.InvalidRecordError
		if errors.As(err, &ire) {
			return nil, &MappingError{Index: ire.Index, Violations: ire.Violations}
		}
		return nil, err
	}
	return typed, nil
}
