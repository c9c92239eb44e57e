package schema

import (
	"fmt"
	"strings"

	"github.com/hazyhaar/healthdash/pkg/record"
)

// Policy selects which records of a dataset the validator inspects.
type Policy int

const (
	// PolicyFirstRecord validates only the first record and assumes the dataset
	// is homogeneous. Constant time, blind to drift in later records.
	PolicyFirstRecord Policy = iota
	// PolicyAllRecords validates every record.
	PolicyAllRecords
)

func (p Policy) String() string {
	if p == PolicyAllRecords {
		return "all"
	}
	return "first"
}

// ParsePolicy reads a policy name as used in configuration files ("first", "all").
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "first":
		return PolicyFirstRecord, nil
	case "all":
		return PolicyAllRecords, nil
	default:
		return PolicyFirstRecord, fmt.Errorf("unknown validation policy %q (want first or all)", s)
	}
}

// Violation explains why one path of a record does not satisfy the schema.
type Violation struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

func (v Violation) String() string {
	if v.Path == "" {
		return v.Reason
	}
	return v.Path + ": " + v.Reason
}

// IsValid reports whether records already satisfy the canonical schema under policy.
// An empty dataset is never valid. IsValid never fails; it is a predicate.
func IsValid(records []record.Value, policy Policy) bool {
	if len(records) == 0 {
		return false
	}
	if policy != PolicyAllRecords {
		return len(Check(records[0])) == 0
	}
	for _, r := range records {
		if len(Check(r)) != 0 {
			return false
		}
	}
	return true
}

// FirstInvalid returns the index and violations of the first record that fails the
// schema among those inspected under policy, or -1 when all of them pass.
func FirstInvalid(records []record.Value, policy Policy) (int, []Violation) {
	if len(records) == 0 {
		return -1, nil
	}
	n := 1
	if policy == PolicyAllRecords {
		n = len(records)
	}
	for i := 0; i < n; i++ {
		if v := Check(records[i]); len(v) > 0 {
			return i, v
		}
	}
	return -1, nil
}

// Check lists every schema violation of a single record. A nil result means the
// record is valid: date is a string (possibly empty), the three groups are objects
// and every numeric leaf is a finite number.
func Check(r record.Value) []Violation {
	if _, ok := r.AsObject(); !ok {
		return []Violation{{Reason: fmt.Sprintf("record is %s, want object", r.Kind())}}
	}

	var out []Violation
	if date, ok := r.Lookup("date"); !ok {
		out = append(out, Violation{Path: "date", Reason: "missing"})
	} else if date.Kind() != record.KindString {
		out = append(out, Violation{Path: "date", Reason: fmt.Sprintf("got %s, want string", date.Kind())})
	}

	for _, g := range groups {
		gv, ok := r.Lookup(g)
		if !ok || gv.Kind() != record.KindObject {
			reason := "missing"
			if ok {
				reason = fmt.Sprintf("got %s, want object", gv.Kind())
			}
			out = append(out, Violation{Path: g, Reason: reason})
			continue
		}
		for _, p := range requiredPaths {
			if !strings.HasPrefix(p, g+record.PathSeparator) {
				continue
			}
			leaf, ok := r.Lookup(p)
			switch {
			case !ok:
				out = append(out, Violation{Path: p, Reason: "missing"})
			case leaf.Kind() != record.KindNumber:
				out = append(out, Violation{Path: p, Reason: fmt.Sprintf("got %s, want number", leaf.Kind())})
			case !leaf.IsFiniteNumber():
				out = append(out, Violation{Path: p, Reason: "not a finite number"})
			}
		}
	}
	return out
}

// InvalidRecordError reports a record that cannot be represented as a Record.
type InvalidRecordError struct {
	Index      int
	Violations []Violation
}

func (e *InvalidRecordError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.String())
	}
	return fmt.Sprintf("record %d does not match the schema: %s", e.Index, strings.Join(msgs, "; "))
}

// FromValue materializes a typed Record from a generic record that passes Check.
// Keys outside the schema are ignored.
func FromValue(v record.Value) (Record, error) {
	if violations := Check(v); len(violations) > 0 {
		return Record{}, &InvalidRecordError{Violations: violations}
	}
	var r Record
	date, _ := v.Lookup("date")
	r.Date, _ = date.AsString()
	for path, field := range numberFields {
		leaf, _ := v.Lookup(path)
		*field(&r), _ = leaf.AsNumber()
	}
	return r, nil
}

// FromValues materializes every record. Each one must pass Check, whatever the
// validation policy, because a typed Record cannot hold a malformed leaf.
func FromValues(vs []record.Value) ([]Record, error) {
	out := make([]Record, 0, len(vs))
	for i, v := range vs {
		r, err := FromValue(v)
		if err != nil {
			if ire, ok := err.(*InvalidRecordError); ok {
				ire.Index = i
			}
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
