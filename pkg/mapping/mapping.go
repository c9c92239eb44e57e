// CLAUDE:SUMMARY Field mapping from canonical required paths to source candidate paths: inference, application with numeric coercion, YAML mapping files.
package mapping

import (
	"sort"

	"github.com/hazyhaar/healthdash/pkg/schema"
)

// NotMapped is the explicit "no source" marker. It is equivalent to an empty
// source path.
const NotMapped = "not_mapped"

// Mapping assigns a candidate source path to each required canonical path.
// Missing keys, "" and NotMapped all mean unset.
type Mapping map[string]string

// Clone returns an independent copy. A nil mapping clones to an empty one.
func (m Mapping) Clone() Mapping {
	c := make(Mapping, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// Source returns the candidate path assigned to required, if set.
func (m Mapping) Source(required string) (string, bool) {
	src := m[required]
	if src == "" || src == NotMapped {
		return "", false
	}
	return src, true
}

// Unmapped lists the paths of required that have no source, in order.
func (m Mapping) Unmapped(required []string) []string {
	var out []string
	for _, r := range required {
		if _, ok := m.Source(r); !ok {
			out = append(out, r)
		}
	}
	return out
}

// Complete reports whether every path of required has a source.
func (m Mapping) Complete(required []string) bool {
	return len(m.Unmapped(required)) == 0
}

// orderedKeys returns the destination paths in application order: canonical
// paths first in schema order, then any other keys sorted.
func (m Mapping) orderedKeys() []string {
	keys := make([]string, 0, len(m))
	for _, p := range schema.RequiredPaths() {
		if _, ok := m[p]; ok {
			keys = append(keys, p)
		}
	}
	var extra []string
	for k := range m {
		if !schema.IsRequired(k) {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}
