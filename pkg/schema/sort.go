package schema

import (
	"sort"
	"strings"
	"time"
)

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05", "01/02/2006"}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SortByDate orders records by date for display, keeping duplicates and the input
// order of equal dates. Recognized dates compare chronologically and come first;
// anything else follows in lexical order.
func SortByDate(records []Record) {
	type key struct {
		t  time.Time
		ok bool
	}
	keys := make(map[int]key, len(records))
	idx := make([]int, len(records))
	for i := range records {
		idx[i] = i
		t, ok := parseDate(records[i].Date)
		keys[i] = key{t, ok}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := keys[idx[a]], keys[idx[b]]
		switch {
		case ka.ok && kb.ok:
			return ka.t.Before(kb.t)
		case ka.ok != kb.ok:
			return ka.ok
		default:
			return records[idx[a]].Date < records[idx[b]].Date
		}
	})
	sorted := make([]Record, len(records))
	for i, j := range idx {
		sorted[i] = records[j]
	}
	copy(records, sorted)
}
