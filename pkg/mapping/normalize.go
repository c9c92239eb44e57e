package mapping

import (
	"strings"
	"unicode"

	"github.com/hazyhaar/healthdash/pkg/record"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeName lowercases and strips accents (e.g. "Fréquence" -> "frequence").
// ASCII names come out exactly as strings.ToLower would.
func normalizeName(s string) string {
	result, _, err := transform.String(stripAccents, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return result
}

// leafName returns the normalized last segment of a field path.
func leafName(path string) string {
	if i := strings.LastIndex(path, record.PathSeparator); i >= 0 {
		path = path[i+len(record.PathSeparator):]
	}
	return normalizeName(path)
}

// similar reports whether two normalized leaf names are equal or one contains
// the other. An empty candidate never matches.
func similar(required, candidate string) bool {
	if candidate == "" || required == "" {
		return false
	}
	return required == candidate ||
		strings.Contains(candidate, required) ||
		strings.Contains(required, candidate)
}
