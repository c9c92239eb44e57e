package mapping

// Method tells how a suggested source was found.
type Method string

const (
	MethodExact Method = "exact"
	MethodFuzzy Method = "fuzzy"
	MethodNone  Method = "none"
)

// Infer proposes a source for each required path. Pass one maps a required path
// to an identical candidate. Pass two compares normalized leaf names of the
// remaining paths against candidates in their given order; the first candidate
// whose leaf equals, contains or is contained by the required leaf wins. The
// same candidate may serve several required paths. The result is fresh and the
// same inputs always give the same mapping.
func Infer(required, candidates []string) Mapping {
	m := make(Mapping, len(required))

	pool := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		pool[c] = true
	}
	for _, r := range required {
		if pool[r] {
			m[r] = r
		}
	}

	leaves := make([]string, len(candidates))
	for i, c := range candidates {
		leaves[i] = leafName(c)
	}
	for _, r := range required {
		if _, ok := m[r]; ok {
			continue
		}
		want := leafName(r)
		for i, c := range candidates {
			if similar(want, leaves[i]) {
				m[r] = c
				break
			}
		}
	}
	return m
}

// Suggestion describes the inferred source of one required path together with
// every candidate that could serve it.
type Suggestion struct {
	Required     string   `json:"required"`
	Source       string   `json:"source,omitempty"`
	Method       Method   `json:"method"`
	Alternatives []string `json:"alternatives,omitempty"`
}

// Suggest runs Infer and explains each decision, in required order.
func Suggest(required, candidates []string) []Suggestion {
	m := Infer(required, candidates)
	out := make([]Suggestion, 0, len(required))
	for _, r := range required {
		s := Suggestion{Required: r, Method: MethodNone}
		if src, ok := m.Source(r); ok {
			s.Source = src
			s.Method = MethodFuzzy
			if src == r {
				s.Method = MethodExact
			}
		}
		want := leafName(r)
		for _, c := range candidates {
			if c == r || similar(want, leafName(c)) {
				s.Alternatives = append(s.Alternatives, c)
			}
		}
		out = append(out, s)
	}
	return out
}
