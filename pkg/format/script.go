package format

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/hazyhaar/healthdash/pkg/record"
)

func init() {
	Register(&scriptAdapter{})
}

type scriptAdapter struct{}

func (a *scriptAdapter) ID() string           { return "script" }
func (a *scriptAdapter) Extensions() []string { return []string{".ts", ".js"} }
func (a *scriptAdapter) Description() string {
	return "TypeScript or JavaScript module holding an array literal (read, never executed)"
}

// Parse extracts the first array literal of a source file and reads it as
// relaxed JSON: comments, bare keys, single-quoted or backtick strings and
// trailing commas are accepted. Nothing is evaluated.
func (a *scriptAdapter) Parse(data []byte) (*Result, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}
	v, err := scriptLiteral(string(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScriptLiteral, err)
	}
	items, _ := v.AsArray()
	return &Result{Records: items}, nil
}

var (
	errUnterminatedString  = errors.New("unterminated string")
	errUnterminatedComment = errors.New("unterminated block comment")
	errNoArrayLiteral      = errors.New("no array literal")
	errUnbalanced          = errors.New("unbalanced brackets")
)

func scriptLiteral(src string) (record.Value, error) {
	src, err := stripComments(src)
	if err != nil {
		return record.Value{}, err
	}
	lit, err := extractArray(src)
	if err != nil {
		return record.Value{}, err
	}
	js, err := literalToJSON(lit)
	if err != nil {
		return record.Value{}, err
	}
	return record.DecodeJSON([]byte(js))
}

func isQuote(c byte) bool { return c == '"' || c == '\'' || c == '`' }

// stringEnd returns the index just past the string literal opening at src[i].
// Only backtick strings may span lines.
func stringEnd(src string, i int) (int, error) {
	q := src[i]
	for j := i + 1; j < len(src); j++ {
		switch c := src[j]; {
		case c == '\\':
			j++
		case c == q:
			return j + 1, nil
		case c == '\n' && q != '`':
			return 0, errUnterminatedString
		}
	}
	return 0, errUnterminatedString
}

// stripComments removes line and block comments outside string literals.
// Newlines ending line comments are kept.
func stripComments(src string) (string, error) {
	var b strings.Builder
	b.Grow(len(src))
	for i := 0; i < len(src); {
		switch {
		case isQuote(src[i]):
			end, err := stringEnd(src, i)
			if err != nil {
				return "", err
			}
			b.WriteString(src[i:end])
			i = end
		case strings.HasPrefix(src[i:], "//"):
			nl := strings.IndexByte(src[i:], '\n')
			if nl < 0 {
				return b.String(), nil
			}
			i += nl
		case strings.HasPrefix(src[i:], "/*"):
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				return "", errUnterminatedComment
			}
			b.WriteByte(' ')
			i += end + 4
		default:
			b.WriteByte(src[i])
			i++
		}
	}
	return b.String(), nil
}

// indexOutside returns the index of the first c at or after from that is not
// inside a string literal, or -1.
func indexOutside(src string, c byte, from int) int {
	for i := from; i < len(src); {
		if isQuote(src[i]) {
			end, err := stringEnd(src, i)
			if err != nil {
				return -1
			}
			i = end
			continue
		}
		if src[i] == c {
			return i
		}
		i++
	}
	return -1
}

// arrayStart returns the index of the array literal to extract: the first '['
// that directly follows an assignment, else the first '[' that is not an empty
// type annotation such as Day[].
func arrayStart(src string) int {
	for eq := indexOutside(src, '=', 0); eq >= 0; eq = indexOutside(src, '=', eq+1) {
		if i := skipSpace(src, eq+1); i < len(src) && src[i] == '[' {
			return i
		}
	}
	for open := indexOutside(src, '[', 0); open >= 0; open = indexOutside(src, '[', open+1) {
		if open > 0 && isTypeSuffix(src[open-1]) && open+1 < len(src) && src[open+1] == ']' {
			continue
		}
		return open
	}
	return -1
}

func isTypeSuffix(c byte) bool { return isIdentPart(c) || c == '>' || c == ')' || c == ']' }

// extractArray returns the bracketed array literal chosen by arrayStart.
func extractArray(src string) (string, error) {
	open := arrayStart(src)
	if open < 0 {
		return "", errNoArrayLiteral
	}
	depth := 0
	for i := open; i < len(src); {
		c := src[i]
		if isQuote(c) {
			end, err := stringEnd(src, i)
			if err != nil {
				return "", err
			}
			i = end
			continue
		}
		switch c {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return src[open : i+1], nil
			}
		}
		i++
	}
	return "", errUnbalanced
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || (c >= '0' && c <= '9') }

func skipSpace(s string, i int) int {
	for i < len(s) && strings.IndexByte(" \t\r\n", s[i]) >= 0 {
		i++
	}
	return i
}

// literalToJSON rewrites a comment-free object literal as JSON.
func literalToJSON(lit string) (string, error) {
	var b strings.Builder
	b.Grow(len(lit) + len(lit)/4)
	for i := 0; i < len(lit); {
		c := lit[i]
		switch {
		case isQuote(c):
			end, err := stringEnd(lit, i)
			if err != nil {
				return "", err
			}
			q, err := json.Marshal(unquoteJS(lit[i+1 : end-1]))
			if err != nil {
				return "", err
			}
			b.Write(q)
			i = end
		case isIdentStart(c) && (i == 0 || !isIdentPart(lit[i-1])):
			j := i + 1
			for j < len(lit) && isIdentPart(lit[j]) {
				j++
			}
			word := lit[i:j]
			switch k := skipSpace(lit, j); {
			case k < len(lit) && lit[k] == ':':
				b.WriteString(strconv.Quote(word))
			case word == "undefined":
				b.WriteString("null")
			default:
				b.WriteString(word)
			}
			i = j
		case c == ',':
			if k := skipSpace(lit, i+1); k < len(lit) && (lit[k] == '}' || lit[k] == ']') {
				i++
				continue
			}
			b.WriteByte(c)
			i++
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), nil
}

// unquoteJS resolves the escape sequences of a string literal body.
func unquoteJS(body string) string {
	if !strings.Contains(body, `\`) {
		return body
	}
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i+1 == len(body) {
			b.WriteByte(c)
			continue
		}
		i++
		switch e := body[i]; e {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			b.WriteByte(0)
		case '\n':
		case 'x':
			if r, ok := hexRune(body, i+1, 2); ok {
				b.WriteRune(r)
				i += 2
			} else {
				b.WriteByte(e)
			}
		case 'u':
			r, n := unicodeEscape(body, i+1)
			if n == 0 {
				b.WriteByte(e)
				continue
			}
			i += n
			if utf16.IsSurrogate(r) && strings.HasPrefix(body[i+1:], `\u`) {
				if lo, m := unicodeEscape(body, i+3); m > 0 {
					if pair := utf16.DecodeRune(r, lo); pair != utf8.RuneError {
						r = pair
						i += m + 2
					}
				}
			}
			b.WriteRune(r)
		default:
			b.WriteByte(e)
		}
	}
	return b.String()
}

// unicodeEscape reads XXXX or {X...} at body[i:] and returns the rune and the
// number of bytes consumed, zero when malformed.
func unicodeEscape(body string, i int) (rune, int) {
	if i < len(body) && body[i] == '{' {
		end := strings.IndexByte(body[i:], '}')
		if end < 2 {
			return 0, 0
		}
		if r, ok := hexRune(body, i+1, end-1); ok {
			return r, end + 1
		}
		return 0, 0
	}
	if r, ok := hexRune(body, i, 4); ok {
		return r, 4
	}
	return 0, 0
}

func hexRune(s string, i, n int) (rune, bool) {
	if i+n > len(s) {
		return 0, false
	}
	v, err := strconv.ParseUint(s[i:i+n], 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(v), true
}
