package format

import (
	"errors"
	"testing"
)

func TestParseScript(t *testing.T) {
	src := `// generated by the ring app
import type { Row } from "./types";

export const sleepData: Row[] = [
  { date: '2024-01-01', score: 85, note: "a // not a comment", }, // trailing
  /* block [ comment */
  {
    date: ` + "`2024-01-02`" + `,
    score: 9e1,
    url: 'http://example.com/x',
    tags: ['a', 'b',],
    missing: undefined,
  },
];
`
	res := mustParse(t, "data.ts", src)
	if res.Format != "script" {
		t.Errorf("Format = %q", res.Format)
	}
	if len(res.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(res.Records))
	}
	if got := str(t, res.Records[0], "note"); got != "a // not a comment" {
		t.Errorf("note = %q", got)
	}
	second := res.Records[1]
	if got := str(t, second, "date"); got != "2024-01-02" {
		t.Errorf("date = %q", got)
	}
	if got := num(t, second, "score"); got != 90 {
		t.Errorf("score = %v, want 90", got)
	}
	if got := str(t, second, "url"); got != "http://example.com/x" {
		t.Errorf("url = %q", got)
	}
	if v, _ := second.Lookup("missing"); !v.IsNull() {
		t.Errorf("undefined = %s, want null", v.Kind())
	}
}

func TestParseScript_DefaultExport(t *testing.T) {
	res := mustParse(t, "data.js", `export default [{a: 1}, {'b': "two"}]`)
	if len(res.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(res.Records))
	}
}

func TestParseScript_TypeAnnotations(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"type alias before export", "type Tag = string\nexport const days: Day[] = [{ date: '2024-01-01', score: 85 }, { date: '2024-01-02', score: 90 }]\n"},
		{"alias of an array type", "type Days = Day[];\nconst days: Days = [{ date: '2024-01-01' }, { date: '2024-01-02' }];"},
		{"generic annotation", "export const days: Array<Day> = [{ a: 1 }, { a: 2 }]"},
		{"no assignment", "interface Day { tags: string[] }\nexport default [{ a: 1 }, { a: 2 }]"},
	}
	for _, tt := range tests {
		res, err := Parse("data.ts", []byte(tt.src))
		if err != nil {
			t.Errorf("%s: Parse: %v", tt.name, err)
			continue
		}
		if len(res.Records) != 2 {
			t.Errorf("%s: records = %d, want 2", tt.name, len(res.Records))
		}
	}
}

func TestParseScript_Errors(t *testing.T) {
	tests := []string{
		`const x = 5;`,
		`const x = [{a: 1}`,
		`const x = [{a: compute()}]`,
		`const x = ['unterminated]`,
		`/* never closed [1]`,
	}
	for _, src := range tests {
		_, err := Parse("bad.ts", []byte(src))
		if !errors.Is(err, ErrScriptLiteral) {
			t.Errorf("Parse(%q) err = %v, want ErrScriptLiteral", src, err)
		}
	}
}

func TestUnquoteJS(t *testing.T) {
	tests := []struct{ in, want string }{
		{`plain`, "plain"},
		{`it\'s`, "it's"},
		{`a\nb`, "a\nb"},
		{`caf\u00e9`, "café"},
		{`\x41\u{42}`, "AB"},
		{`\uD83D\uDE00`, "😀"},
		{`back\\slash`, `back\slash`},
	}
	for _, tt := range tests {
		if got := unquoteJS(tt.in); got != tt.want {
			t.Errorf("unquoteJS(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
