package mapping

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/hazyhaar/healthdash/pkg/format"
	"github.com/hazyhaar/healthdash/pkg/record"
	"github.com/hazyhaar/healthdash/pkg/schema"
)

func decode(t *testing.T, src string) record.Value {
	t.Helper()
	v, err := record.DecodeJSON([]byte(src))
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	return v
}

func TestInfer_ExactBeatsFuzzy(t *testing.T) {
	required := []string{"sleep.score", "date"}
	candidates := []string{"SleepScore", "sleep.score", "day.date"}

	m := Infer(required, candidates)
	if got := m["sleep.score"]; got != "sleep.score" {
		t.Errorf("sleep.score -> %q, want the exact candidate", got)
	}
	if got := m["date"]; got != "day.date" {
		t.Errorf("date -> %q, want day.date", got)
	}
}

func TestInfer_FuzzyFirstCandidateWins(t *testing.T) {
	required := schema.RequiredPaths()
	candidates := []string{"date", "SleepScore", "readiness_score", "HRV", "Steps (daily)", "light_minutes"}

	m := Infer(required, candidates)
	tests := map[string]string{
		"date":            "date",
		"sleep.score":     "SleepScore",
		"activity.score":  "SleepScore",
		"readiness.score": "SleepScore",
		"sleep.hrv":       "HRV",
		"readiness.hrv":   "HRV",
		"activity.steps":  "Steps (daily)",
		"sleep.light":     "light_minutes",
	}
	for req, want := range tests {
		if got := m[req]; got != want {
			t.Errorf("%s -> %q, want %q", req, got, want)
		}
	}
	if _, ok := m.Source("sleep.rem"); ok {
		t.Errorf("sleep.rem -> %q, want unmapped", m["sleep.rem"])
	}
}

func TestInfer_Idempotent(t *testing.T) {
	required := schema.RequiredPaths()
	candidates := []string{"day", "metrics.deep", "metrics.rem", "Distance", "temperature", ""}
	a := Infer(required, candidates)
	b := Infer(required, candidates)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("Infer not deterministic:\n%v\n%v", a, b)
	}
	if _, ok := a.Source("readiness.bodyTemperature"); !ok {
		t.Error("bodyTemperature should match temperature")
	}
	if got := a["sleep.deep"]; got != "metrics.deep" {
		t.Errorf("sleep.deep -> %q", got)
	}
}

func TestInfer_AccentsIgnored(t *testing.T) {
	m := Infer([]string{"sleep.score"}, []string{"Scöre"})
	if got := m["sleep.score"]; got != "Scöre" {
		t.Errorf("sleep.score -> %q, want Scöre", got)
	}
}

func TestSuggest(t *testing.T) {
	s := Suggest([]string{"date", "sleep.score", "sleep.rem"}, []string{"date", "SleepScore", "score"})
	want := []Suggestion{
		{Required: "date", Source: "date", Method: MethodExact, Alternatives: []string{"date"}},
		{Required: "sleep.score", Source: "SleepScore", Method: MethodFuzzy, Alternatives: []string{"SleepScore", "score"}},
		{Required: "sleep.rem", Method: MethodNone},
	}
	if !reflect.DeepEqual(s, want) {
		t.Errorf("Suggest =\n%+v\nwant\n%+v", s, want)
	}
}

func TestMappingHelpers(t *testing.T) {
	m := Mapping{"date": "day", "sleep.score": NotMapped, "sleep.hrv": ""}
	if _, ok := m.Source("sleep.score"); ok {
		t.Error("NotMapped counts as set")
	}
	req := []string{"date", "sleep.score", "sleep.hrv"}
	if got, want := m.Unmapped(req), []string{"sleep.score", "sleep.hrv"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Unmapped = %v, want %v", got, want)
	}
	if m.Complete(req) {
		t.Error("Complete = true")
	}
	c := m.Clone()
	c["date"] = "other"
	if m["date"] != "day" {
		t.Error("Clone shares storage")
	}
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		in   record.Value
		want float64
	}{
		{record.Number(85), 85},
		{record.String("1234"), 1234},
		{record.String(" 7.5 "), 7.5},
		{record.String("1,234"), 0},
		{record.String("n/a"), 0},
		{record.Null(), 0},
		{record.Bool(true), 0},
		{record.Array(nil), 0},
	}
	for _, tt := range tests {
		if got := Coerce(tt.in); got != tt.want {
			t.Errorf("Coerce(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestApply_EmptyMappingIsSchemaValid(t *testing.T) {
	recs := []record.Value{decode(t, `{"x":1}`)}
	out, err := Apply(recs, Mapping{}, schema.PolicyAllRecords)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out[0] != (schema.Record{}) {
		t.Errorf("record = %+v, want zero value", out[0])
	}
}

func TestApply_CoercionAndNesting(t *testing.T) {
	recs := []record.Value{decode(t, `{"day":"2024-01-01","s":{"score":"1234","hrv":"1,234"},"steps":9000,"tags":["a"]}`)}
	m := Mapping{
		"date":           "day",
		"sleep.score":    "s.score",
		"sleep.hrv":      "s.hrv",
		"activity.steps": "steps",
		"activity.score": "missing.path",
		"sleep.rem":      "tags",
	}
	out, err := Apply(recs, m, schema.PolicyFirstRecord)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	r := out[0]
	if r.Date != "2024-01-01" || r.Sleep.Score != 1234 || r.Sleep.HRV != 0 || r.Activity.Steps != 9000 {
		t.Errorf("record = %+v", r)
	}
	if r.Activity.Score != 0 || r.Sleep.REM != 0 {
		t.Errorf("absent or non-numeric sources should leave 0: %+v", r)
	}

	if got, _ := recs[0].Lookup("s.score"); got.Kind() != record.KindString {
		t.Error("input record was modified")
	}
}

func TestApply_EmptyObjectSource(t *testing.T) {
	recs := []record.Value{decode(t, `{"date":"2024-01-01","sleep":{},"SleepScore":"80"}`)}

	fields := record.ExtractFields(recs[0])
	if want := []string{"date", "SleepScore"}; !reflect.DeepEqual(fields, want) {
		t.Fatalf("fields = %v, want %v (empty object is not a leaf)", fields, want)
	}

	m := Infer(schema.RequiredPaths(), fields)
	if got := m["sleep.score"]; got != "SleepScore" {
		t.Fatalf("sleep.score -> %q, want SleepScore", got)
	}
	m["sleep.hrv"] = "sleep"

	out, err := Apply(recs, m, schema.PolicyAllRecords)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out[0].Sleep.Score != 80 {
		t.Errorf("sleep.score = %v, want 80", out[0].Sleep.Score)
	}
	if out[0].Sleep.HRV != 0 {
		t.Errorf("sleep.hrv from an object = %v, want 0", out[0].Sleep.HRV)
	}
}

func TestApply_MappingError(t *testing.T) {
	recs := []record.Value{
		decode(t, `{"day":"2024-01-01"}`),
		decode(t, `{"day":20240102}`),
	}
	m := Mapping{"date": "day"}

	_, err := Apply(recs, m, schema.PolicyFirstRecord)
	var me *MappingError
	if !errors.As(err, &me) {
		t.Fatalf("err = %v, want *MappingError", err)
	}
	if !errors.Is(err, ErrIncomplete) {
		t.Error("MappingError does not match ErrIncomplete")
	}
	if me.Index != 1 || len(me.Violations) != 1 || me.Violations[0].Path != "date" {
		t.Errorf("MappingError = %+v", me)
	}

	if _, err := Apply(nil, m, schema.PolicyFirstRecord); !errors.Is(err, ErrIncomplete) {
		t.Errorf("empty dataset err = %v, want ErrIncomplete", err)
	}
}

// A CSV with a header that only partly matches the canonical names goes
// through parse, validate, extract, infer and apply.
func TestEndToEnd_CSV(t *testing.T) {
	res, err := format.Parse("ring.csv", []byte("date,SleepScore\n2024-01-01,85\n2024-01-02,90"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(res.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(res.Records))
	}
	if schema.IsValid(res.Records, schema.PolicyFirstRecord) {
		t.Fatal("raw records should not be valid")
	}
	fields := record.ExtractFields(res.Records[0])
	if want := []string{"date", "SleepScore"}; !reflect.DeepEqual(fields, want) {
		t.Fatalf("fields = %v, want %v", fields, want)
	}

	m := Infer(schema.RequiredPaths(), fields)
	if m["sleep.score"] != "SleepScore" || m["date"] != "date" {
		t.Fatalf("mapping = %v", m)
	}
	out, err := Apply(res.Records, m, schema.PolicyAllRecords)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out[0].Sleep.Score != 85 || out[1].Sleep.Score != 90 || out[1].Date != "2024-01-02" {
		t.Errorf("records = %+v", out)
	}
}

func TestFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ring.yaml")
	in := &File{SourceFormat: "csv", Fields: Mapping{"date": "day", "sleep.score": "SleepScore", "custom.note": "note"}}
	if err := WriteFile(path, in); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	out, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if out.Version != FileVersion || out.SourceFormat != "csv" {
		t.Errorf("file = %+v", out)
	}
	if out.Fields["sleep.score"] != "SleepScore" || out.Fields["custom.note"] != "note" {
		t.Errorf("fields = %v", out.Fields)
	}
	if out.Fields["sleep.rem"] != NotMapped {
		t.Errorf("sleep.rem = %q, want %q", out.Fields["sleep.rem"], NotMapped)
	}
	if _, ok := out.Fields.Source("sleep.rem"); ok {
		t.Error("not_mapped loaded as a source")
	}
}

func TestLoadFile_Errors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Error("missing file: expected error")
	}
}
