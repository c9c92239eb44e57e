package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazyhaar/healthdash/pkg/format"
	"github.com/hazyhaar/healthdash/pkg/mapping"
	"github.com/hazyhaar/healthdash/pkg/schema"
)

const canonicalJSON = `[
 {"date":"2024-01-02","sleep":{"score":90,"duration":400,"deep":80,"rem":95,"light":225,"hrv":50,"restingHeartRate":54},
  "activity":{"score":82,"steps":10000,"calories":2300,"activeCalories":600,"distance":7000},
  "readiness":{"score":80,"hrv":48,"restingHeartRate":55,"bodyTemperature":0.1,"recoveryIndex":72}},
 {"date":"2024-01-01","sleep":{"score":85,"duration":420,"deep":90,"rem":100,"light":230,"hrv":45,"restingHeartRate":55},
  "activity":{"score":80,"steps":9000,"calories":2200,"activeCalories":500,"distance":6500},
  "readiness":{"score":78,"hrv":44,"restingHeartRate":56,"bodyTemperature":-0.2,"recoveryIndex":70}}
]`

func tempHistory(t *testing.T) *History {
	t.Helper()
	h, err := OpenHistory(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenHistory: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

func TestImport_CanonicalData(t *testing.T) {
	im := New()
	out, err := im.Import(context.Background(), "ring.json", strings.NewReader(canonicalJSON))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if out.Status != StatusImported {
		t.Fatalf("Status = %s, want imported", out.Status)
	}
	if len(out.Records) != 2 || out.Records[0].Date != "2024-01-01" {
		t.Errorf("records not sorted by date: %+v", out.Records)
	}
	if out.Session != nil {
		t.Error("no session expected for valid data")
	}
}

func TestImport_NeedsMapping(t *testing.T) {
	im := New()
	src := "date,SleepScore\n2024-01-02,90\n2024-01-01,85\n"
	out, err := im.Import(context.Background(), "ring.csv", strings.NewReader(src))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if out.Status != StatusNeedsMapping || out.Session == nil {
		t.Fatalf("outcome = %+v, want needs_mapping with a session", out)
	}
	if len(out.Violations) == 0 {
		t.Error("expected violations explaining the mismatch")
	}

	s := out.Session
	if got := s.Candidates(); len(got) != 2 || got[1] != "SleepScore" {
		t.Errorf("Candidates = %v", got)
	}
	if got := s.Mapping()["sleep.score"]; got != "SleepScore" {
		t.Errorf("auto mapping sleep.score = %q", got)
	}

	recs, err := s.Apply()
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if recs[0].Date != "2024-01-01" || recs[0].Sleep.Score != 85 {
		t.Errorf("first record = %+v", recs[0])
	}
}

func TestImport_Empty(t *testing.T) {
	out, err := New().Import(context.Background(), "none.json", strings.NewReader(`{"data":[]}`))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if out.Status != StatusEmpty {
		t.Errorf("Status = %s, want empty", out.Status)
	}
}

func TestImport_ParseError(t *testing.T) {
	_, err := New().Import(context.Background(), "notes.txt", strings.NewReader("x"))
	var pe *format.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *format.ParseError", err)
	}
	if !errors.Is(err, format.ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestImport_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().Import(ctx, "a.json", strings.NewReader("[]")); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestImport_PolicyAllRecords(t *testing.T) {
	src := strings.Replace(canonicalJSON, `"steps":9000`, `"steps":"9000"`, 1)

	for _, policy := range []schema.Policy{schema.PolicyFirstRecord, schema.PolicyAllRecords} {
		out, err := New(WithPolicy(policy)).ImportBytes("a.json", []byte(src))
		if err != nil {
			t.Fatalf("%s policy: ImportBytes: %v", policy, err)
		}
		if out.Status != StatusNeedsMapping || out.Session == nil {
			t.Fatalf("%s policy: Status = %s, want needs_mapping with a session", policy, out.Status)
		}
		if len(out.Violations) != 1 || out.Violations[0].Path != "activity.steps" {
			t.Errorf("%s policy: violations = %+v, want activity.steps", policy, out.Violations)
		}
	}
}

func TestImport_LaterRecordDriftIsMappable(t *testing.T) {
	src := strings.Replace(canonicalJSON, `"steps":9000`, `"steps":"9000"`, 1)
	im := New()

	out, err := im.ImportBytes("a.json", []byte(src))
	if err != nil {
		t.Fatalf("ImportBytes: %v", err)
	}
	if out.Status != StatusNeedsMapping {
		t.Fatalf("Status = %s, want needs_mapping", out.Status)
	}
	if u := out.Session.Unmapped(); len(u) != 0 {
		t.Fatalf("unmapped = %v, want identity mapping", u)
	}

	recs, err := im.Apply(context.Background(), out.Session)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(recs) != 2 || recs[0].Date != "2024-01-01" || recs[0].Activity.Steps != 9000 {
		t.Errorf("records = %+v, want the string steps coerced to 9000", recs)
	}
}

func TestImport_Charset(t *testing.T) {
	data := []byte("date,Fr\xe9quence\n2024-01-01,55\n")
	out, err := New(WithCharset("windows-1252")).ImportBytes("fr.csv", data)
	if err != nil {
		t.Fatalf("ImportBytes: %v", err)
	}
	if got := out.Session.Candidates()[1]; got != "Fréquence" {
		t.Errorf("candidate = %q, want Fréquence", got)
	}
}

func TestImportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.json")
	if err := os.WriteFile(path, []byte(canonicalJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := New().ImportFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if out.File != "export.json" || out.Status != StatusImported {
		t.Errorf("outcome = %+v", out)
	}
}

func TestSession_Edit(t *testing.T) {
	out, err := New().ImportBytes("a.json", []byte(`[{"day":"2024-01-01","sleep":{"points":80}}]`))
	if err != nil {
		t.Fatalf("ImportBytes: %v", err)
	}
	s := out.Session

	if err := s.Set("sleep.bogus", "day"); !errors.Is(err, ErrUnknownPath) {
		t.Errorf("Set unknown path err = %v", err)
	}
	if err := s.Set("date", "night"); !errors.Is(err, ErrUnknownCandidate) {
		t.Errorf("Set unknown candidate err = %v", err)
	}

	if err := s.Set("date", "sleep.points"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := s.Apply(); !errors.Is(err, mapping.ErrIncomplete) {
		t.Fatalf("Apply with a numeric date: err = %v, want ErrIncomplete", err)
	}

	if err := s.Set("date", "day"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set("sleep.score", "sleep.points"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	recs, err := s.Apply()
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if recs[0].Date != "2024-01-01" || recs[0].Sleep.Score != 80 {
		t.Errorf("record = %+v", recs[0])
	}

	s.Clear("sleep.score")
	if _, ok := s.Mapping().Source("sleep.score"); ok {
		t.Error("Clear left a source")
	}

	m := s.Mapping()
	m["date"] = "tampered"
	if s.Mapping()["date"] != "day" {
		t.Error("Mapping returned shared storage")
	}

	if err := s.UseMapping(mapping.Mapping{"date": "day", "sleep.hrv": "nope"}); err == nil {
		t.Error("UseMapping accepted an unknown candidate")
	}
	if s.Mapping()["date"] != "day" {
		t.Error("failed UseMapping changed the mapping")
	}

	s.AutoDetect()
	if _, ok := s.Mapping().Source("sleep.score"); ok {
		t.Errorf("AutoDetect mapped sleep.score to %q", s.Mapping()["sleep.score"])
	}
	if len(s.Unmapped()) == 0 || len(s.Suggestions()) != 18 {
		t.Errorf("Unmapped = %v, suggestions = %d", s.Unmapped(), len(s.Suggestions()))
	}
}

func TestHistory_RecordsAttempts(t *testing.T) {
	h := tempHistory(t)
	im := New(WithHistory(h))
	ctx := context.Background()

	if _, err := im.Import(ctx, "ok.json", strings.NewReader(canonicalJSON)); err != nil {
		t.Fatalf("Import: %v", err)
	}
	im.Import(ctx, "bad.json", strings.NewReader("{"))
	out, err := im.Import(ctx, "map.csv", strings.NewReader("date,SleepScore\n2024-01-01,85\n"))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if _, err := im.Apply(ctx, out.Session); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	attempts, err := h.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []Status{StatusMapped, StatusNeedsMapping, StatusFailed, StatusImported}
	if len(attempts) != len(want) {
		t.Fatalf("attempts = %d, want %d", len(attempts), len(want))
	}
	for i, a := range attempts {
		if a.Status != want[i] {
			t.Errorf("attempts[%d].Status = %s, want %s", i, a.Status, want[i])
		}
	}
	if attempts[2].Error == "" || attempts[2].Format != "json" {
		t.Errorf("failed attempt = %+v", attempts[2])
	}
	if attempts[3].Records != 2 {
		t.Errorf("imported attempt records = %d, want 2", attempts[3].Records)
	}
}
