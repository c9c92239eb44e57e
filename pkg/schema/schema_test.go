package schema

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/hazyhaar/healthdash/pkg/record"
)

const validRecord = `{"date":"2024-01-01",
 "sleep":{"score":85,"duration":420,"deep":90,"rem":100,"light":230,"hrv":45,"restingHeartRate":55},
 "activity":{"score":80,"steps":9000,"calories":2200,"activeCalories":500,"distance":6500},
 "readiness":{"score":78,"hrv":44,"restingHeartRate":56,"bodyTemperature":-0.2,"recoveryIndex":70}}`

func decode(t *testing.T, src string) record.Value {
	t.Helper()
	v, err := record.DecodeJSON([]byte(src))
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	return v
}

func TestRequiredPaths(t *testing.T) {
	paths := RequiredPaths()
	if len(paths) != 18 {
		t.Fatalf("len = %d, want 18", len(paths))
	}
	if paths[0] != "date" || paths[17] != "readiness.recoveryIndex" {
		t.Errorf("order = %v", paths)
	}
	paths[0] = "mutated"
	if RequiredPaths()[0] != "date" {
		t.Error("RequiredPaths shares its backing array")
	}
}

func TestKindOf(t *testing.T) {
	if k, ok := KindOf("date"); !ok || k != KindString {
		t.Errorf("KindOf(date) = %q, %v", k, ok)
	}
	if k, ok := KindOf("sleep.hrv"); !ok || k != KindNumber {
		t.Errorf("KindOf(sleep.hrv) = %q, %v", k, ok)
	}
	if _, ok := KindOf("sleep.stress"); ok {
		t.Error("KindOf(sleep.stress) should be unknown")
	}
}

func TestTemplate_IsValidAndFresh(t *testing.T) {
	a := Template()
	if !IsValid([]record.Value{record.ObjectOf(a)}, PolicyFirstRecord) {
		t.Fatalf("template fails validation: %v", Check(record.ObjectOf(a)))
	}
	if got := record.ExtractFields(record.ObjectOf(a)); !reflect.DeepEqual(got, RequiredPaths()) {
		t.Errorf("template fields = %v", got)
	}

	a.SetPath("sleep.score", record.Number(99))
	b := Template()
	v, _ := record.ObjectOf(b).Lookup("sleep.score")
	if n, _ := v.AsNumber(); n != 0 {
		t.Errorf("second template sleep.score = %v, want 0", n)
	}
}

func TestIsValid(t *testing.T) {
	good := decode(t, validRecord)
	bad := decode(t, `{"date":"2024-01-02","sleep":{"score":"85"}}`)

	tests := []struct {
		name    string
		records []record.Value
		policy  Policy
		want    bool
	}{
		{"empty", nil, PolicyFirstRecord, false},
		{"single valid", []record.Value{good}, PolicyFirstRecord, true},
		{"first invalid", []record.Value{bad, good}, PolicyFirstRecord, false},
		{"later invalid sampled", []record.Value{good, bad}, PolicyFirstRecord, true},
		{"later invalid all", []record.Value{good, bad}, PolicyAllRecords, false},
		{"all valid", []record.Value{good, good}, PolicyAllRecords, true},
		{"not an object", []record.Value{record.Number(1)}, PolicyFirstRecord, false},
	}
	for _, tt := range tests {
		if got := IsValid(tt.records, tt.policy); got != tt.want {
			t.Errorf("%s: IsValid = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"valid", validRecord, nil},
		{"string leaf", `{"date":"x","sleep":{"score":"85","duration":1,"deep":1,"rem":1,"light":1,"hrv":1,"restingHeartRate":1},
			"activity":{"score":1,"steps":1,"calories":1,"activeCalories":1,"distance":1},
			"readiness":{"score":1,"hrv":1,"restingHeartRate":1,"bodyTemperature":1,"recoveryIndex":1}}`,
			[]string{"sleep.score"}},
		{"missing groups", `{"date":5}`, []string{"date", "sleep", "activity", "readiness"}},
		{"infinite", `{"date":"","sleep":{"score":1e999,"duration":1,"deep":1,"rem":1,"light":1,"hrv":1,"restingHeartRate":1},
			"activity":{"score":1,"steps":1,"calories":1,"activeCalories":1,"distance":1},
			"readiness":{"score":1,"hrv":1,"restingHeartRate":1,"bodyTemperature":1,"recoveryIndex":1}}`,
			[]string{"sleep.score"}},
	}
	for _, tt := range tests {
		var got []string
		for _, v := range Check(decode(t, tt.src)) {
			got = append(got, v.Path)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: violations = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestFromValues(t *testing.T) {
	recs, err := FromValues([]record.Value{decode(t, validRecord)})
	if err != nil {
		t.Fatalf("FromValues: %v", err)
	}
	r := recs[0]
	if r.Date != "2024-01-01" || r.Sleep.RestingHeartRate != 55 || r.Readiness.BodyTemperature != -0.2 {
		t.Errorf("record = %+v", r)
	}
	if n, ok := r.Number("activity.distance"); !ok || n != 6500 {
		t.Errorf("Number(activity.distance) = %v, %v", n, ok)
	}

	_, err = FromValues([]record.Value{decode(t, validRecord), decode(t, `{"date":"x"}`)})
	var ire *InvalidRecordError
	if !errors.As(err, &ire) {
		t.Fatalf("err = %v, want *InvalidRecordError", err)
	}
	if ire.Index != 1 {
		t.Errorf("Index = %d, want 1", ire.Index)
	}
}

func TestParsePolicy(t *testing.T) {
	for in, want := range map[string]Policy{"": PolicyFirstRecord, "first": PolicyFirstRecord, " ALL ": PolicyAllRecords} {
		got, err := ParsePolicy(in)
		if err != nil || got != want {
			t.Errorf("ParsePolicy(%q) = %v, %v, want %v", in, got, err, want)
		}
	}
	if _, err := ParsePolicy("some"); err == nil {
		t.Error("ParsePolicy(some): expected error")
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"sleep.restingHeartRate":  "Sleep › Resting Heart Rate",
		"date":                    "Date",
		"activity.activeCalories": "Activity › Active Calories",
	}
	for in, want := range tests {
		if got := DisplayName(in); got != want {
			t.Errorf("DisplayName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSortByDate(t *testing.T) {
	recs := []Record{
		{Date: "2024-03-01"},
		{Date: "not a date"},
		{Date: "2024-01-15", Sleep: Sleep{Score: 1}},
		{Date: ""},
		{Date: "2024-01-15", Sleep: Sleep{Score: 2}},
		{Date: "2023-12-31T23:00:00Z"},
	}
	SortByDate(recs)

	var got []string
	for _, r := range recs {
		got = append(got, r.Date)
	}
	want := []string{"2023-12-31T23:00:00Z", "2024-01-15", "2024-01-15", "2024-03-01", "", "not a date"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %q, want %q", got, want)
	}
	if recs[1].Sleep.Score != 1 || recs[2].Sleep.Score != 2 {
		t.Error("equal dates lost their input order")
	}
}

func TestDemo(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	recs := Demo(start, DemoDays)
	if len(recs) != DemoDays {
		t.Fatalf("records = %d, want %d", len(recs), DemoDays)
	}
	if recs[0].Date != "2024-01-01" || recs[DemoDays-1].Date != "2024-01-14" {
		t.Errorf("dates = %s..%s", recs[0].Date, recs[DemoDays-1].Date)
	}
	for _, r := range recs {
		if r.Sleep.Duration != r.Sleep.Deep+r.Sleep.REM+r.Sleep.Light {
			t.Errorf("%s: duration %v is not the sum of stages", r.Date, r.Sleep.Duration)
		}
		if r.Activity.Steps <= 0 || r.Sleep.Score <= 0 {
			t.Errorf("%s: implausible record %+v", r.Date, r)
		}
	}
	if again := Demo(start, DemoDays); !reflect.DeepEqual(again, recs) {
		t.Error("Demo is not deterministic")
	}
	if got := Demo(start, 0); len(got) != 0 || got == nil {
		t.Errorf("Demo(0) = %#v, want empty slice", got)
	}
}
