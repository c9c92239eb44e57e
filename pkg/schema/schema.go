// CLAUDE:SUMMARY Canonical daily health record (sleep, activity, readiness), its 18 required field paths and zero-valued template.
package schema

import (
	"strings"
	"unicode"

	"github.com/hazyhaar/healthdash/pkg/record"
)

// Record is one day of wellness metrics in canonical form.
type Record struct {
	Date      string    `json:"date"`
	Sleep     Sleep     `json:"sleep"`
	Activity  Activity  `json:"activity"`
	Readiness Readiness `json:"readiness"`
}

// Sleep holds the night's metrics. Durations are minutes, HRV milliseconds.
type Sleep struct {
	Score            float64 `json:"score"`
	Duration         float64 `json:"duration"`
	Deep             float64 `json:"deep"`
	REM              float64 `json:"rem"`
	Light            float64 `json:"light"`
	HRV              float64 `json:"hrv"`
	RestingHeartRate float64 `json:"restingHeartRate"`
}

// Activity holds the day's movement metrics. Distance is meters.
type Activity struct {
	Score          float64 `json:"score"`
	Steps          float64 `json:"steps"`
	Calories       float64 `json:"calories"`
	ActiveCalories float64 `json:"activeCalories"`
	Distance       float64 `json:"distance"`
}

// Readiness holds recovery metrics. BodyTemperature is a signed deviation from baseline.
type Readiness struct {
	Score            float64 `json:"score"`
	HRV              float64 `json:"hrv"`
	RestingHeartRate float64 `json:"restingHeartRate"`
	BodyTemperature  float64 `json:"bodyTemperature"`
	RecoveryIndex    float64 `json:"recoveryIndex"`
}

// Kind is the value type a canonical leaf expects.
type Kind string

const (
	KindString Kind = "string"
	KindNumber Kind = "number"
)

// Top-level groups of the canonical record.
var groups = []string{"sleep", "activity", "readiness"}

var requiredPaths = []string{
	"date",
	"sleep.score",
	"sleep.duration",
	"sleep.deep",
	"sleep.rem",
	"sleep.light",
	"sleep.hrv",
	"sleep.restingHeartRate",
	"activity.score",
	"activity.steps",
	"activity.calories",
	"activity.activeCalories",
	"activity.distance",
	"readiness.score",
	"readiness.hrv",
	"readiness.restingHeartRate",
	"readiness.bodyTemperature",
	"readiness.recoveryIndex",
}

// RequiredPaths returns the 18 canonical field paths. The slice is a fresh copy.
func RequiredPaths() []string {
	return append([]string(nil), requiredPaths...)
}

// IsRequired reports whether path is one of the canonical field paths.
func IsRequired(path string) bool {
	for _, p := range requiredPaths {
		if p == path {
			return true
		}
	}
	return false
}

// KindOf returns the expected kind of a canonical leaf.
func KindOf(path string) (Kind, bool) {
	if !IsRequired(path) {
		return "", false
	}
	if path == "date" {
		return KindString, true
	}
	return KindNumber, true
}

// Template returns a new zero-valued canonical record: empty date, every numeric
// leaf 0. Each call builds a fresh object.
func Template() *record.Object {
	obj := record.NewObject()
	for _, p := range requiredPaths {
		if p == "date" {
			obj.SetPath(p, record.String(""))
			continue
		}
		obj.SetPath(p, record.Number(0))
	}
	return obj
}

// DisplayName renders a field path for people: "sleep.restingHeartRate" becomes
// "Sleep › Resting Heart Rate".
func DisplayName(path string) string {
	parts := strings.Split(path, record.PathSeparator)
	for i, part := range parts {
		if part == "" {
			continue
		}
		var b strings.Builder
		for j, r := range part {
			switch {
			case j == 0:
				b.WriteRune(unicode.ToUpper(r))
			case unicode.IsUpper(r):
				b.WriteByte(' ')
				b.WriteRune(r)
			default:
				b.WriteRune(r)
			}
		}
		parts[i] = b.String()
	}
	return strings.Join(parts, " › ")
}

var numberFields = map[string]func(*Record) *float64{
	"sleep.score":                func(r *Record) *float64 { return &r.Sleep.Score },
	"sleep.duration":             func(r *Record) *float64 { return &r.Sleep.Duration },
	"sleep.deep":                 func(r *Record) *float64 { return &r.Sleep.Deep },
	"sleep.rem":                  func(r *Record) *float64 { return &r.Sleep.REM },
	"sleep.light":                func(r *Record) *float64 { return &r.Sleep.Light },
	"sleep.hrv":                  func(r *Record) *float64 { return &r.Sleep.HRV },
	"sleep.restingHeartRate":     func(r *Record) *float64 { return &r.Sleep.RestingHeartRate },
	"activity.score":             func(r *Record) *float64 { return &r.Activity.Score },
	"activity.steps":             func(r *Record) *float64 { return &r.Activity.Steps },
	"activity.calories":          func(r *Record) *float64 { return &r.Activity.Calories },
	"activity.activeCalories":    func(r *Record) *float64 { return &r.Activity.ActiveCalories },
	"activity.distance":          func(r *Record) *float64 { return &r.Activity.Distance },
	"readiness.score":            func(r *Record) *float64 { return &r.Readiness.Score },
	"readiness.hrv":              func(r *Record) *float64 { return &r.Readiness.HRV },
	"readiness.restingHeartRate": func(r *Record) *float64 { return &r.Readiness.RestingHeartRate },
	"readiness.bodyTemperature":  func(r *Record) *float64 { return &r.Readiness.BodyTemperature },
	"readiness.recoveryIndex":    func(r *Record) *float64 { return &r.Readiness.RecoveryIndex },
}

// Number returns the numeric leaf at path ("sleep.hrv").
func (r Record) Number(path string) (float64, bool) {
	field, ok := numberFields[path]
	if !ok {
		return 0, false
	}
	return *field(&r), true
}
