package schema

import (
	"math"
	"math/rand/v2"
	"time"
)

// DemoDays is the length of the sample dataset served when no length is given.
const DemoDays = 14

// Demo returns a deterministic sample of days consecutive canonical records
// starting at start, for trying the dashboard without a device export. The
// same arguments always give the same records.
func Demo(start time.Time, days int) []Record {
	if days <= 0 {
		return []Record{}
	}
	rng := rand.New(rand.NewPCG(uint64(start.Unix()), uint64(days)))
	jitter := func(base, spread float64) float64 {
		return math.Round(base + (rng.Float64()*2-1)*spread)
	}

	out := make([]Record, 0, days)
	for i := range days {
		day := start.AddDate(0, 0, i)
		deep, rem, light := jitter(85, 20), jitter(100, 20), jitter(230, 30)
		hrv, rhr := jitter(45, 8), jitter(56, 4)
		steps := jitter(8500, 3000)

		out = append(out, Record{
			Date: day.Format("2006-01-02"),
			Sleep: Sleep{
				Score:            jitter(80, 10),
				Duration:         deep + rem + light,
				Deep:             deep,
				REM:              rem,
				Light:            light,
				HRV:              hrv,
				RestingHeartRate: rhr,
			},
			Activity: Activity{
				Score:          jitter(78, 12),
				Steps:          steps,
				Calories:       jitter(2200, 250),
				ActiveCalories: jitter(500, 150),
				Distance:       math.Round(steps * 0.75),
			},
			Readiness: Readiness{
				Score:            jitter(76, 12),
				HRV:              hrv + jitter(0, 3),
				RestingHeartRate: rhr + jitter(0, 1),
				BodyTemperature:  math.Round((rng.Float64()-0.5)*8) / 10,
				RecoveryIndex:    jitter(70, 15),
			},
		})
	}
	return out
}
