// CLAUDE:SUMMARY CSV export of canonical records with human-readable column headers.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/hazyhaar/healthdash/pkg/schema"
	"github.com/jszwec/csvutil"
)

// number prints without exponent so spreadsheets read plain decimals.
type number float64

func (n number) MarshalText() ([]byte, error) {
	return strconv.AppendFloat(nil, float64(n), 'f', -1, 64), nil
}

type csvRow struct {
	Date                      string `csv:"Date"`
	SleepScore                number `csv:"Sleep Score"`
	SleepDuration             number `csv:"Sleep Duration (min)"`
	SleepDeep                 number `csv:"Deep Sleep (min)"`
	SleepREM                  number `csv:"REM Sleep (min)"`
	SleepLight                number `csv:"Light Sleep (min)"`
	SleepHRV                  number `csv:"Sleep HRV"`
	SleepRestingHeartRate     number `csv:"Sleep Resting HR"`
	ActivityScore             number `csv:"Activity Score"`
	Steps                     number `csv:"Steps"`
	Calories                  number `csv:"Calories"`
	ActiveCalories            number `csv:"Active Calories"`
	Distance                  number `csv:"Distance (m)"`
	ReadinessScore            number `csv:"Readiness Score"`
	ReadinessHRV              number `csv:"Readiness HRV"`
	ReadinessRestingHeartRate number `csv:"Readiness Resting HR"`
	BodyTemperature           number `csv:"Body Temperature"`
	RecoveryIndex             number `csv:"Recovery Index"`
}

func rowOf(r schema.Record) csvRow {
	return csvRow{
		Date:                      r.Date,
		SleepScore:                number(r.Sleep.Score),
		SleepDuration:             number(r.Sleep.Duration),
		SleepDeep:                 number(r.Sleep.Deep),
		SleepREM:                  number(r.Sleep.REM),
		SleepLight:                number(r.Sleep.Light),
		SleepHRV:                  number(r.Sleep.HRV),
		SleepRestingHeartRate:     number(r.Sleep.RestingHeartRate),
		ActivityScore:             number(r.Activity.Score),
		Steps:                     number(r.Activity.Steps),
		Calories:                  number(r.Activity.Calories),
		ActiveCalories:            number(r.Activity.ActiveCalories),
		Distance:                  number(r.Activity.Distance),
		ReadinessScore:            number(r.Readiness.Score),
		ReadinessHRV:              number(r.Readiness.HRV),
		ReadinessRestingHeartRate: number(r.Readiness.RestingHeartRate),
		BodyTemperature:           number(r.Readiness.BodyTemperature),
		RecoveryIndex:             number(r.Readiness.RecoveryIndex),
	}
}

// Headers returns the column names written by WriteCSV, in order.
func Headers() ([]string, error) {
	return csvutil.Header(csvRow{}, "csv")
}

// WriteCSV writes a header line then one row per record. The header is
// written even when records is empty.
func WriteCSV(w io.Writer, records []schema.Record) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	enc.AutoHeader = false

	if err := enc.EncodeHeader(csvRow{}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range records {
		if err := enc.Encode(rowOf(r)); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
