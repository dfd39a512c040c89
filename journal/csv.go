// journal/csv.go
package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

// CSVJournal writes one runs file and one readings file. Rows are append
// only: the run row is written when the run finishes, readings as they are
// recorded.
type CSVJournal struct {
	runs     *csv.Writer
	readings *csv.Writer
	rf, df   *os.File
}

func NewCSV(runsPath, readingsPath string) (*CSVJournal, error) {
	rf, err := os.Create(runsPath)
	if err != nil {
		return nil, err
	}
	df, err := os.Create(readingsPath)
	if err != nil {
		return nil, err
	}

	rw := csv.NewWriter(rf)
	dw := csv.NewWriter(df)

	if err := rw.Write([]string{"run_id", "instrument", "timeframe", "period", "smooth_period", "threshold", "source", "started_at", "finished_at", "bars", "full_recomputes", "incremental_passes"}); err != nil {
		return nil, err
	}
	if err := dw.Write([]string{"run_id", "position", "bar_time", "strength", "level"}); err != nil {
		return nil, err
	}

	rw.Flush()
	if err := rw.Error(); err != nil {
		return nil, err
	}
	dw.Flush()
	if err := dw.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{rw, dw, rf, df}, nil
}

// StartRun is a no-op for CSV output; the complete row is written by
// FinishRun.
func (j *CSVJournal) StartRun(Run) error {
	return nil
}

func (j *CSVJournal) FinishRun(r Run) error {
	err := j.runs.Write([]string{
		r.ID,
		r.Instrument,
		r.Timeframe,
		strconv.Itoa(r.Period),
		strconv.Itoa(r.SmoothPeriod),
		f(r.Threshold),
		r.Source,
		r.StartedAt.Format(time.RFC3339),
		r.FinishedAt.Format(time.RFC3339),
		strconv.Itoa(r.Bars),
		strconv.Itoa(r.FullRecomputes),
		strconv.Itoa(r.IncrementalPasses),
	})
	if err != nil {
		return err
	}

	j.runs.Flush()
	return j.runs.Error()
}

func (j *CSVJournal) RecordReadings(rs []Reading) error {
	for _, r := range rs {
		err := j.readings.Write([]string{
			r.RunID,
			strconv.Itoa(r.Position),
			r.BarTime.Format(time.RFC3339),
			f(r.Strength),
			f(r.Level),
		})
		if err != nil {
			return err
		}
	}

	j.readings.Flush()
	return j.readings.Error()
}

func (j *CSVJournal) Close() error {
	j.runs.Flush()
	if err := j.runs.Error(); err != nil {
		return err
	}
	j.readings.Flush()
	if err := j.readings.Error(); err != nil {
		return err
	}

	if err := j.rf.Close(); err != nil {
		return err
	}
	if err := j.df.Close(); err != nil {
		return err
	}
	return nil
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
