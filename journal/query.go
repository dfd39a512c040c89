package journal

import (
	"database/sql"
	"fmt"
	"math"
	"time"
)

const runColumns = `run_id, instrument, timeframe, period, smooth_period, threshold, source,
	started_at, finished_at, bars, full_recomputes, incremental_passes`

// GetRun returns a single run by ID.
func (j *SQLite) GetRun(runID string) (Run, error) {
	row := j.db.QueryRow(`
		SELECT `+runColumns+`
		FROM runs
		WHERE run_id = ?`, runID)

	r, err := scanRun(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return Run{}, fmt.Errorf("run %q not found", runID)
		}
		return Run{}, err
	}
	return r, nil
}

// LatestRun returns the most recently started run, optionally filtered
// by instrument. Run IDs are ULIDs, so the lexicographically largest ID
// is the newest.
func (j *SQLite) LatestRun(instrument string) (Run, error) {
	query := `
		SELECT ` + runColumns + `
		FROM runs`
	args := []any{}
	if instrument != "" {
		query += ` WHERE instrument = ?`
		args = append(args, instrument)
	}
	query += `
		ORDER BY run_id DESC
		LIMIT 1`

	r, err := scanRun(j.db.QueryRow(query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return Run{}, fmt.Errorf("no runs recorded")
		}
		return Run{}, err
	}
	return r, nil
}

// ListRuns returns runs newest first, at most limit of them. A non-positive
// limit returns everything.
func (j *SQLite) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := j.db.Query(`
		SELECT `+runColumns+`
		FROM runs
		ORDER BY run_id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// RunReadings returns the readings of a run ordered by position.
func (j *SQLite) RunReadings(runID string) ([]Reading, error) {
	return j.scanReadings(j.db.Query(`
		SELECT run_id, position, bar_time, strength, level
		FROM readings
		WHERE run_id = ?
		ORDER BY position ASC`, runID))
}

// ReadingsBetween returns the readings of a run whose bar time is within
// [start, end), ordered by position.
func (j *SQLite) ReadingsBetween(runID string, start, end time.Time) ([]Reading, error) {
	return j.scanReadings(j.db.Query(`
		SELECT run_id, position, bar_time, strength, level
		FROM readings
		WHERE run_id = ? AND bar_time >= ? AND bar_time < ?
		ORDER BY position ASC`, runID, start, end))
}

func (j *SQLite) scanReadings(rows *sql.Rows, err error) ([]Reading, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Reading
	for rows.Next() {
		var (
			rec   Reading
			level sql.NullFloat64
		)
		if err := rows.Scan(&rec.RunID, &rec.Position, &rec.BarTime, &rec.Strength, &level); err != nil {
			return nil, err
		}
		if level.Valid {
			rec.Level = level.Float64
		} else {
			rec.Level = math.NaN()
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		r        Run
		finished sql.NullTime
	)
	err := row.Scan(
		&r.ID,
		&r.Instrument,
		&r.Timeframe,
		&r.Period,
		&r.SmoothPeriod,
		&r.Threshold,
		&r.Source,
		&r.StartedAt,
		&finished,
		&r.Bars,
		&r.FullRecomputes,
		&r.IncrementalPasses,
	)
	if err != nil {
		return Run{}, err
	}
	if finished.Valid {
		r.FinishedAt = finished.Time
	}
	return r, nil
}
