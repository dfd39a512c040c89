package journal

import (
	"database/sql"
	"fmt"
	"math"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) StartRun(r Run) error {
	_, err := j.db.Exec(`
		INSERT INTO runs
		(run_id, instrument, timeframe, period, smooth_period, threshold, source, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Instrument, r.Timeframe, r.Period, r.SmoothPeriod,
		r.Threshold, r.Source, r.StartedAt,
	)
	return err
}

func (j *SQLite) FinishRun(r Run) error {
	res, err := j.db.Exec(`
		UPDATE runs
		SET finished_at = ?, bars = ?, full_recomputes = ?, incremental_passes = ?
		WHERE run_id = ?`,
		r.FinishedAt, r.Bars, r.FullRecomputes, r.IncrementalPasses, r.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %q not found", r.ID)
	}
	return nil
}

// RecordReadings upserts a batch in one transaction. Re-flushing the same
// positions after further passes overwrites the earlier values.
func (j *SQLite) RecordReadings(rs []Reading) error {
	if len(rs) == 0 {
		return nil
	}

	tx, err := j.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO readings
		(run_id, position, bar_time, strength, level)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, r := range rs {
		if _, err := stmt.Exec(r.RunID, r.Position, r.BarTime, r.Strength, nullable(r.Level)); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

// nullable maps NaN to NULL, since SQLite has no NaN representation.
func nullable(x float64) any {
	if math.IsNaN(x) {
		return nil
	}
	return x
}
