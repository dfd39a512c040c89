package journal

import (
	"database/sql"
	"math"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brynbeaudry/loserbot9000-sub002/pkg/id"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	j, err := NewSQLite(path)
	assert.NoError(t, err)

	return j, path
}

func testRun(started time.Time) Run {
	return Run{
		ID:           id.New(),
		Instrument:   "EUR_USD",
		Timeframe:    "1m",
		Period:       14,
		SmoothPeriod: 14,
		Threshold:    20,
		Source:       "csv:testdata/bars.csv",
		StartedAt:    started,
	}
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	assert.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	assert.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('runs','readings')`)
	assert.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		assert.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	assert.NoError(t, rows.Err())

	assert.True(t, found["runs"])
	assert.True(t, found["readings"])
}

func TestSQLiteRunLifecycle(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	started := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	run := testRun(started)

	require.NoError(t, j.StartRun(run))

	// Before the run finishes the row has no finish time or counters.
	got, err := j.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, run.Instrument, got.Instrument)
	assert.Equal(t, run.Period, got.Period)
	assert.True(t, got.FinishedAt.IsZero())
	assert.Equal(t, 0, got.Bars)

	run.FinishedAt = started.Add(time.Hour)
	run.Bars = 480
	run.FullRecomputes = 2
	run.IncrementalPasses = 478
	require.NoError(t, j.FinishRun(run))

	got, err = j.GetRun(run.ID)
	require.NoError(t, err)
	assert.True(t, got.FinishedAt.Equal(run.FinishedAt))
	assert.Equal(t, 480, got.Bars)
	assert.Equal(t, 2, got.FullRecomputes)
	assert.Equal(t, 478, got.IncrementalPasses)

	err = j.FinishRun(Run{ID: "01JUNKJUNKJUNKJUNKJUNKJUNK"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLiteRecordReadings(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	run := testRun(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, j.StartRun(run))

	barTime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	batch := []Reading{
		{RunID: run.ID, Position: 28, BarTime: barTime, Strength: 31.25, Level: 20},
		{RunID: run.ID, Position: 29, BarTime: barTime.Add(time.Minute), Strength: 33.5, Level: math.NaN()},
	}
	require.NoError(t, j.RecordReadings(batch))

	got, err := j.RunReadings(run.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 28, got[0].Position)
	assert.InDelta(t, 31.25, got[0].Strength, 1e-9)
	assert.InDelta(t, 20.0, got[0].Level, 1e-9)
	assert.True(t, got[0].BarTime.Equal(barTime))
	assert.True(t, math.IsNaN(got[1].Level), "NULL level should come back as NaN")

	// Re-flushing a position overwrites the earlier value.
	batch[0].Strength = 40
	require.NoError(t, j.RecordReadings(batch[:1]))

	got, err = j.RunReadings(run.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.InDelta(t, 40.0, got[0].Strength, 1e-9)

	// Time bounds are half-open: [start, end).
	got, err = j.ReadingsBetween(run.ID, barTime, barTime.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 28, got[0].Position)

	got, err = j.ReadingsBetween(run.ID, barTime, barTime.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Len(t, got, 2)

	require.NoError(t, j.RecordReadings(nil))
}

func TestSQLiteQueries(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	var runs []Run
	for i := 0; i < 3; i++ {
		r := testRun(base.Add(time.Duration(i) * time.Hour))
		require.NoError(t, j.StartRun(r))
		runs = append(runs, r)
	}

	// ULIDs sort by mint time, so the last started run is the latest.
	latest, err := j.LatestRun("")
	require.NoError(t, err)
	assert.Equal(t, runs[2].ID, latest.ID)

	latest, err = j.LatestRun(runs[0].Instrument)
	require.NoError(t, err)
	assert.Equal(t, runs[2].ID, latest.ID)

	_, err = j.LatestRun("XXX_YYY")
	require.Error(t, err)

	listed, err := j.ListRuns(2)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, runs[2].ID, listed[0].ID)
	assert.Equal(t, runs[1].ID, listed[1].ID)

	listed, err = j.ListRuns(0)
	require.NoError(t, err)
	assert.Len(t, listed, 3)

	_, err = j.GetRun("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
