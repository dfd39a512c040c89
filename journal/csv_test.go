package journal

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, path string) [][]string {
	t.Helper()

	fh, err := os.Open(path)
	require.NoError(t, err)
	defer fh.Close()

	rows, err := csv.NewReader(fh).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVJournal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	runsPath := filepath.Join(dir, "runs.csv")
	readingsPath := filepath.Join(dir, "readings.csv")

	j, err := NewCSV(runsPath, readingsPath)
	require.NoError(t, err)

	started := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	run := testRun(started)
	require.NoError(t, j.StartRun(run))

	barTime := started.Add(28 * time.Minute)
	require.NoError(t, j.RecordReadings([]Reading{
		{RunID: run.ID, Position: 28, BarTime: barTime, Strength: 17.5, Level: 20},
		{RunID: run.ID, Position: 29, BarTime: barTime.Add(time.Minute), Strength: 18.25, Level: math.NaN()},
	}))

	run.FinishedAt = started.Add(time.Hour)
	run.Bars = 88
	run.FullRecomputes = 1
	run.IncrementalPasses = 59
	require.NoError(t, j.FinishRun(run))
	require.NoError(t, j.Close())

	runRows := readAll(t, runsPath)
	require.Len(t, runRows, 2, "header plus one finished run")
	assert.Equal(t, "run_id", runRows[0][0])
	assert.Equal(t, run.ID, runRows[1][0])
	assert.Equal(t, "EUR_USD", runRows[1][1])
	assert.Equal(t, "14", runRows[1][3])
	assert.Equal(t, started.Format(time.RFC3339), runRows[1][7])
	assert.Equal(t, "88", runRows[1][9])

	readingRows := readAll(t, readingsPath)
	require.Len(t, readingRows, 3)
	assert.Equal(t, []string{"run_id", "position", "bar_time", "strength", "level"}, readingRows[0])
	assert.Equal(t, "28", readingRows[1][1])
	assert.Equal(t, "17.500000", readingRows[1][3])
	assert.Equal(t, "20.000000", readingRows[1][4])
	assert.Equal(t, "NaN", readingRows[2][4])
}
