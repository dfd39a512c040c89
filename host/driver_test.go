package host

import (
	"context"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brynbeaudry/loserbot9000-sub002/feed"
	"github.com/brynbeaudry/loserbot9000-sub002/indicators"
	"github.com/brynbeaudry/loserbot9000-sub002/journal"
	"github.com/brynbeaudry/loserbot9000-sub002/market"
)

var barEpoch = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

// risingBar builds bar i of a steadily rising market.
func risingBar(i int) market.Candle {
	return market.Candle{
		Open:   99.5 + float64(i),
		High:   100 + float64(i),
		Low:    99 + float64(i),
		Close:  99.5 + float64(i),
		Time:   barEpoch.Add(time.Duration(i) * time.Minute),
		Volume: 10,
	}
}

func risingBars(n int) []market.Candle {
	out := make([]market.Candle, n)
	for i := range out {
		out[i] = risingBar(i)
	}
	return out
}

func sameSeries(t *testing.T, want, got []float64) {
	t.Helper()
	require.Equal(t, len(want), len(got))
	for i := range want {
		if math.IsNaN(want[i]) {
			require.True(t, math.IsNaN(got[i]), "position %d: want NaN, got %v", i, got[i])
			continue
		}
		require.Equal(t, want[i], got[i], "position %d", i)
	}
}

func TestDriverBookkeeping(t *testing.T) {
	t.Parallel()

	d, err := NewDriver(indicators.DefaultADXConfig(), Options{})
	require.NoError(t, err)
	need := d.adx.MinBars()

	for i := 0; i < need-1; i++ {
		require.NoError(t, d.Append(risingBar(i)))
		assert.Equal(t, 0, d.Processed())
	}

	require.NoError(t, d.Append(risingBar(need-1)))
	assert.Equal(t, need, d.Processed())
	strength := d.Strength()
	require.Len(t, strength, need)
	assert.False(t, math.IsNaN(strength[need-1]))

	// Rewriting the forming bar keeps the totals in place.
	forming := risingBar(need - 1)
	forming.Close = forming.High
	require.NoError(t, d.UpdateForming(forming))
	assert.Equal(t, need, d.Bars())
	assert.Equal(t, need, d.Processed())

	require.NoError(t, d.Append(risingBar(need)))
	assert.Equal(t, need+1, d.Processed())
}

func TestDriverReplaceAndReset(t *testing.T) {
	t.Parallel()

	d, err := NewDriver(indicators.DefaultADXConfig(), Options{})
	require.NoError(t, err)

	require.NoError(t, d.ReplaceHistory(risingBars(40)))
	assert.Equal(t, 40, d.Bars())
	assert.Equal(t, 40, d.Processed())

	snap := d.Snapshot()
	require.NotNil(t, snap.LastStrength)
	assert.InDelta(t, 100, *snap.LastStrength, 1e-6)
	assert.Equal(t, risingBar(39).Time, snap.LastBarTime)
	assert.Equal(t, 1, snap.FullRecomputes)

	d.Reset()
	assert.Equal(t, 0, d.Bars())
	assert.Equal(t, 0, d.Processed())
	assert.Empty(t, d.Strength())
}

func TestDriverRejectsBadBar(t *testing.T) {
	t.Parallel()

	d, err := NewDriver(indicators.DefaultADXConfig(), Options{})
	require.NoError(t, err)

	bad := risingBar(0)
	bad.High, bad.Low = bad.Low, bad.High
	require.Error(t, d.Append(bad))
	assert.Equal(t, 0, d.Bars())
}

func TestDriverRingTrim(t *testing.T) {
	t.Parallel()

	d, err := NewDriver(indicators.DefaultADXConfig(), Options{MaxBars: 30})
	require.NoError(t, err)

	bars := risingBars(40)
	for _, c := range bars {
		require.NoError(t, d.Append(c))
	}
	assert.Equal(t, 30, d.Bars())
	assert.Equal(t, 30, d.Processed())

	// After a trim the pass runs full over the surviving window, so the
	// output matches a fresh driver loaded with the same 30 bars.
	fresh, err := NewDriver(indicators.DefaultADXConfig(), Options{})
	require.NoError(t, err)
	require.NoError(t, fresh.ReplaceHistory(bars[10:]))
	sameSeries(t, fresh.Strength(), d.Strength())
}

func TestDriverMaxBarsBelowMinimum(t *testing.T) {
	t.Parallel()

	_, err := NewDriver(indicators.DefaultADXConfig(), Options{MaxBars: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max bars")
}

func TestDriverRunRoutesByBarTime(t *testing.T) {
	t.Parallel()

	bars := risingBars(30)
	outOfOrder := risingBar(10)
	rewrite := risingBar(29)
	rewrite.Close = rewrite.High
	src := feed.NewSlice(append(append([]market.Candle{}, bars...), outOfOrder, rewrite, risingBar(30)))

	d, err := NewDriver(indicators.DefaultADXConfig(), Options{})
	require.NoError(t, err)
	require.NoError(t, d.Run(context.Background(), src))

	assert.Equal(t, 31, d.Bars())
	assert.Equal(t, 31, d.Processed())
}

func TestDriverRunJournals(t *testing.T) {
	t.Parallel()

	db := filepath.Join(t.TempDir(), "readings.db")
	j, err := journal.NewSQLite(db)
	require.NoError(t, err)
	defer j.Close()

	cfg := indicators.DefaultADXConfig()
	d, err := NewDriver(cfg, Options{
		Journal: j,
		RunInfo: RunInfo{Instrument: "EUR_USD", Timeframe: "1m", Source: "synthetic"},
	})
	require.NoError(t, err)

	src := feed.NewSynthetic(11, 60, barEpoch, time.Minute)
	require.NoError(t, d.Run(context.Background(), src))
	assert.Empty(t, d.RunID())

	run, err := j.LatestRun("EUR_USD")
	require.NoError(t, err)
	assert.Equal(t, "EUR_USD", run.Instrument)
	assert.Equal(t, cfg.Period, run.Period)
	assert.Equal(t, "synthetic", run.Source)
	assert.False(t, run.FinishedAt.IsZero())
	assert.Equal(t, 60, run.Bars)
	assert.Equal(t, 1, run.FullRecomputes)
	assert.Equal(t, 60-d.adx.MinBars(), run.IncrementalPasses)

	readings, err := j.RunReadings(run.ID)
	require.NoError(t, err)
	require.Len(t, readings, 60-d.adx.MinBars()+1)
	assert.Equal(t, d.adx.MinBars()-1, readings[0].Position)
	assert.Equal(t, 59, readings[len(readings)-1].Position)
	for _, r := range readings {
		assert.False(t, math.IsNaN(r.Strength))
	}
}

func TestDriverRunContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d, err := NewDriver(indicators.DefaultADXConfig(), Options{})
	require.NoError(t, err)
	err = d.Run(ctx, feed.NewSlice(risingBars(5)))
	require.ErrorIs(t, err, context.Canceled)
}

func TestDriverConcurrentReaders(t *testing.T) {
	t.Parallel()

	d, err := NewDriver(indicators.DefaultADXConfig(), Options{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	done := make(chan struct{})
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					_ = d.Strength()
					_ = d.Snapshot()
					_ = d.Bars()
				}
			}
		}()
	}
	for i := 0; i < 100; i++ {
		require.NoError(t, d.Append(risingBar(i)))
	}
	close(done)
	wg.Wait()

	assert.Equal(t, 100, d.Bars())
	assert.Equal(t, 100, d.Processed())
}
