package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mkCandle(i int, h, l, c float64) Candle {
	return Candle{
		Open:   c,
		High:   h,
		Low:    l,
		Close:  c,
		Time:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute),
		Volume: 100,
	}
}

func TestColumnsAligned(t *testing.T) {
	t.Parallel()

	candles := []Candle{
		mkCandle(0, 1.20, 1.10, 1.15),
		mkCandle(1, 1.25, 1.12, 1.22),
		mkCandle(2, 1.30, 1.18, 1.19),
	}

	highs, lows, closes := Columns(candles)

	require.Equal(t, []float64{1.20, 1.25, 1.30}, highs)
	require.Equal(t, []float64{1.10, 1.12, 1.18}, lows)
	require.Equal(t, []float64{1.15, 1.22, 1.19}, closes)
}

func TestSeriesAppendAndSetLast(t *testing.T) {
	t.Parallel()

	s := NewSeries(nil)
	require.Equal(t, 0, s.Len())

	// SetLast on an empty series must not panic.
	s.SetLast(mkCandle(0, 2, 1, 1.5))
	require.Equal(t, 0, s.Len())

	s.Append(mkCandle(0, 1.20, 1.10, 1.15))
	s.Append(mkCandle(1, 1.25, 1.12, 1.22))
	require.Equal(t, 2, s.Len())

	s.SetLast(mkCandle(1, 1.28, 1.12, 1.26))
	require.Equal(t, 2, s.Len())
	require.Equal(t, 1.28, s.Highs[1])
	require.Equal(t, 1.26, s.Closes[1])

	// First bar untouched.
	require.Equal(t, 1.20, s.Highs[0])
	require.Equal(t, 1.15, s.Closes[0])
}

func TestSeriesTrimFront(t *testing.T) {
	t.Parallel()

	candles := make([]Candle, 5)
	for i := range candles {
		candles[i] = mkCandle(i, float64(10+i), float64(5+i), float64(7+i))
	}
	s := NewSeries(candles)

	s.TrimFront(2)
	require.Equal(t, 3, s.Len())
	require.Equal(t, 12.0, s.Highs[0])
	require.Equal(t, candles[2].Time, s.Times[0])

	s.TrimFront(0)
	require.Equal(t, 3, s.Len())

	s.TrimFront(10)
	require.Equal(t, 0, s.Len())
}
