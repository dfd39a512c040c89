package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCandleValidate(t *testing.T) {
	t.Parallel()

	base := Candle{
		Open:   1.1000,
		High:   1.1050,
		Low:    1.0950,
		Close:  1.1020,
		Time:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Volume: 1500,
	}
	require.NoError(t, base.Validate())

	cases := []struct {
		name string
		mut  func(c *Candle)
	}{
		{"zero time", func(c *Candle) { c.Time = time.Time{} }},
		{"high below low", func(c *Candle) { c.High, c.Low = c.Low, c.High }},
		{"open above high", func(c *Candle) { c.Open = c.High + 0.01 }},
		{"open below low", func(c *Candle) { c.Open = c.Low - 0.01 }},
		{"close above high", func(c *Candle) { c.Close = c.High + 0.01 }},
		{"close below low", func(c *Candle) { c.Close = c.Low - 0.01 }},
		{"negative volume", func(c *Candle) { c.Volume = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := base
			tc.mut(&c)
			require.Error(t, c.Validate())
		})
	}
}
