package market

import (
	"fmt"
	"time"
)

// Candle represents OHLC (Open, High, Low, Close) candlestick data
type Candle struct {
	Open   float64
	High   float64
	Low    float64
	Close  float64
	time.Time
	Volume float64
}

// Validate reports whether the candle is internally consistent: high bounds
// low, open and close sit inside the range, volume is non-negative, and the
// timestamp is set.
func (c Candle) Validate() error {
	if c.Time.IsZero() {
		return fmt.Errorf("candle time is zero")
	}
	if c.High < c.Low {
		return fmt.Errorf("candle high %.6f below low %.6f", c.High, c.Low)
	}
	if c.Open > c.High || c.Open < c.Low {
		return fmt.Errorf("candle open %.6f outside range [%.6f, %.6f]", c.Open, c.Low, c.High)
	}
	if c.Close > c.High || c.Close < c.Low {
		return fmt.Errorf("candle close %.6f outside range [%.6f, %.6f]", c.Close, c.Low, c.High)
	}
	if c.Volume < 0 {
		return fmt.Errorf("candle volume %.6f is negative", c.Volume)
	}
	return nil
}
