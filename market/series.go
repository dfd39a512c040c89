package market

import "time"

// Series holds bar history as aligned column slices, oldest bar first.
// The last element is the forming bar until a newer bar is appended.
type Series struct {
	Times  []time.Time
	Highs  []float64
	Lows   []float64
	Closes []float64
}

// Columns extracts aligned high/low/close slices from candles, oldest first.
func Columns(candles []Candle) (highs, lows, closes []float64) {
	highs = make([]float64, len(candles))
	lows = make([]float64, len(candles))
	closes = make([]float64, len(candles))
	for i, c := range candles {
		highs[i] = c.High
		lows[i] = c.Low
		closes[i] = c.Close
	}
	return highs, lows, closes
}

func NewSeries(candles []Candle) *Series {
	s := &Series{Times: make([]time.Time, len(candles))}
	for i, c := range candles {
		s.Times[i] = c.Time
	}
	s.Highs, s.Lows, s.Closes = Columns(candles)
	return s
}

func (s *Series) Len() int {
	return len(s.Closes)
}

// Append pushes one bar onto the end of every column.
func (s *Series) Append(c Candle) {
	s.Times = append(s.Times, c.Time)
	s.Highs = append(s.Highs, c.High)
	s.Lows = append(s.Lows, c.Low)
	s.Closes = append(s.Closes, c.Close)
}

// SetLast overwrites the forming bar in place. No-op on an empty series.
func (s *Series) SetLast(c Candle) {
	n := s.Len()
	if n == 0 {
		return
	}
	s.Times[n-1] = c.Time
	s.Highs[n-1] = c.High
	s.Lows[n-1] = c.Low
	s.Closes[n-1] = c.Close
}

// TrimFront drops the n oldest bars. Trimming more than Len empties the series.
func (s *Series) TrimFront(n int) {
	if n <= 0 {
		return
	}
	if n >= s.Len() {
		s.Times = s.Times[:0]
		s.Highs = s.Highs[:0]
		s.Lows = s.Lows[:0]
		s.Closes = s.Closes[:0]
		return
	}
	s.Times = append(s.Times[:0], s.Times[n:]...)
	s.Highs = append(s.Highs[:0], s.Highs[n:]...)
	s.Lows = append(s.Lows[:0], s.Lows[n:]...)
	s.Closes = append(s.Closes[:0], s.Closes[n:]...)
}
