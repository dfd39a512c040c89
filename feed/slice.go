package feed

import "github.com/brynbeaudry/loserbot9000-sub002/market"

// Slice replays an in-memory set of bars, oldest first.
type Slice struct {
	bars []market.Candle
	i    int
}

func NewSlice(bars []market.Candle) *Slice {
	return &Slice{bars: bars}
}

func (s *Slice) Next() (market.Candle, bool, error) {
	if s.i >= len(s.bars) {
		return market.Candle{}, false, nil
	}
	c := s.bars[s.i]
	s.i++
	return c, true, nil
}

func (s *Slice) Close() error { return nil }
