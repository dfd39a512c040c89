package feed

import (
	"math"
	"math/rand"
	"time"

	"github.com/brynbeaudry/loserbot9000-sub002/market"
)

// SyntheticFeed generates a seeded random walk. The same seed always
// produces the same bars, which makes replays reproducible.
type SyntheticFeed struct {
	rng   *rand.Rand
	price float64
	next  time.Time
	step  time.Duration
	left  int
}

// NewSynthetic returns a feed of n bars starting at start, spaced step
// apart, walking from a price of 100.
func NewSynthetic(seed int64, n int, start time.Time, step time.Duration) *SyntheticFeed {
	if step <= 0 {
		step = time.Minute
	}
	return &SyntheticFeed{
		rng:   rand.New(rand.NewSource(seed)),
		price: 100,
		next:  start,
		step:  step,
		left:  n,
	}
}

func (s *SyntheticFeed) Next() (market.Candle, bool, error) {
	if s.left <= 0 {
		return market.Candle{}, false, nil
	}
	s.left--

	open := s.price
	cl := open + (s.rng.Float64()-0.5)*2
	high := math.Max(open, cl) + s.rng.Float64()*0.5
	low := math.Min(open, cl) - s.rng.Float64()*0.5
	candle := market.Candle{
		Open:   open,
		High:   high,
		Low:    low,
		Close:  cl,
		Time:   s.next,
		Volume: float64(100 + s.rng.Intn(900)),
	}

	s.price = cl
	s.next = s.next.Add(s.step)
	return candle, true, nil
}

func (s *SyntheticFeed) Close() error { return nil }
