// Package feed supplies bar streams to the host driver.
package feed

import "github.com/brynbeaudry/loserbot9000-sub002/market"

// CandleFeed yields bars oldest first. Next returns ok=false on a clean
// end of stream. A feed may emit the same bar time more than once while
// that bar is still forming; consumers decide how to fold repeats in.
type CandleFeed interface {
	Next() (market.Candle, bool, error)
	Close() error
}
