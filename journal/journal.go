// journal/journal.go
package journal

import "time"

// Run describes one indicator session: the configuration it ran with and
// the pass counters accumulated while it was live.
type Run struct {
	ID           string
	Instrument   string
	Timeframe    string
	Period       int
	SmoothPeriod int
	Threshold    float64
	Source       string
	StartedAt    time.Time
	FinishedAt   time.Time

	Bars              int
	FullRecomputes    int
	IncrementalPasses int
}

// Reading is one computed output position of a run.
type Reading struct {
	RunID    string
	Position int
	BarTime  time.Time
	Strength float64
	Level    float64
}

type Journal interface {
	StartRun(Run) error
	FinishRun(Run) error
	RecordReadings([]Reading) error
	Close() error
}
