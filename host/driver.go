// Package host drives the indicator engine: it owns the bar history,
// keeps the processed-bar bookkeeping between calls, and wires in
// logging, metrics, and the journal.
package host

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/brynbeaudry/loserbot9000-sub002/feed"
	"github.com/brynbeaudry/loserbot9000-sub002/indicators"
	"github.com/brynbeaudry/loserbot9000-sub002/journal"
	"github.com/brynbeaudry/loserbot9000-sub002/market"
	"github.com/brynbeaudry/loserbot9000-sub002/pkg/id"
)

// RunInfo labels journal entries written while Run consumes a feed.
type RunInfo struct {
	Instrument string
	Timeframe  string
	Source     string
}

// Options carries the optional collaborators of a Driver. The zero
// value gives a bare driver with a nop logger, no metrics, no journal,
// and unbounded history.
type Options struct {
	Logger  *zap.Logger
	Metrics *Metrics
	Journal journal.Journal
	Health  *Health
	MaxBars int
	RunInfo RunInfo
}

// Driver feeds growing bar history to the engine. It is the only
// writer of the history it owns, and it serializes engine calls behind
// its mutex. After each successful recalculation it records the bar
// total, so the next call recomputes only the new portion; anything
// that invalidates history (replace, reset, ring trim) zeroes the
// count and forces the next pass to run full.
type Driver struct {
	mu        sync.Mutex
	adx       *indicators.ADX
	series    *market.Series
	processed int
	maxBars   int
	lastMode  indicators.Mode

	log     *zap.Logger
	metrics *Metrics
	journal journal.Journal
	health  *Health
	info    RunInfo

	runID             string
	startedAt         time.Time
	fullRecomputes    int
	incrementalPasses int
}

// NewDriver builds a driver around a fresh engine.
func NewDriver(cfg indicators.ADXConfig, opts Options) (*Driver, error) {
	adx, err := indicators.NewADX(cfg)
	if err != nil {
		return nil, err
	}
	if opts.MaxBars > 0 && opts.MaxBars < adx.MinBars() {
		return nil, fmt.Errorf("host: max bars %d is below the %d bars the engine needs", opts.MaxBars, adx.MinBars())
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Driver{
		adx:      adx,
		series:   &market.Series{},
		maxBars:  opts.MaxBars,
		lastMode: indicators.Mode(-1),
		log:      log,
		metrics:  opts.Metrics,
		journal:  opts.Journal,
		health:   opts.Health,
		info:     opts.RunInfo,
	}, nil
}

// Append adds a newly closed bar and recalculates.
func (d *Driver) Append(c market.Candle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.append(c)
}

// UpdateForming overwrites the newest bar while it is still forming
// and recalculates. On an empty driver it behaves like Append.
func (d *Driver) UpdateForming(c market.Candle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updateForming(c)
}

// ReplaceHistory swaps in a bulk history and recalculates from
// scratch.
func (d *Driver) ReplaceHistory(candles []market.Candle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, c := range candles {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("bar %d: %w", i, err)
		}
	}
	d.series = market.NewSeries(candles)
	d.processed = 0
	d.trim()
	return d.recalc()
}

// Reset drops history and engine state. The next recalculation runs
// full.
func (d *Driver) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.adx.Reset()
	d.series = &market.Series{}
	d.processed = 0
	d.lastMode = indicators.Mode(-1)
}

// Run consumes a feed until it ends or ctx is cancelled, routing each
// bar by time: newer than the newest known bar appends, the same time
// updates the forming bar, older bars are dropped. When a journal is
// configured the whole consumption is recorded as one run.
func (d *Driver) Run(ctx context.Context, src feed.CandleFeed) error {
	d.startRun()
	defer d.finishRun()
	if d.health != nil {
		d.health.SetFeedConnected(true)
		defer d.health.SetFeedConnected(false)
	}
	for {
		c, ok, err := src.Next()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return fmt.Errorf("feed: %w", err)
		}
		if !ok {
			return nil
		}
		if err := d.apply(c); err != nil {
			return err
		}
	}
}

func (d *Driver) apply(c market.Candle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := d.series.Len()
	switch {
	case n == 0 || c.Time.After(d.series.Times[n-1]):
		return d.append(c)
	case c.Time.Equal(d.series.Times[n-1]):
		return d.updateForming(c)
	default:
		d.log.Warn("out of order bar dropped",
			zap.Time("bar", c.Time),
			zap.Time("newest", d.series.Times[n-1]))
		return nil
	}
}

func (d *Driver) append(c market.Candle) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("append bar: %w", err)
	}
	d.series.Append(c)
	d.trim()
	return d.recalc()
}

func (d *Driver) updateForming(c market.Candle) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("update forming bar: %w", err)
	}
	if d.series.Len() == 0 {
		d.series.Append(c)
	} else {
		d.series.SetLast(c)
	}
	return d.recalc()
}

// trim enforces the ring bound. Dropping old bars shifts positions, so
// the processed count is zeroed and the next pass runs full.
func (d *Driver) trim() {
	if d.maxBars <= 0 || d.series.Len() <= d.maxBars {
		return
	}
	drop := d.series.Len() - d.maxBars
	d.series.TrimFront(drop)
	d.processed = 0
	d.log.Info("history trimmed", zap.Int("dropped", drop), zap.Int("bars", d.series.Len()))
}

func (d *Driver) recalc() error {
	total := d.series.Len()
	mode := indicators.ResolveMode(d.processed, total)
	prev := d.processed

	began := time.Now()
	out, err := d.adx.Recalculate(prev, total, d.series.Highs, d.series.Lows, d.series.Closes)
	if err != nil {
		if errors.Is(err, indicators.ErrInsufficientHistory) {
			d.processed = 0
			if d.metrics != nil {
				d.metrics.InsufficientHistory.Inc()
			}
			d.log.Debug("not enough history yet",
				zap.Int("bars", total),
				zap.Int("need", d.adx.MinBars()))
			return nil
		}
		return err
	}
	elapsed := time.Since(began)

	if mode != d.lastMode {
		d.log.Info("recalculation mode", zap.Stringer("mode", mode), zap.Int("bars", total))
		d.lastMode = mode
	}

	recomputed := total
	if mode == indicators.IncrementalAppend {
		recomputed = total - prev + 1
		d.incrementalPasses++
	} else {
		d.fullRecomputes++
	}

	if d.metrics != nil {
		d.metrics.RecalcsTotal.WithLabelValues(mode.String()).Inc()
		d.metrics.BarsRecomputed.Add(float64(recomputed))
		d.metrics.RecalcDur.Observe(elapsed.Seconds())
		d.metrics.BarsTotal.Set(float64(total))
		if last := out[total-1]; !math.IsNaN(last) {
			d.metrics.LastStrength.Set(last)
		}
	}
	if d.health != nil {
		d.health.Observe(total, d.series.Times[total-1])
	}
	if d.journal != nil && d.runID != "" {
		lo := 0
		if mode == indicators.IncrementalAppend {
			lo = prev - 1
		}
		if readings := d.readingsFrom(lo, out); len(readings) > 0 {
			if err := d.journal.RecordReadings(readings); err != nil {
				d.log.Warn("journal readings", zap.Error(err))
			}
		}
	}

	d.processed = total
	return nil
}

// readingsFrom collects defined readings at positions lo and newer.
func (d *Driver) readingsFrom(lo int, strength []float64) []journal.Reading {
	if lo < 0 {
		lo = 0
	}
	level := d.adx.Level()
	var out []journal.Reading
	for i := lo; i < len(strength); i++ {
		if math.IsNaN(strength[i]) {
			continue
		}
		out = append(out, journal.Reading{
			RunID:    d.runID,
			Position: i,
			BarTime:  d.series.Times[i],
			Strength: strength[i],
			Level:    level[i],
		})
	}
	return out
}

func (d *Driver) startRun() {
	if d.journal == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	cfg := d.adx.Config()
	d.runID = id.New()
	d.startedAt = time.Now().UTC()
	d.fullRecomputes, d.incrementalPasses = 0, 0
	run := journal.Run{
		ID:           d.runID,
		Instrument:   d.info.Instrument,
		Timeframe:    d.info.Timeframe,
		Period:       cfg.Period,
		SmoothPeriod: cfg.SmoothPeriod,
		Threshold:    cfg.ThresholdLevel,
		Source:       d.info.Source,
		StartedAt:    d.startedAt,
	}
	if err := d.journal.StartRun(run); err != nil {
		d.log.Warn("journal start", zap.Error(err))
		d.runID = ""
	}
}

func (d *Driver) finishRun() {
	if d.journal == nil || d.runID == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	cfg := d.adx.Config()
	run := journal.Run{
		ID:                d.runID,
		Instrument:        d.info.Instrument,
		Timeframe:         d.info.Timeframe,
		Period:            cfg.Period,
		SmoothPeriod:      cfg.SmoothPeriod,
		Threshold:         cfg.ThresholdLevel,
		Source:            d.info.Source,
		StartedAt:         d.startedAt,
		FinishedAt:        time.Now().UTC(),
		Bars:              d.series.Len(),
		FullRecomputes:    d.fullRecomputes,
		IncrementalPasses: d.incrementalPasses,
	}
	if err := d.journal.FinishRun(run); err != nil {
		d.log.Warn("journal finish", zap.Error(err))
	}
	d.runID = ""
}

// Strength returns a copy of the strength series.
func (d *Driver) Strength() []float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return copyFloats(d.adx.Strength())
}

// Level returns a copy of the threshold series.
func (d *Driver) Level() []float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return copyFloats(d.adx.Level())
}

// Bars returns the number of bars held.
func (d *Driver) Bars() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.series.Len()
}

// Processed returns the bar count reported to the next engine call.
func (d *Driver) Processed() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.processed
}

// RunID returns the journal run in progress, if any.
func (d *Driver) RunID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.runID
}

// Snapshot reports driver state for health endpoints and CLI output.
type Snapshot struct {
	Bars              int       `json:"bars"`
	Processed         int       `json:"processed"`
	LastBarTime       time.Time `json:"last_bar_time"`
	LastStrength      *float64  `json:"last_strength,omitempty"`
	FullRecomputes    int       `json:"full_recomputes"`
	IncrementalPasses int       `json:"incremental_passes"`
}

func (d *Driver) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	snap := Snapshot{
		Bars:              d.series.Len(),
		Processed:         d.processed,
		FullRecomputes:    d.fullRecomputes,
		IncrementalPasses: d.incrementalPasses,
	}
	if n := d.series.Len(); n > 0 {
		snap.LastBarTime = d.series.Times[n-1]
	}
	if s := d.adx.Strength(); len(s) > 0 && !math.IsNaN(s[len(s)-1]) {
		last := s[len(s)-1]
		snap.LastStrength = &last
	}
	return snap
}

func copyFloats(src []float64) []float64 {
	out := make([]float64, len(src))
	copy(out, src)
	return out
}
