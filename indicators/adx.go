package indicators

import (
	"errors"
	"fmt"
	"math"
)

// ErrInsufficientHistory is returned by Recalculate when fewer bars are
// available than the configured lookback needs. It is informational; the
// caller is expected to retry once more bars have accumulated.
var ErrInsufficientHistory = errors.New("adx: insufficient history")

// ADXConfig holds the immutable calculation parameters.
type ADXConfig struct {
	// Period is the Wilder smoothing window for true range and
	// directional movement.
	Period int
	// SmoothPeriod is the second smoothing window that turns DX into the
	// strength value.
	SmoothPeriod int
	// ThresholdLevel is the constant reference level replicated across
	// the companion series.
	ThresholdLevel float64
}

func DefaultADXConfig() ADXConfig {
	return ADXConfig{
		Period:         14,
		SmoothPeriod:   14,
		ThresholdLevel: 20,
	}
}

func (c ADXConfig) Validate() error {
	if c.Period < 1 {
		return fmt.Errorf("adx: period must be >= 1, got %d", c.Period)
	}
	if c.SmoothPeriod < 1 {
		return fmt.Errorf("adx: smooth period must be >= 1, got %d", c.SmoothPeriod)
	}
	if c.ThresholdLevel < 0 || c.ThresholdLevel > 100 {
		return fmt.Errorf("adx: threshold level must be within [0, 100], got %g", c.ThresholdLevel)
	}
	return nil
}

// ADX computes Wilder's Average Directional Index over bar history held by
// the caller.
//
// Usage:
//
//	adx, _ := indicators.NewADX(indicators.DefaultADXConfig())
//	strength, err := adx.Recalculate(processed, len(closes), highs, lows, closes)
//
// The caller passes the count of bars processed by its previous call, or 0
// to force a rebuild. Columns are ordered oldest bar first; the last element
// is the newest (possibly still forming) bar. Positions without enough
// lookback hold NaN. The returned slice aliases engine state and is valid
// until the next call.
//
// All series the engine owns double as memoized history: an incremental
// pass continues the smoothing recurrences from the previous frontier and
// never touches positions older than it.
type ADX struct {
	cfg ADXConfig

	// output series
	strength []float64
	level    []float64

	// smoothed working series
	smTR      []float64
	smPlusDM  []float64
	smMinusDM []float64
	dx        []float64
}

func NewADX(cfg ADXConfig) (*ADX, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &ADX{cfg: cfg}, nil
}

func (a *ADX) Config() ADXConfig { return a.cfg }
func (a *ADX) Len() int          { return len(a.strength) }

// MinBars is the fewest bars a Recalculate pass will accept.
func (a *ADX) MinBars() int { return a.cfg.Period + a.cfg.SmoothPeriod }

// Strength returns the smoothed oscillator series. The caller must treat
// it as read-only.
func (a *ADX) Strength() []float64 { return a.strength }

// Level returns the threshold companion series. The caller must treat it
// as read-only.
func (a *ADX) Level() []float64 { return a.level }

// Reset drops all memoized series. The next Recalculate runs full.
func (a *ADX) Reset() {
	*a = ADX{cfg: a.cfg}
}

// Recalculate brings the output series up to date with the given columns.
//
// prevCalculated is the totalBars value of the previous successful call, or
// zero when no prior pass is valid. totalBars must match the column
// lengths. The pass mode follows ResolveMode, except that a processed count
// not matching the engine's own series length is treated as stale and
// forces a full pass. A full pass rebuilds every position and refills the
// threshold series; an incremental pass recomputes from position
// prevCalculated-1 forward and leaves everything older untouched.
func (a *ADX) Recalculate(prevCalculated, totalBars int, highs, lows, closes []float64) ([]float64, error) {
	if len(highs) != totalBars || len(lows) != totalBars || len(closes) != totalBars {
		return nil, fmt.Errorf("adx: column lengths %d/%d/%d do not match %d bars",
			len(highs), len(lows), len(closes), totalBars)
	}
	if totalBars < a.MinBars() {
		return nil, ErrInsufficientHistory
	}

	mode := ResolveMode(prevCalculated, totalBars)
	if mode == IncrementalAppend && len(a.strength) != prevCalculated {
		// The caller's count is stale relative to our memoized series.
		mode = FullRecompute
	}

	start := StartPosition(mode, prevCalculated)
	switch mode {
	case FullRecompute:
		a.resize(totalBars)
		for i := range a.level {
			a.level[i] = a.cfg.ThresholdLevel
		}
	case IncrementalAppend:
		a.grow(totalBars)
	}

	// Position 0 has no older neighbor and stays undefined. The smoothed
	// series seed at firstIndex, the strength series at adxStart. Until
	// enough bars exist for the nominal strength seed position, it rides
	// the newest bar.
	firstIndex := a.cfg.Period
	adxStart := firstIndex + a.cfg.SmoothPeriod
	if adxStart > totalBars-1 {
		adxStart = totalBars - 1
	}

	nf := float64(a.cfg.Period)
	sf := float64(a.cfg.SmoothPeriod)

	for i := start; i < totalBars; i++ {
		// 1) Raw true range and directional movement for this bar.
		tr := trueRange(highs[i], lows[i], closes[i-1])
		plusDM, minusDM := directionalMoves(highs[i], highs[i-1], lows[i], lows[i-1])

		// 2) Smoothed series: seed once per history, recurrence after.
		switch {
		case i < firstIndex:
			a.smTR[i] = math.NaN()
			a.smPlusDM[i] = math.NaN()
			a.smMinusDM[i] = math.NaN()
			a.dx[i] = math.NaN()
			a.strength[i] = math.NaN()
			continue
		case i == firstIndex:
			a.seedSmoothed(i, highs, lows, closes)
		default:
			a.smTR[i] = a.smTR[i-1] - a.smTR[i-1]/nf + tr
			a.smPlusDM[i] = a.smPlusDM[i-1] - a.smPlusDM[i-1]/nf + plusDM
			a.smMinusDM[i] = a.smMinusDM[i-1] - a.smMinusDM[i-1]/nf + minusDM
		}

		// 3) Directional indicators and DX.
		plusDI, minusDI := di(a.smPlusDM[i], a.smMinusDM[i], a.smTR[i])
		a.dx[i] = dx(plusDI, minusDI)

		// 4) Strength: seeded with a simple average of DX, Wilder-smoothed
		// after.
		switch {
		case i < adxStart:
			a.strength[i] = math.NaN()
		case i == adxStart:
			a.strength[i] = a.seedStrength(i)
		default:
			a.strength[i] = (a.strength[i-1]*(sf-1) + a.dx[i]) / sf
		}
	}

	return a.strength, nil
}

// seedSmoothed initializes the smoothed series at position i with the
// simple sum of the raw values over the period window ending there.
func (a *ADX) seedSmoothed(i int, highs, lows, closes []float64) {
	lo := i - a.cfg.Period + 1
	if lo < 1 {
		// The window cannot reach position 0, which has no older neighbor.
		lo = 1
	}

	var sumTR, sumPlusDM, sumMinusDM float64
	for j := lo; j <= i; j++ {
		sumTR += trueRange(highs[j], lows[j], closes[j-1])
		pdm, mdm := directionalMoves(highs[j], highs[j-1], lows[j], lows[j-1])
		sumPlusDM += pdm
		sumMinusDM += mdm
	}

	a.smTR[i] = sumTR
	a.smPlusDM[i] = sumPlusDM
	a.smMinusDM[i] = sumMinusDM
}

// seedStrength averages DX over the smooth-period window ending at i. The
// window can reach below the pass frontier; those DX values are memoized
// from earlier passes. The divisor stays the nominal smoothing period even
// when the clamp shortens the window.
func (a *ADX) seedStrength(i int) float64 {
	lo := i - a.cfg.SmoothPeriod + 1
	if lo < a.cfg.Period {
		lo = a.cfg.Period
	}

	var sum float64
	for j := lo; j <= i; j++ {
		sum += a.dx[j]
	}
	return sum / float64(a.cfg.SmoothPeriod)
}

func (a *ADX) resize(n int) {
	a.strength = nanSlice(n)
	a.level = nanSlice(n)
	a.smTR = nanSlice(n)
	a.smPlusDM = nanSlice(n)
	a.smMinusDM = nanSlice(n)
	a.dx = nanSlice(n)
}

func (a *ADX) grow(n int) {
	for len(a.strength) < n {
		a.strength = append(a.strength, math.NaN())
		a.level = append(a.level, math.NaN())
		a.smTR = append(a.smTR, math.NaN())
		a.smPlusDM = append(a.smPlusDM, math.NaN())
		a.smMinusDM = append(a.smMinusDM, math.NaN())
		a.dx = append(a.dx, math.NaN())
	}
}

func nanSlice(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}

func di(smPlusDM, smMinusDM, smTR float64) (plusDI, minusDI float64) {
	if smTR <= 0 {
		return 0, 0
	}
	plusDI = 100.0 * (smPlusDM / smTR)
	minusDI = 100.0 * (smMinusDM / smTR)
	return plusDI, minusDI
}

func dx(plusDI, minusDI float64) float64 {
	den := plusDI + minusDI
	if den <= 0 {
		return 0
	}
	return 100.0 * (math.Abs(plusDI-minusDI) / den)
}
