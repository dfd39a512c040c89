package indicators

// Mode selects how much of the output series a Recalculate pass rebuilds.
type Mode int

const (
	// FullRecompute rebuilds every position from scratch.
	FullRecompute Mode = iota
	// IncrementalAppend recomputes only from the previous frontier forward.
	IncrementalAppend
)

func (m Mode) String() string {
	switch m {
	case FullRecompute:
		return "full"
	case IncrementalAppend:
		return "incremental"
	default:
		return "unknown"
	}
}

// ResolveMode decides the pass mode from the processed count the caller
// reports and the bar count now available. A non-positive count means no
// prior pass; a count above totalBars means the history shrank or was
// replaced. Both force a full rebuild.
func ResolveMode(prevCalculated, totalBars int) Mode {
	if prevCalculated <= 0 || prevCalculated > totalBars {
		return FullRecompute
	}
	return IncrementalAppend
}

// StartPosition derives the first position a pass recomputes. A full pass
// starts at 1, the oldest position with an older neighbor. An incremental
// pass starts at the previous call's frontier, the bar that was still
// forming then.
func StartPosition(m Mode, prevCalculated int) int {
	if m == FullRecompute {
		return 1
	}
	start := prevCalculated - 1
	if start < 1 {
		start = 1
	}
	return start
}
