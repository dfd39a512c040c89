package journal

import (
	"fmt"
	"strings"
	"time"
)

// FormatRunOrg renders a Run as an Org-mode block suitable for pasting
// into a research journal. Structured facts live in a PROPERTIES drawer
// for easy search; a Notes section is left open for narrative.
func FormatRunOrg(r Run) string {
	heading := fmt.Sprintf("** Run: %s %s (%s)", r.Instrument, r.Timeframe, shortID(r.ID))

	finished := "in progress"
	if !r.FinishedAt.IsZero() {
		finished = r.FinishedAt.UTC().Format(time.RFC3339)
	}

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":RUN_ID: %s\n", r.ID))
	b.WriteString(fmt.Sprintf(":INSTRUMENT: %s\n", r.Instrument))
	b.WriteString(fmt.Sprintf(":TIMEFRAME: %s\n", r.Timeframe))
	b.WriteString(fmt.Sprintf(":PERIOD: %d\n", r.Period))
	b.WriteString(fmt.Sprintf(":SMOOTH_PERIOD: %d\n", r.SmoothPeriod))
	b.WriteString(fmt.Sprintf(":THRESHOLD: %.2f\n", r.Threshold))
	b.WriteString(fmt.Sprintf(":SOURCE: %s\n", r.Source))
	b.WriteString(fmt.Sprintf(":STARTED_AT: %s\n", r.StartedAt.UTC().Format(time.RFC3339)))
	b.WriteString(fmt.Sprintf(":FINISHED_AT: %s\n", finished))
	b.WriteString(fmt.Sprintf(":BARS: %d\n", r.Bars))
	b.WriteString(fmt.Sprintf(":FULL_RECOMPUTES: %d\n", r.FullRecomputes))
	b.WriteString(fmt.Sprintf(":INCREMENTAL_PASSES: %d\n", r.IncrementalPasses))
	b.WriteString(":END:\n")
	b.WriteString("\n")
	b.WriteString("*** Notes\n- \n")

	return b.String()
}

// FormatRunsOrg renders multiple runs separated by blank lines.
func FormatRunsOrg(runs []Run) string {
	var b strings.Builder
	for i, r := range runs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatRunOrg(r))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
