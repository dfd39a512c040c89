package cmd

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/brynbeaudry/loserbot9000-sub002/config"
	"github.com/brynbeaudry/loserbot9000-sub002/feed"
	"github.com/brynbeaudry/loserbot9000-sub002/indicators"
	"github.com/brynbeaudry/loserbot9000-sub002/journal"
	"github.com/brynbeaudry/loserbot9000-sub002/market"
	"github.com/brynbeaudry/loserbot9000-sub002/pkg/id"
)

var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Compute trend strength over a CSV history in one pass",
	Long: `Load a bar history from CSV (plain, .xz or .zip), run one full
recalculation, and print the defined readings.

Examples:
  adx compute -i bars.csv
  adx compute -i bars.csv.xz --from 2024-03-01T00:00:00Z --limit 20
  adx compute -i bars.zip --format csv > readings.csv`,
	RunE: runCompute,
}

var (
	computeInput   string
	computeFrom    string
	computeTo      string
	computeFormat  string
	computeLimit   int
	computeJournal bool
)

func init() {
	rootCmd.AddCommand(computeCmd)

	computeCmd.Flags().StringVarP(&computeInput, "input", "i", "", "path to bar CSV (overrides feed.path)")
	computeCmd.Flags().StringVar(&computeFrom, "from", "", "ignore bars before this RFC3339 time")
	computeCmd.Flags().StringVar(&computeTo, "to", "", "ignore bars after this RFC3339 time")
	computeCmd.Flags().StringVar(&computeFormat, "format", "table", "output format (table, csv)")
	computeCmd.Flags().IntVar(&computeLimit, "limit", 0, "print only the newest N readings (0 = all)")
	computeCmd.Flags().BoolVar(&computeJournal, "journal", false, "record the run in the configured journal")
}

func runCompute(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	input := computeInput
	if input == "" {
		input = cfg.Feed.Path
	}
	if input == "" {
		return fmt.Errorf("no input: pass --input or set feed.path")
	}

	from, err := parseTimeFlag(computeFrom)
	if err != nil {
		return err
	}
	to, err := parseTimeFlag(computeTo)
	if err != nil {
		return err
	}

	src, err := feed.NewCSVFeed(input, from, to)
	if err != nil {
		return fmt.Errorf("open feed: %w", err)
	}
	candles, err := drainFeed(src)
	if err != nil {
		return fmt.Errorf("read bars: %w", err)
	}

	eng, err := indicators.NewADX(cfg.Engine.ADXConfig())
	if err != nil {
		return err
	}

	highs, lows, closes := market.Columns(candles)
	started := time.Now().UTC()
	strength, err := eng.Recalculate(0, len(candles), highs, lows, closes)
	if err != nil {
		if errors.Is(err, indicators.ErrInsufficientHistory) {
			return fmt.Errorf("need at least %d bars, got %d", eng.MinBars(), len(candles))
		}
		return err
	}

	printReadings(cfg, candles, strength, eng.Level())

	if computeJournal {
		return journalComputeRun(cfg, input, started, candles, strength, eng.Level())
	}
	return nil
}

func printReadings(cfg *config.Config, candles []market.Candle, strength, level []float64) {
	first := -1
	for i, v := range strength {
		if !math.IsNaN(v) {
			first = i
			break
		}
	}
	if first < 0 {
		fmt.Println("no defined readings")
		return
	}

	lo := first
	if computeLimit > 0 && len(strength)-lo > computeLimit {
		lo = len(strength) - computeLimit
	}

	if computeFormat == "csv" {
		header := "position,time,strength"
		if cfg.Display.ShowThreshold {
			header += ",level"
		}
		if cfg.Display.FillTrend {
			header += ",trend"
		}
		fmt.Println(header)
		for i := lo; i < len(strength); i++ {
			row := fmt.Sprintf("%d,%s,%.6f", i, candles[i].Time.UTC().Format(time.RFC3339), strength[i])
			if cfg.Display.ShowThreshold {
				row += fmt.Sprintf(",%.2f", level[i])
			}
			if cfg.Display.FillTrend {
				row += "," + trendMark(strength[i], cfg.Engine.ThresholdLevel)
			}
			fmt.Println(row)
		}
		return
	}

	header := fmt.Sprintf("%5s  %-20s  %9s", "POS", "TIME", "STRENGTH")
	if cfg.Display.ShowThreshold {
		header += fmt.Sprintf("  %6s", "LEVEL")
	}
	if cfg.Display.FillTrend {
		header += "  TREND"
	}
	fmt.Println(header)
	for i := lo; i < len(strength); i++ {
		row := fmt.Sprintf("%5d  %-20s  %9.4f", i, candles[i].Time.UTC().Format(time.RFC3339), strength[i])
		if cfg.Display.ShowThreshold {
			row += fmt.Sprintf("  %6.2f", level[i])
		}
		if cfg.Display.FillTrend {
			row += "  " + trendMark(strength[i], cfg.Engine.ThresholdLevel)
		}
		fmt.Println(row)
	}
	fmt.Printf("\n%d bars, %d defined readings, last strength %.4f\n",
		len(candles), len(strength)-first, strength[len(strength)-1])
}

// trendMark flags readings at or above the threshold.
func trendMark(strength, threshold float64) string {
	if strength >= threshold {
		return "*"
	}
	return ""
}

func journalComputeRun(cfg *config.Config, input string, started time.Time, candles []market.Candle, strength, level []float64) error {
	j, err := openJournal(cfg)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	if j == nil {
		return fmt.Errorf("journal.type is 'none'; nothing to record")
	}
	defer j.Close()

	run := journal.Run{
		ID:           id.New(),
		Instrument:   cfg.Feed.Instrument,
		Timeframe:    cfg.Feed.Timeframe,
		Period:       cfg.Engine.Period,
		SmoothPeriod: cfg.Engine.SmoothPeriod,
		Threshold:    cfg.Engine.ThresholdLevel,
		Source:       "compute:" + input,
		StartedAt:    started,
	}
	if err := j.StartRun(run); err != nil {
		return fmt.Errorf("journal start: %w", err)
	}

	var readings []journal.Reading
	for i, v := range strength {
		if math.IsNaN(v) {
			continue
		}
		readings = append(readings, journal.Reading{
			RunID:    run.ID,
			Position: i,
			BarTime:  candles[i].Time,
			Strength: v,
			Level:    level[i],
		})
	}
	if err := j.RecordReadings(readings); err != nil {
		return fmt.Errorf("journal readings: %w", err)
	}

	run.FinishedAt = time.Now().UTC()
	run.Bars = len(candles)
	run.FullRecomputes = 1
	if err := j.FinishRun(run); err != nil {
		return fmt.Errorf("journal finish: %w", err)
	}

	fmt.Printf("✓ journaled run %s\n", run.ID)
	return nil
}

func parseTimeFlag(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad time %q: %w", s, err)
	}
	return t, nil
}

func drainFeed(src feed.CandleFeed) ([]market.Candle, error) {
	defer src.Close()
	var out []market.Candle
	for {
		c, ok, err := src.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, c)
	}
}
