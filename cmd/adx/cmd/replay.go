package cmd

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/brynbeaudry/loserbot9000-sub002/config"
	"github.com/brynbeaudry/loserbot9000-sub002/feed"
	"github.com/brynbeaudry/loserbot9000-sub002/host"
	"github.com/brynbeaudry/loserbot9000-sub002/indicators"
	"github.com/brynbeaudry/loserbot9000-sub002/market"
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a CSV history bar by bar through the driver",
	Long: `Feed a bar history through the host driver one bar at a time, the way
a live feed would, exercising the incremental recalculation path.

With --verify the final incremental output is checked against an
independent full recalculation and the maximum divergence reported.

Examples:
  adx replay -i bars.csv
  adx replay -i bars.csv.xz --verify`,
	RunE: runReplay,
}

var (
	replayInput  string
	replayFrom   string
	replayTo     string
	replayVerify bool
)

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().StringVarP(&replayInput, "input", "i", "", "path to bar CSV (overrides feed.path)")
	replayCmd.Flags().StringVar(&replayFrom, "from", "", "ignore bars before this RFC3339 time")
	replayCmd.Flags().StringVar(&replayTo, "to", "", "ignore bars after this RFC3339 time")
	replayCmd.Flags().BoolVar(&replayVerify, "verify", false, "check the incremental result against a full recompute")
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	input := replayInput
	if input == "" {
		input = cfg.Feed.Path
	}
	if input == "" {
		return fmt.Errorf("no input: pass --input or set feed.path")
	}

	from, err := parseTimeFlag(replayFrom)
	if err != nil {
		return err
	}
	to, err := parseTimeFlag(replayTo)
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

	j, err := openJournal(cfg)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	if j != nil {
		defer j.Close()
	}

	d, err := host.NewDriver(cfg.Engine.ADXConfig(), host.Options{
		Logger:  logger,
		Journal: j,
		MaxBars: cfg.Engine.MaxBars,
		RunInfo: host.RunInfo{
			Instrument: cfg.Feed.Instrument,
			Timeframe:  cfg.Feed.Timeframe,
			Source:     "replay:" + input,
		},
	})
	if err != nil {
		return err
	}

	if err := d.Run(context.Background(), feed.NewSlice(candles)); err != nil {
		return err
	}

	snap := d.Snapshot()
	fmt.Printf("replayed %d bars: %d full, %d incremental passes\n",
		snap.Bars, snap.FullRecomputes, snap.IncrementalPasses)
	if snap.LastStrength != nil {
		fmt.Printf("last strength %.4f at %s\n",
			*snap.LastStrength, snap.LastBarTime.UTC().Format(time.RFC3339))
	}

	if replayVerify {
		return verifyAgainstFull(cfg, candles, d.Strength())
	}
	return nil
}

// verifyAgainstFull recomputes the driver's final window from scratch
// and compares the outputs position by position.
func verifyAgainstFull(cfg *config.Config, candles []market.Candle, got []float64) error {
	window := candles
	if cfg.Engine.MaxBars > 0 && len(window) > cfg.Engine.MaxBars {
		window = window[len(window)-cfg.Engine.MaxBars:]
	}

	eng, err := indicators.NewADX(cfg.Engine.ADXConfig())
	if err != nil {
		return err
	}
	highs, lows, closes := market.Columns(window)
	want, err := eng.Recalculate(0, len(window), highs, lows, closes)
	if err != nil {
		return fmt.Errorf("full recompute: %w", err)
	}

	if len(want) != len(got) {
		return fmt.Errorf("verify failed: %d positions incremental vs %d full", len(got), len(want))
	}

	maxDiv := 0.0
	defined := 0
	for i := range want {
		wantNaN, gotNaN := math.IsNaN(want[i]), math.IsNaN(got[i])
		if wantNaN != gotNaN {
			return fmt.Errorf("verify failed at position %d: full=%v incremental=%v", i, want[i], got[i])
		}
		if wantNaN {
			continue
		}
		defined++
		if div := math.Abs(want[i] - got[i]); div > maxDiv {
			maxDiv = div
		}
	}
	if maxDiv > 1e-9 {
		return fmt.Errorf("verify failed: max divergence %.3e over %d positions", maxDiv, defined)
	}

	fmt.Printf("✓ deterministic: max divergence %.3e over %d defined positions\n", maxDiv, defined)
	return nil
}
