package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brynbeaudry/loserbot9000-sub002/feed"
	"github.com/brynbeaudry/loserbot9000-sub002/host"
)

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Stream live bars from a websocket feed",
	Long: `Connect to a websocket bar feed and keep the trend-strength series
current as bars form and close. Runs until SIGINT/SIGTERM.

Readings are journaled per the config, and when metrics are enabled a
/metrics and /healthz endpoint is served.

Examples:
  adx stream --url ws://localhost:8080/bars
  adx stream -c adx.yaml --instrument EUR_USD --timeframe 1m`,
	RunE: runStream,
}

var (
	streamURL        string
	streamInstrument string
	streamTimeframe  string
)

func init() {
	rootCmd.AddCommand(streamCmd)

	streamCmd.Flags().StringVar(&streamURL, "url", "", "websocket feed url (overrides feed.url)")
	streamCmd.Flags().StringVar(&streamInstrument, "instrument", "", "instrument to subscribe (overrides feed.instrument)")
	streamCmd.Flags().StringVar(&streamTimeframe, "timeframe", "", "bar timeframe to subscribe (overrides feed.timeframe)")
}

func runStream(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	url := streamURL
	if url == "" {
		url = cfg.Feed.URL
	}
	if url == "" {
		return fmt.Errorf("no feed url: pass --url or set feed.url")
	}
	instrument := streamInstrument
	if instrument == "" {
		instrument = cfg.Feed.Instrument
	}
	timeframe := streamTimeframe
	if timeframe == "" {
		timeframe = cfg.Feed.Timeframe
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := feed.NewWS(url, instrument, timeframe)
	if err != nil {
		return err
	}
	// Closing the connection unblocks the read loop on shutdown.
	go func() {
		<-ctx.Done()
		src.Close()
	}()

	var (
		metrics *host.Metrics
		health  *host.Health
	)
	if cfg.Metrics.Enabled {
		metrics = host.NewMetrics()
		health = host.NewHealth()
		srv := host.NewServer(cfg.Metrics.Addr, health, logger)
		srv.Start()
		defer srv.Stop(context.Background())
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
		Metrics: metrics,
		Health:  health,
		Journal: j,
		MaxBars: cfg.Engine.MaxBars,
		RunInfo: host.RunInfo{
			Instrument: instrument,
			Timeframe:  timeframe,
			Source:     "ws:" + url,
		},
	})
	if err != nil {
		return err
	}

	logger.Info("streaming",
		zap.String("url", url),
		zap.String("instrument", instrument),
		zap.String("timeframe", timeframe))

	if err := d.Run(ctx, src); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	snap := d.Snapshot()
	logger.Info("stream finished",
		zap.Int("bars", snap.Bars),
		zap.Int("full_recomputes", snap.FullRecomputes),
		zap.Int("incremental_passes", snap.IncrementalPasses))
	return nil
}
