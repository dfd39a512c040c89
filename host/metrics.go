package host

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics holds the Prometheus metrics the driver maintains.
type Metrics struct {
	RecalcsTotal        *prometheus.CounterVec // labels: mode
	BarsRecomputed      prometheus.Counter
	InsufficientHistory prometheus.Counter
	RecalcDur           prometheus.Histogram
	BarsTotal           prometheus.Gauge
	LastStrength        prometheus.Gauge
}

// NewMetrics registers and returns the driver metrics. Call it once
// per process; registration on the default registry panics on
// duplicates.
func NewMetrics() *Metrics {
	m := &Metrics{
		RecalcsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adx_recalcs_total",
			Help: "Recalculations by mode (full, incremental)",
		}, []string{"mode"}),
		BarsRecomputed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adx_bars_recomputed_total",
			Help: "Bar positions recomputed across all passes",
		}),
		InsufficientHistory: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adx_insufficient_history_total",
			Help: "Recalculations skipped because history was too short",
		}),
		RecalcDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "adx_recalc_duration_seconds",
			Help:    "Engine recalculation latency",
			Buckets: []float64{0.000001, 0.000005, 0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005},
		}),
		BarsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "adx_bars_total",
			Help: "Bars currently held by the driver",
		}),
		LastStrength: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "adx_last_strength",
			Help: "Strength reading on the newest bar",
		}),
	}

	prometheus.MustRegister(
		m.RecalcsTotal,
		m.BarsRecomputed,
		m.InsufficientHistory,
		m.RecalcDur,
		m.BarsTotal,
		m.LastStrength,
	)

	return m
}

// Server exposes /metrics and /healthz for the stream command.
type Server struct {
	addr string
	srv  *http.Server
	log  *zap.Logger
}

// NewServer builds the server. health may be nil, in which case only
// /metrics is served.
func NewServer(addr string, health http.Handler, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if health != nil {
		mux.Handle("/healthz", health)
	}
	return &Server{
		addr: addr,
		srv:  &http.Server{Addr: addr, Handler: mux},
		log:  log,
	}
}

// Start launches the server in a goroutine.
func (s *Server) Start() {
	go func() {
		s.log.Info("metrics server listening", zap.String("addr", s.addr))
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("metrics server", zap.Error(err))
		}
	}()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.log.Warn("metrics server shutdown", zap.Error(err))
	}
}
