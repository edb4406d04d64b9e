package metrics

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"SwingSentinel/internal/logger"
)

// Outcome labels for per-symbol evaluation.
const (
	OutcomeSignal   = "signal"
	OutcomeNoSignal = "no_signal"
	OutcomeSkipped  = "skipped"
	OutcomeError    = "error"
)

// Metrics holds the Prometheus collectors of the scanner. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	SymbolsTotal    *prometheus.CounterVec   // labels: mode, outcome
	SignalsTotal    *prometheus.CounterVec   // labels: mode, kind
	ScanDuration    *prometheus.HistogramVec // labels: mode
	FetchDuration   prometheus.Histogram
	LastScanSignals prometheus.Gauge
	LastScanTime    prometheus.Gauge
	DeliveryErrors  prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SymbolsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "swingsentinel_symbols_total",
			Help: "Symbols evaluated, by scan mode and outcome",
		}, []string{"mode", "outcome"}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "swingsentinel_signals_total",
			Help: "Signals emitted, by scan mode and pattern",
		}, []string{"mode", "kind"}),
		ScanDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "swingsentinel_scan_duration_seconds",
			Help:    "Wall time of a full scan",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"mode"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "swingsentinel_fetch_duration_seconds",
			Help:    "Latency of one candle history fetch",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		LastScanSignals: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "swingsentinel_last_scan_signals",
			Help: "Signals produced by the most recent live scan",
		}),
		LastScanTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "swingsentinel_last_scan_timestamp_seconds",
			Help: "Unix time the most recent scan finished",
		}),
		DeliveryErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swingsentinel_delivery_errors_total",
			Help: "Signal or summary deliveries that failed",
		}),
	}
	reg.MustRegister(
		m.SymbolsTotal,
		m.SignalsTotal,
		m.ScanDuration,
		m.FetchDuration,
		m.LastScanSignals,
		m.LastScanTime,
		m.DeliveryErrors,
	)
	return m
}

func (m *Metrics) ObserveSymbol(mode, outcome string) {
	if m == nil {
		return
	}
	m.SymbolsTotal.WithLabelValues(mode, outcome).Inc()
}

func (m *Metrics) ObserveSignal(mode, kind string) {
	if m == nil {
		return
	}
	m.SignalsTotal.WithLabelValues(mode, kind).Inc()
}

func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

// ObserveScan records a finished scan.
func (m *Metrics) ObserveScan(mode string, d time.Duration, signals int, finished time.Time) {
	if m == nil {
		return
	}
	m.ScanDuration.WithLabelValues(mode).Observe(d.Seconds())
	if mode == "live" {
		m.LastScanSignals.Set(float64(signals))
	}
	m.LastScanTime.Set(float64(finished.Unix()))
}

func (m *Metrics) ObserveDeliveryError() {
	if m == nil {
		return
	}
	m.DeliveryErrors.Inc()
}

// Health is the /healthz state of a long-running process.
type Health struct {
	mu        sync.RWMutex
	StartedAt time.Time
	LastRunID string
	LastRunAt time.Time
	LastError string
}

func NewHealth() *Health {
	return &Health{StartedAt: time.Now()}
}

// SetRun records the outcome of the latest scan.
func (h *Health) SetRun(runID string, at time.Time, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.LastRunID = runID
	h.LastRunAt = at
	h.LastError = ""
	if err != nil {
		h.LastError = err.Error()
	}
}

func (h *Health) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	status := struct {
		Status    string `json:"status"`
		Uptime    string `json:"uptime"`
		LastRunID string `json:"last_run_id,omitempty"`
		LastRunAt string `json:"last_run_at,omitempty"`
		LastError string `json:"last_error,omitempty"`
	}{
		Status:    "healthy",
		Uptime:    time.Since(h.StartedAt).Round(time.Second).String(),
		LastRunID: h.LastRunID,
		LastError: h.LastError,
	}
	if !h.LastRunAt.IsZero() {
		status.LastRunAt = h.LastRunAt.Format(time.RFC3339)
	}
	h.mu.RUnlock()

	code := http.StatusOK
	if status.LastError != "" {
		status.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	body, err := sonic.Marshal(status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

// Server exposes /metrics and /healthz.
type Server struct {
	addr string
	srv  *http.Server
}

func NewServer(addr string, gatherer prometheus.Gatherer, health *Health) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.Handle("/healthz", health)
	return &Server{
		addr: addr,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		logger.Info("metrics server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server: %v", err)
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler returns the mux of the server, for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }
