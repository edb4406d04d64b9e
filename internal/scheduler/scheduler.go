package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"SwingSentinel/internal/logger"
	"SwingSentinel/internal/metrics"
	"SwingSentinel/internal/model"
	"SwingSentinel/internal/notifier"
	"SwingSentinel/internal/recorder"
	"SwingSentinel/internal/scanner"
)

// ErrScanRunning is returned when a scan is requested while one is in progress.
var ErrScanRunning = errors.New("a scan is already running")

// UniverseLoader returns the ordered scan universe.
type UniverseLoader func() ([]model.Instrument, error)

// Scheduler runs the live scan on a cron schedule and on demand.
type Scheduler struct {
	Cron       *cron.Cron
	Scanner    *scanner.Scanner
	Universe   UniverseLoader
	Sink       notifier.Sink
	Recorder   recorder.Recorder
	Metrics    *metrics.Metrics
	Health     *metrics.Health
	MaxSignals int
	Ctx        context.Context

	running sync.Mutex
	manual  sync.WaitGroup
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, sc *scanner.Scanner, universe UniverseLoader, sink notifier.Sink,
	rec recorder.Recorder, maxSignals int) *Scheduler {
	return &Scheduler{
		Cron:       cron.New(cron.WithSeconds()),
		Scanner:    sc,
		Universe:   universe,
		Sink:       sink,
		Recorder:   rec,
		MaxSignals: maxSignals,
		Ctx:        ctx,
	}
}

// Register adds the daily scan job.
func (s *Scheduler) Register(scanCron string) error {
	if _, err := s.Cron.AddFunc(scanCron, s.dailyScan); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	logger.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Wait()
	logger.Info("scheduler stopped")
}

func (s *Scheduler) dailyScan() {
	logger.Info("running scheduled scan")
	if _, err := s.RunNow(s.Ctx); err != nil {
		logger.Error("scheduled scan: %v", err)
	}
}

// RunNow runs one live scan, delivers its output and journals it. Delivery
// and journal failures are logged and do not fail the scan.
func (s *Scheduler) RunNow(ctx context.Context) (*model.ScanResult, error) {
	if !s.running.TryLock() {
		return nil, ErrScanRunning
	}
	defer s.running.Unlock()
	return s.run(ctx)
}

// Wait blocks until manual scans started from chat commands have finished.
func (s *Scheduler) Wait() { s.manual.Wait() }

// startManual launches a scan in the background. It reports false when a
// scan is already in progress.
func (s *Scheduler) startManual(ctx context.Context) bool {
	if !s.running.TryLock() {
		return false
	}
	if s.Ctx != nil {
		ctx = s.Ctx
	}
	s.manual.Add(1)
	go func() {
		defer s.manual.Done()
		defer s.running.Unlock()
		res, err := s.run(ctx)
		if err != nil {
			logger.Error("manual scan: %v", err)
			return
		}
		logger.Info("manual scan %s done", res.RunID)
	}()
	return true
}

// run does the work of RunNow. The caller holds s.running.
func (s *Scheduler) run(ctx context.Context) (*model.ScanResult, error) {
	insts, err := s.Universe()
	if err != nil {
		err = fmt.Errorf("load universe: %w", err)
		s.setHealth("", err)
		return nil, err
	}

	res, err := s.Scanner.RunScan(ctx, insts, s.MaxSignals)
	if err != nil {
		err = fmt.Errorf("run scan: %w", err)
		s.setHealth("", err)
		return nil, err
	}

	for _, sig := range res.Signals {
		if err := s.Sink.DeliverSignal(ctx, sig); err != nil {
			s.Metrics.ObserveDeliveryError()
			logger.Error("deliver signal %s: %v", sig.Symbol, err)
		}
	}
	if err := s.Sink.DeliverSummary(ctx, res); err != nil {
		s.Metrics.ObserveDeliveryError()
		logger.Error("deliver summary: %v", err)
	}

	if err := s.Recorder.RecordRun(res); err != nil {
		logger.Error("record run %s: %v", res.RunID, err)
	}
	if err := s.Recorder.RecordTrades(res.RunID, res.Signals); err != nil {
		logger.Error("record signals %s: %v", res.RunID, err)
	}
	s.setHealth(res.RunID, nil)
	return res, nil
}

func (s *Scheduler) setHealth(runID string, err error) {
	if s.Health != nil {
		s.Health.SetRun(runID, time.Now(), err)
	}
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	switch command {
	case "/scan":
		// Replies right away so polling keeps serving /status during the scan.
		if !s.startManual(ctx) {
			return "⏳ A scan is already running."
		}
		return "🔎 Scan started. Signals will follow here."
	case "/status":
		run, err := s.Recorder.LastRun()
		if errors.Is(err, recorder.ErrNoRuns) {
			return notifier.FormatRunStatus(nil, nil)
		}
		if err != nil {
			return fmt.Sprintf("❌ Status unavailable: %v", err)
		}
		signals, err := s.Recorder.Trades(run.RunID)
		if err != nil {
			logger.Warn("load signals of %s: %v", run.RunID, err)
		}
		return notifier.FormatRunStatus(run, signals)
	default:
		return "Available commands:\n• /scan run a scan now\n• /status last scan result"
	}
}
