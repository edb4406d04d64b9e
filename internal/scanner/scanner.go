package scanner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"SwingSentinel/internal/calculator"
	"SwingSentinel/internal/collector"
	"SwingSentinel/internal/ids"
	"SwingSentinel/internal/logger"
	"SwingSentinel/internal/metrics"
	"SwingSentinel/internal/model"
	"SwingSentinel/internal/strategy"
)

// Per-symbol skip reasons. Neither aborts a scan.
var (
	ErrDataUnavailable     = errors.New("data unavailable")
	ErrInsufficientHistory = errors.New("insufficient history")
)

const (
	ModeLive       = "live"
	ModeHistorical = "historical"

	DefaultMinBars     = 50
	DefaultHistoryDays = 150
	// WarmupDays is fetched ahead of a historical window so indicators are
	// defined from its first day.
	WarmupDays = 90
)

// Scanner runs the fetch, indicator and classify pipeline over a universe.
type Scanner struct {
	Fetcher     collector.Fetcher
	Config      strategy.Config
	Indicators  calculator.Options
	MinBars     int
	Workers     int // 1 evaluates symbols strictly one after another
	HistoryDays int
	Metrics     *metrics.Metrics

	now func() time.Time
}

func New(f collector.Fetcher, cfg strategy.Config) *Scanner {
	return &Scanner{
		Fetcher:     f,
		Config:      cfg,
		MinBars:     DefaultMinBars,
		Workers:     1,
		HistoryDays: DefaultHistoryDays,
		now:         time.Now,
	}
}

// SetClock overrides the wall clock used for run ids and live windows.
func (s *Scanner) SetClock(now func() time.Time) { s.now = now }

// classifyFunc turns one symbol's indicator frame into zero or more signals.
type classifyFunc func(f *calculator.Frame) []model.Signal

// outcome is the fully materialised result of one symbol.
type outcome struct {
	signals []model.Signal
	err     error
}

// RunScan evaluates the latest bar of every instrument in universe order and
// returns at most maxSignals signals, the first ones met in that order.
// maxSignals <= 0 means no cap.
func (s *Scanner) RunScan(ctx context.Context, instruments []model.Instrument, maxSignals int) (*model.ScanResult, error) {
	if err := s.Config.Validate(); err != nil {
		return nil, fmt.Errorf("classifier config: %w", err)
	}
	end := s.now()
	start := end.AddDate(0, 0, -s.historyDays())
	cfg := s.Config
	classify := func(f *calculator.Frame) []model.Signal {
		if sig, ok := strategy.ClassifyLatest(f, cfg); ok {
			return []model.Signal{sig}
		}
		return nil
	}
	return s.run(ctx, ModeLive, instruments, start, end, maxSignals, classify)
}

// RunHistorical collects every breakout-entry signal dated within [start, end]
// for each instrument. Signals keep universe order, then date order.
func (s *Scanner) RunHistorical(ctx context.Context, instruments []model.Instrument, start, end time.Time, cfg strategy.BreakoutConfig) (*model.ScanResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("breakout config: %w", err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("historical window ends %s before it starts %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	from := model.Candle{Time: start}.Date()
	classify := func(f *calculator.Frame) []model.Signal {
		var out []model.Signal
		for _, sig := range strategy.ScanHistory(f, cfg) {
			if !sig.SignalDate.Before(from) {
				out = append(out, sig)
			}
		}
		return out
	}
	return s.run(ctx, ModeHistorical, instruments, start.AddDate(0, 0, -WarmupDays), end, 0, classify)
}

func (s *Scanner) run(ctx context.Context, mode string, instruments []model.Instrument, start, end time.Time,
	maxSignals int, classify classifyFunc) (*model.ScanResult, error) {
	started := s.now()
	res := &model.ScanResult{
		RunID:      ids.At(started),
		Mode:       mode,
		MaxSignals: maxSignals,
		StartedAt:  started,
		Status:     model.ScanNotRun,
	}
	logger.Info("scan %s started: mode=%s symbols=%d max=%d workers=%d",
		res.RunID, mode, len(instruments), maxSignals, s.workers())

	var err error
	if s.workers() <= 1 {
		err = s.runSequential(ctx, res, instruments, start, end, classify)
	} else {
		err = s.runParallel(ctx, res, instruments, start, end, classify)
	}
	if err != nil {
		logger.Warn("scan %s aborted: %v", res.RunID, err)
		return nil, err
	}

	res.FinishedAt = s.now()
	res.Status = model.ScanEmpty
	if len(res.Signals) > 0 {
		res.Status = model.ScanHasSignals
	}
	s.Metrics.ObserveScan(mode, res.FinishedAt.Sub(started), len(res.Signals), res.FinishedAt)
	logger.Info("scan %s finished: %d signals, %d scanned, %d skipped in %s",
		res.RunID, len(res.Signals), res.Scanned, res.Skipped, res.FinishedAt.Sub(started).Round(time.Millisecond))
	return res, nil
}

// runSequential is the reference fold: one symbol at a time, stopping as
// soon as the cap is reached.
func (s *Scanner) runSequential(ctx context.Context, res *model.ScanResult, instruments []model.Instrument,
	start, end time.Time, classify classifyFunc) error {
	for _, inst := range instruments {
		if err := ctx.Err(); err != nil {
			return err
		}
		o := s.evaluate(ctx, inst, start, end, classify)
		if o.err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		if s.accumulate(res, inst, o) {
			return nil
		}
	}
	return nil
}

// runParallel evaluates symbols on a bounded worker pool. Each symbol owns a
// one-slot channel and the consumer drains slots in universe order, so the
// cap picks the same symbols as the sequential fold.
func (s *Scanner) runParallel(ctx context.Context, res *model.ScanResult, instruments []model.Instrument,
	start, end time.Time, classify classifyFunc) error {
	scanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	slots := make([]chan outcome, len(instruments))
	for i := range slots {
		slots[i] = make(chan outcome, 1)
	}

	g, gctx := errgroup.WithContext(scanCtx)
	g.SetLimit(s.workers())
	launched := make(chan struct{})
	go func() {
		defer close(launched)
		for i, inst := range instruments {
			i, inst := i, inst
			g.Go(func() error {
				slots[i] <- s.evaluate(gctx, inst, start, end, classify)
				return nil
			})
		}
		_ = g.Wait()
	}()

	var aborted error
	for i, inst := range instruments {
		o := <-slots[i]
		if o.err != nil && ctx.Err() != nil {
			aborted = ctx.Err()
			break
		}
		if s.accumulate(res, inst, o) {
			break
		}
	}
	cancel()
	<-launched
	return aborted
}

// accumulate folds one outcome into res and reports whether the cap is reached.
func (s *Scanner) accumulate(res *model.ScanResult, inst model.Instrument, o outcome) bool {
	mode := res.Mode
	switch {
	case errors.Is(o.err, ErrDataUnavailable) || errors.Is(o.err, ErrInsufficientHistory):
		res.Skipped++
		s.Metrics.ObserveSymbol(mode, metrics.OutcomeSkipped)
		logger.Warn("skip %s: %v", inst.Symbol, o.err)
		return false
	case o.err != nil:
		res.Skipped++
		s.Metrics.ObserveSymbol(mode, metrics.OutcomeError)
		logger.Error("evaluate %s: %v", inst.Symbol, o.err)
		return false
	}

	res.Scanned++
	if len(o.signals) == 0 {
		s.Metrics.ObserveSymbol(mode, metrics.OutcomeNoSignal)
		return false
	}
	s.Metrics.ObserveSymbol(mode, metrics.OutcomeSignal)
	for _, sig := range o.signals {
		if res.MaxSignals > 0 && len(res.Signals) >= res.MaxSignals {
			break
		}
		res.Signals = append(res.Signals, sig)
		s.Metrics.ObserveSignal(mode, string(sig.Kind))
		logger.Info("signal %s %s entry=%.2f sl=%.2f target=%.2f rsi=%.1f",
			sig.Symbol, sig.Kind, sig.EntryPrice, sig.StopLoss, sig.Target, sig.RSIAtSignal)
	}
	return res.MaxSignals > 0 && len(res.Signals) >= res.MaxSignals
}

// evaluate runs the pipeline for one symbol. Nothing it computes is shared
// with other symbols.
func (s *Scanner) evaluate(ctx context.Context, inst model.Instrument, start, end time.Time, classify classifyFunc) outcome {
	if err := ctx.Err(); err != nil {
		return outcome{err: err}
	}
	began := time.Now()
	series, err := s.Fetcher.FetchDailyCandles(ctx, inst, start, end)
	s.Metrics.ObserveFetch(time.Since(began))
	if err != nil {
		if ctx.Err() != nil {
			return outcome{err: ctx.Err()}
		}
		return outcome{err: fmt.Errorf("%w: %s: %v", ErrDataUnavailable, inst.Symbol, err)}
	}
	if series.Len() == 0 {
		return outcome{err: fmt.Errorf("%w: %s: empty series", ErrDataUnavailable, inst.Symbol)}
	}
	if series.Len() < s.minBars() {
		return outcome{err: fmt.Errorf("%w: %s has %d bars, need %d",
			ErrInsufficientHistory, inst.Symbol, series.Len(), s.minBars())}
	}
	series.Instrument = inst
	frame := calculator.ComputeIndicatorsWith(series, s.Indicators)
	if last, ok := series.Last(); ok {
		logger.Debug("evaluating %s: %d bars through %s, rsi=%s",
			inst.Symbol, series.Len(), last.Date().Format("2006-01-02"), frame.RSIMode)
	}
	return outcome{signals: classify(frame)}
}

func (s *Scanner) workers() int {
	if s.Workers < 1 {
		return 1
	}
	return s.Workers
}

func (s *Scanner) minBars() int {
	if s.MinBars <= 0 {
		return DefaultMinBars
	}
	return s.MinBars
}

func (s *Scanner) historyDays() int {
	if s.HistoryDays <= 0 {
		return DefaultHistoryDays
	}
	return s.HistoryDays
}
