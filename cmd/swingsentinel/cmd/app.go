package cmd

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"SwingSentinel/internal/calculator"
	"SwingSentinel/internal/collector"
	"SwingSentinel/internal/config"
	"SwingSentinel/internal/logger"
	"SwingSentinel/internal/metrics"
	"SwingSentinel/internal/recorder"
	"SwingSentinel/internal/scanner"
)

// app holds the collaborators shared by the subcommands.
type app struct {
	cfg      *config.Config
	fetcher  collector.Fetcher
	recorder recorder.Recorder
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	closers  []func() error
}

func newApp(c *config.Config) (*app, error) {
	a := &app{cfg: c, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = metrics.New(a.registry)

	ds := c.DataSource
	switch ds.Provider {
	case "upstox":
		f := collector.NewUpstoxFetcher(ds.BaseURL, ds.AccessToken, c.Proxy, ds.Timeout)
		f.Retries = ds.Retries
		f.Delay = ds.RequestDelay
		f.IncludeToday = *ds.IncludeToday
		a.fetcher = f
	case "yahoo":
		f := collector.NewYahooFetcher(ds.YahooSuffix, c.Proxy, ds.Timeout)
		if ds.BaseURL != "" {
			f.BaseURL = ds.BaseURL
		}
		a.fetcher = f
	default:
		return nil, fmt.Errorf("unknown data provider %q", ds.Provider)
	}

	if c.Database.CachePath != "" {
		cached, err := collector.NewCachedFetcher(c.Database.CachePath, a.fetcher)
		if err != nil {
			logger.Warn("candle cache disabled: %v", err)
		} else {
			a.fetcher = cached
			a.closers = append(a.closers, cached.Close)
		}
	}
	logger.Info("data source: %s", a.fetcher.Name())

	a.recorder = recorder.NewNoopRecorder()
	if c.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(c.Database.SQLitePath)
		if err != nil {
			logger.Warn("init sqlite recorder failed, using noop: %v", err)
		} else {
			a.recorder = sr
			a.closers = append(a.closers, sr.Close)
		}
	}
	return a, nil
}

func (a *app) newScanner() *scanner.Scanner {
	sc := scanner.New(a.fetcher, a.cfg.Classifier())
	sc.MinBars = a.cfg.Scan.MinBars
	sc.Workers = a.cfg.Scan.Workers
	sc.HistoryDays = a.cfg.DataSource.HistoryDays
	sc.Metrics = a.metrics
	if a.cfg.Scan.RSIWilder {
		sc.Indicators.RSISmoothing = calculator.Wilder
	}
	return sc
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("close: %v", err)
		}
	}
}
