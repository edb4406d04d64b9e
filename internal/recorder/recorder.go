package recorder

import (
	"errors"
	"time"

	"SwingSentinel/internal/model"
)

// ErrNoRuns is returned by LastRun before any scan has been journaled.
var ErrNoRuns = errors.New("no scan runs recorded")

// RunSummary is the journaled header of one scan run.
type RunSummary struct {
	RunID      string
	Mode       string
	Status     model.ScanStatus
	Signals    int
	Scanned    int
	Skipped    int
	MaxSignals int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Recorder persists scan runs and their signals for later review.
type Recorder interface {
	RecordRun(res *model.ScanResult) error
	RecordTrades(runID string, signals []model.Signal) error
	LastRun() (*RunSummary, error)
	Trades(runID string) ([]model.Signal, error)
	Close() error
}

func summarize(res *model.ScanResult) RunSummary {
	return RunSummary{
		RunID:      res.RunID,
		Mode:       res.Mode,
		Status:     res.Status,
		Signals:    len(res.Signals),
		Scanned:    res.Scanned,
		Skipped:    res.Skipped,
		MaxSignals: res.MaxSignals,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
	}
}
