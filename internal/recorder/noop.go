package recorder

import (
	"sync"

	"SwingSentinel/internal/model"
)

// NoopRecorder is used when SQLite is not configured. It only remembers the
// latest run so /status still has something to report.
type NoopRecorder struct {
	mu   sync.Mutex
	last *RunSummary
}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(res *model.ScanResult) error {
	s := summarize(res)
	n.mu.Lock()
	n.last = &s
	n.mu.Unlock()
	return nil
}

func (n *NoopRecorder) RecordTrades(_ string, _ []model.Signal) error { return nil }

func (n *NoopRecorder) LastRun() (*RunSummary, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.last == nil {
		return nil, ErrNoRuns
	}
	s := *n.last
	return &s, nil
}

func (n *NoopRecorder) Trades(_ string) ([]model.Signal, error) { return nil, nil }
func (n *NoopRecorder) Close() error                            { return nil }
