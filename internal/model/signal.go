package model

import "time"

// SignalKind tells which pattern produced a signal.
type SignalKind string

const (
	KindBounce    SignalKind = "BOUNCE"     // case A: green candle bounced off the SMA
	KindDoubleDip SignalKind = "DOUBLE_DIP" // case B: recovery after two red candles tested support
	KindBreakout  SignalKind = "BREAKOUT"   // historical breakout-entry variant
)

// Signal is a tradable setup with static trade levels.
type Signal struct {
	Symbol          string
	InstrumentKey   string
	Kind            SignalKind
	EntryPrice      float64
	StopLoss        float64
	Target          float64
	RSIAtSignal     float64
	SignalDate      time.Time
	EntryDate       time.Time // zero for live signals; next bar for historical ones
	StopLossPercent float64
}

// ScanStatus describes the outcome of a scan run.
type ScanStatus string

const (
	ScanNotRun     ScanStatus = "NOT_RUN"
	ScanEmpty      ScanStatus = "EMPTY"
	ScanHasSignals ScanStatus = "SIGNALS"
)

// ScanResult is the bounded output of one scan invocation.
type ScanResult struct {
	RunID      string
	Mode       string
	Signals    []Signal
	Scanned    int // symbols fully evaluated
	Skipped    int // symbols skipped for missing or short data
	MaxSignals int
	StartedAt  time.Time
	FinishedAt time.Time
	Status     ScanStatus
}

// Empty reports whether the scan ran and found nothing.
func (r *ScanResult) Empty() bool {
	return r != nil && r.Status == ScanEmpty
}
