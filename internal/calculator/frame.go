package calculator

import "SwingSentinel/internal/model"

const (
	SMAPeriod       = 44
	FastSMAPeriod   = 20
	VolumeAvgPeriod = 20
	RSIPeriod       = 14
)

// Frame is a series with its derived indicator columns. Every column has
// the same length as the series and index i only reflects bars 0..i.
type Frame struct {
	Series   model.Series
	SMA44    []Value
	SMA20    []Value
	VolAvg20 []Value
	RSI14    []Value
	RSIMode  Smoothing
}

// Options tweaks indicator computation.
type Options struct {
	RSISmoothing Smoothing
}

// ComputeIndicators derives the indicator frame using rolling-mean RSI.
func ComputeIndicators(series model.Series) *Frame {
	return ComputeIndicatorsWith(series, Options{})
}

// ComputeIndicatorsWith derives the indicator frame. It never fails: short
// series simply yield undefined readings.
func ComputeIndicatorsWith(series model.Series, opts Options) *Frame {
	closes := extractCloses(series.Candles)
	return &Frame{
		Series:   series,
		SMA44:    SMASeries(closes, SMAPeriod),
		SMA20:    SMASeries(closes, FastSMAPeriod),
		VolAvg20: SMASeries(extractVolumes(series.Candles), VolumeAvgPeriod),
		RSI14:    RSISeries(closes, RSIPeriod, opts.RSISmoothing),
		RSIMode:  opts.RSISmoothing,
	}
}

func (f *Frame) Len() int { return len(f.Series.Candles) }

func (f *Frame) Bar(i int) model.Candle { return f.Series.Candles[i] }

func (f *Frame) inRange(i int) bool { return i >= 0 && i < f.Len() }

// SMA returns the 44-bar SMA at i, or undefined when i is out of range.
func (f *Frame) SMA(i int) Value {
	if !f.inRange(i) {
		return None
	}
	return f.SMA44[i]
}

func (f *Frame) FastSMA(i int) Value {
	if !f.inRange(i) {
		return None
	}
	return f.SMA20[i]
}

func (f *Frame) VolAvg(i int) Value {
	if !f.inRange(i) {
		return None
	}
	return f.VolAvg20[i]
}

func (f *Frame) RSI(i int) Value {
	if !f.inRange(i) {
		return None
	}
	return f.RSI14[i]
}

// Ready reports whether SMA44, volume average and RSI are all defined at i.
func (f *Frame) Ready(i int) bool {
	return f.SMA(i).Valid && f.VolAvg(i).Valid && f.RSI(i).Valid
}
