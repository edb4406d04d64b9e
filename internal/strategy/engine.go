package strategy

import (
	"math"

	"SwingSentinel/internal/calculator"
	"SwingSentinel/internal/model"
)

// SlopeAngle returns the SMA44 slope between at-lookback and at in degrees.
// The rise is normalised to percent so angles compare across price levels.
func SlopeAngle(f *calculator.Frame, at, lookback int) (float64, bool) {
	now, ok := f.SMA(at).Get()
	if !ok {
		return 0, false
	}
	old, ok := f.SMA(at - lookback).Get()
	if !ok || old == 0 {
		return 0, false
	}
	percentRise := (now - old) / old * 100
	return math.Atan2(percentRise, float64(lookback)) * 180 / math.Pi, true
}

// Classify evaluates the bar at index at against the trend-continuation
// bounce pattern. It returns false whenever an indicator it needs is undefined.
func Classify(f *calculator.Frame, at int, cfg Config) (model.Signal, bool) {
	if at < 2 || at >= f.Len() || !f.Ready(at) {
		return model.Signal{}, false
	}

	angle, ok := SlopeAngle(f, at, cfg.Lookback)
	if !ok || angle < cfg.MinAngleDeg {
		return model.Signal{}, false
	}

	bar := f.Bar(at)
	sma := f.SMA44[at].Float
	rsi := f.RSI14[at].Float
	if rsi < cfg.RSILow || rsi > cfg.RSIHigh {
		return model.Signal{}, false
	}
	if cfg.RequireVolumeFilter && float64(bar.Volume) <= f.VolAvg20[at].Float {
		return model.Signal{}, false
	}

	var kind model.SignalKind
	switch {
	case isBounce(f, at, cfg.SupportTolerance):
		kind = model.KindBounce
	case isDoubleDip(f, at, cfg.SupportTolerance):
		kind = model.KindDoubleDip
	default:
		return model.Signal{}, false
	}

	lv := ComputeLevels(bar.High, math.Min(bar.Low, sma))
	return newSignal(f, kind, bar, rsi, lv), true
}

// touchesSupport reports whether the bar at i dipped into the band above the SMA.
func touchesSupport(f *calculator.Frame, i int, tolerance float64) bool {
	sma, ok := f.SMA(i).Get()
	if !ok {
		return false
	}
	return f.Bar(i).Low <= sma*(1+tolerance)
}

// isBounce: a green candle whose low reaches the support band and that closes above the SMA.
func isBounce(f *calculator.Frame, at int, tolerance float64) bool {
	bar := f.Bar(at)
	return bar.Bullish() && touchesSupport(f, at, tolerance) && bar.Close > f.SMA44[at].Float
}

// isDoubleDip: two red candles, at least one testing support, followed by a
// green candle that clears the prior high while staying above the band.
func isDoubleDip(f *calculator.Frame, at int, tolerance float64) bool {
	bar, prev, prev2 := f.Bar(at), f.Bar(at-1), f.Bar(at-2)
	sma := f.SMA44[at].Float
	if !bar.Bullish() || bar.Close <= prev.High || bar.Low <= sma*(1+tolerance) {
		return false
	}
	if !prev.Bearish() || !prev2.Bearish() {
		return false
	}
	return touchesSupport(f, at-1, tolerance) || touchesSupport(f, at-2, tolerance)
}

func newSignal(f *calculator.Frame, kind model.SignalKind, bar model.Candle, rsi float64, lv Levels) model.Signal {
	return model.Signal{
		Symbol:          f.Series.Instrument.Symbol,
		InstrumentKey:   f.Series.Instrument.Key,
		Kind:            kind,
		EntryPrice:      lv.Entry,
		StopLoss:        lv.StopLoss,
		Target:          lv.Target,
		RSIAtSignal:     rsi,
		SignalDate:      bar.Date(),
		StopLossPercent: lv.StopLossPercent,
	}
}

// ClassifyLatest runs the live-scan mode: only the most recent bar is evaluated.
func ClassifyLatest(f *calculator.Frame, cfg Config) (model.Signal, bool) {
	return Classify(f, f.Len()-1, cfg)
}
