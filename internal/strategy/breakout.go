package strategy

import (
	"math"

	"SwingSentinel/internal/calculator"
	"SwingSentinel/internal/model"
)

// ClassifyBreakout evaluates bar at with the historical breakout-entry rules:
// SMA20 above SMA44 with both rising, a recent touch of SMA44, a green close
// above SMA44, and a next-bar breakout above the signal high. The next bar
// must exist, so the last bar of a series never qualifies.
func ClassifyBreakout(f *calculator.Frame, at int, cfg BreakoutConfig) (model.Signal, bool) {
	if at < cfg.RiseLookback || at < cfg.MaxTouchDays || at+1 >= f.Len() {
		return model.Signal{}, false
	}

	bar := f.Bar(at)
	ma44, ok44 := f.SMA(at).Get()
	ma20, ok20 := f.FastSMA(at).Get()
	ma44Old, okOld44 := f.SMA(at - cfg.RiseLookback).Get()
	ma20Old, okOld20 := f.FastSMA(at - cfg.RiseLookback).Get()
	if !ok44 || !ok20 || !okOld44 || !okOld20 {
		return model.Signal{}, false
	}

	if !bar.Bullish() || ma20 <= ma44 || ma20 <= ma20Old || ma44 <= ma44Old {
		return model.Signal{}, false
	}
	if !touchedRecently(f, at, cfg) {
		return model.Signal{}, false
	}
	if bar.Close <= ma44 {
		return model.Signal{}, false
	}

	trigger := bar.High * (1 + cfg.BreakoutBuffer)
	next := f.Bar(at + 1)
	if next.High <= trigger {
		return model.Signal{}, false
	}

	prev := f.Bar(at - 1)
	lv := ComputeLevels(trigger, math.Min(prev.Low, bar.Low))
	rsi, _ := f.RSI(at).Get()
	sig := newSignal(f, model.KindBreakout, bar, rsi, lv)
	sig.EntryDate = next.Date()
	return sig, true
}

// touchedRecently reports whether any of the MaxTouchDays bars before at
// straddled SMA44 within the tolerance band.
func touchedRecently(f *calculator.Frame, at int, cfg BreakoutConfig) bool {
	for j := at - cfg.MaxTouchDays; j < at; j++ {
		ma, ok := f.SMA(j).Get()
		if !ok {
			continue
		}
		b := f.Bar(j)
		if b.Low <= ma*(1+cfg.SupportTolerance) && b.High >= ma*(1-cfg.SupportTolerance) {
			return true
		}
	}
	return false
}

// ScanHistory collects every bar that qualifies under the breakout rules.
func ScanHistory(f *calculator.Frame, cfg BreakoutConfig) []model.Signal {
	var out []model.Signal
	for i := cfg.RiseLookback; i <= f.Len()-2; i++ {
		if sig, ok := ClassifyBreakout(f, i, cfg); ok {
			out = append(out, sig)
		}
	}
	return out
}
