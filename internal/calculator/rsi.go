package calculator

// Smoothing selects how RSI averages gains and losses.
type Smoothing int

const (
	// RollingMean averages the trailing period deltas with equal weight.
	RollingMean Smoothing = iota
	// Wilder seeds with a simple mean and then applies Wilder's exponential smoothing.
	Wilder
)

func (s Smoothing) String() string {
	if s == Wilder {
		return "wilder"
	}
	return "rolling"
}

// RSISeries computes RSI for every index of closes. Index i is defined once
// period deltas are available (i >= period) and the averages are not both zero.
func RSISeries(closes []float64, period int, smoothing Smoothing) []Value {
	out := allNone(len(closes))
	if period <= 0 || len(closes) < period+1 {
		return out
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	if smoothing == Wilder {
		avgGain := windowMean(gains, 1, period+1)
		avgLoss := windowMean(losses, 1, period+1)
		out[period] = rsiFromAverages(avgGain, avgLoss)
		p := float64(period)
		for i := period + 1; i < len(closes); i++ {
			avgGain = (avgGain*(p-1) + gains[i]) / p
			avgLoss = (avgLoss*(p-1) + losses[i]) / p
			out[i] = rsiFromAverages(avgGain, avgLoss)
		}
		return out
	}

	for i := period; i < len(closes); i++ {
		avgGain := windowMean(gains, i-period+1, i+1)
		avgLoss := windowMean(losses, i-period+1, i+1)
		out[i] = rsiFromAverages(avgGain, avgLoss)
	}
	return out
}

// rsiFromAverages saturates to 100 when there were only gains and is
// undefined when the window had no movement at all.
func rsiFromAverages(avgGain, avgLoss float64) Value {
	if avgLoss == 0 {
		if avgGain > 0 {
			return Some(100)
		}
		return None
	}
	rs := avgGain / avgLoss
	rsi := 100.0 - 100.0/(1.0+rs)
	if rsi < 0 {
		rsi = 0
	}
	if rsi > 100 {
		rsi = 100
	}
	return Some(rsi)
}
