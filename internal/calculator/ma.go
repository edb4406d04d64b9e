package calculator

import "SwingSentinel/internal/model"

// SMASeries returns the trailing simple moving average for every index.
// Index i is defined once i >= period-1 and depends only on values[..i].
func SMASeries(values []float64, period int) []Value {
	out := allNone(len(values))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		out[i] = Some(windowMean(values, i-period+1, i+1))
	}
	return out
}

// windowMean averages values[from:to]. Each window is summed from scratch so
// a reading never carries rounding drift from earlier bars.
func windowMean(values []float64, from, to int) float64 {
	sum := 0.0
	for i := from; i < to; i++ {
		sum += values[i]
	}
	return sum / float64(to-from)
}

func extractCloses(bars []model.Candle) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

func extractVolumes(bars []model.Candle) []float64 {
	vols := make([]float64, len(bars))
	for i, b := range bars {
		vols[i] = float64(b.Volume)
	}
	return vols
}
