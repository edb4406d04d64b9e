package strategy

import "math"

const (
	// MaxRiskFraction caps the distance from entry to stop.
	MaxRiskFraction = 0.02
	// RewardRatio is the target distance expressed in units of risk.
	RewardRatio = 2.0
)

// Levels are the static prices of one hypothetical trade.
type Levels struct {
	Entry           float64
	StopLoss        float64
	Target          float64
	StopLossPercent float64
}

// ComputeLevels places the stop at the structural level, but never more than
// MaxRiskFraction below entry, and the target at RewardRatio times the risk.
func ComputeLevels(entry, structuralStop float64) Levels {
	stop := math.Max(structuralStop, entry*(1-MaxRiskFraction))
	risk := entry - stop
	return Levels{
		Entry:           entry,
		StopLoss:        stop,
		Target:          entry + RewardRatio*risk,
		StopLossPercent: risk / entry * 100,
	}
}
