package strategy

import "fmt"

// Config holds the thresholds of the live bounce classifier.
type Config struct {
	MinAngleDeg         float64 // minimum SMA slope angle in degrees
	RSILow              float64
	RSIHigh             float64
	SupportTolerance    float64 // fractional band above the SMA that counts as a touch
	RequireVolumeFilter bool    // volume must exceed its 20-bar average
	Lookback            int     // bars between the two SMA readings of the slope gate
}

// Production returns the thresholds used for real scans.
func Production() Config {
	return Config{
		MinAngleDeg:         2.0,
		RSILow:              38,
		RSIHigh:             60,
		SupportTolerance:    0.002,
		RequireVolumeFilter: true,
		Lookback:            5,
	}
}

// Debug returns lenient thresholds that let most uptrending symbols through.
func Debug() Config {
	return Config{
		MinAngleDeg:         0.0,
		RSILow:              0,
		RSIHigh:             100,
		SupportTolerance:    0.2,
		RequireVolumeFilter: false,
		Lookback:            5,
	}
}

func (c Config) Validate() error {
	if c.Lookback <= 0 {
		return fmt.Errorf("lookback must be positive, got %d", c.Lookback)
	}
	if c.RSILow > c.RSIHigh {
		return fmt.Errorf("rsi band is inverted: %.1f > %.1f", c.RSILow, c.RSIHigh)
	}
	if c.SupportTolerance < 0 {
		return fmt.Errorf("support tolerance must not be negative")
	}
	return nil
}

// BreakoutConfig holds the thresholds of the historical breakout-entry scan.
type BreakoutConfig struct {
	SupportTolerance float64
	MaxTouchDays     int     // how many bars before the signal bar may hold the MA touch
	BreakoutBuffer   float64 // next bar must trade this fraction above the signal high
	RiseLookback     int     // both MAs must be higher than this many bars ago
}

func DefaultBreakout() BreakoutConfig {
	return BreakoutConfig{
		SupportTolerance: 0.001,
		MaxTouchDays:     1,
		BreakoutBuffer:   0.005,
		RiseLookback:     6,
	}
}

func (c BreakoutConfig) Validate() error {
	if c.MaxTouchDays <= 0 {
		return fmt.Errorf("max touch days must be positive, got %d", c.MaxTouchDays)
	}
	if c.RiseLookback <= 0 {
		return fmt.Errorf("rise lookback must be positive, got %d", c.RiseLookback)
	}
	if c.BreakoutBuffer < 0 || c.SupportTolerance < 0 {
		return fmt.Errorf("breakout buffer and tolerance must not be negative")
	}
	return nil
}
