package model

import "time"

// Candle represents a single daily bar.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// Bullish reports whether the bar closed above its open.
func (c Candle) Bullish() bool { return c.Close > c.Open }

// Bearish reports whether the bar closed below its open.
func (c Candle) Bearish() bool { return c.Close < c.Open }

// Date truncates the bar timestamp to its calendar day.
func (c Candle) Date() time.Time {
	y, m, d := c.Time.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Series holds the daily bars of one instrument in ascending date order.
type Series struct {
	Instrument Instrument
	Candles    []Candle
	FetchedAt  time.Time
}

func (s Series) Len() int { return len(s.Candles) }

// Last returns the most recent bar, or false for an empty series.
func (s Series) Last() (Candle, bool) {
	if len(s.Candles) == 0 {
		return Candle{}, false
	}
	return s.Candles[len(s.Candles)-1], true
}

// Instrument is one entry of the scan universe.
type Instrument struct {
	Symbol string // trading symbol, e.g. "RELIANCE"
	Key    string // broker instrument key, e.g. "NSE_EQ|INE002A01018"
}
