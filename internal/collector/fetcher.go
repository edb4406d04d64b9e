package collector

import (
	"context"
	"errors"
	"time"

	"SwingSentinel/internal/model"
)

// ErrNoData is returned when a source answers successfully but without bars.
var ErrNoData = errors.New("no candles returned")

// Fetcher defines the interface for fetching daily candles. Implementations
// return bars in ascending date order, one per day, none after end.
type Fetcher interface {
	FetchDailyCandles(ctx context.Context, inst model.Instrument, start, end time.Time) (model.Series, error)
	Name() string
}

// clip drops bars dated after end and normalises order and duplicates.
func clip(bars []model.Candle, end time.Time) []model.Candle {
	bars = model.NormalizeCandles(bars)
	ey, em, ed := end.Date()
	limit := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	n := len(bars)
	for n > 0 && bars[n-1].Date().After(limit) {
		n--
	}
	return bars[:n]
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}
