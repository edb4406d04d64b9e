package collector

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"SwingSentinel/internal/model"
)

// MockFetcher returns fixed bars per symbol for development and testing.
type MockFetcher struct {
	mu     sync.Mutex
	Bars   map[string][]model.Candle
	Errs   map[string]error
	Delays map[string]time.Duration
	calls  map[string]int
}

func NewMockFetcher() *MockFetcher {
	return &MockFetcher{
		Bars:   make(map[string][]model.Candle),
		Errs:   make(map[string]error),
		Delays: make(map[string]time.Duration),
		calls:  make(map[string]int),
	}
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyCandles(ctx context.Context, inst model.Instrument, _, end time.Time) (model.Series, error) {
	m.mu.Lock()
	m.calls[inst.Symbol]++
	bars, ok := m.Bars[inst.Symbol]
	err := m.Errs[inst.Symbol]
	delay := m.Delays[inst.Symbol]
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return model.Series{}, ctx.Err()
		case <-time.After(delay):
		}
	}
	if err != nil {
		return model.Series{}, err
	}
	if !ok || len(bars) == 0 {
		return model.Series{}, fmt.Errorf("mock %s: %w", inst.Symbol, ErrNoData)
	}
	if !end.IsZero() {
		bars = clip(bars, end)
	}
	return model.Series{Instrument: inst, Candles: bars, FetchedAt: time.Now()}, nil
}

// Calls reports how many times a symbol was requested.
func (m *MockFetcher) Calls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[symbol]
}

// GenerateTrendBars builds count zig-zag bars rising about 0.2% per bar.
func GenerateTrendBars(start time.Time, basePrice float64, count int) []model.Candle {
	bars := make([]model.Candle, 0, count)
	p := basePrice
	for i := 0; i < count; i++ {
		step := 0.006
		if i%3 == 2 {
			step = -0.006
		}
		o := p
		c := p * (1 + step)
		p = c
		bars = append(bars, model.Candle{
			Time:   start.AddDate(0, 0, i),
			Open:   o,
			High:   math.Max(o, c) * 1.003,
			Low:    math.Min(o, c) * 0.997,
			Close:  c,
			Volume: 1000,
		})
	}
	return bars
}

// GenerateBounceBars builds an uptrend, a three-bar pullback and a final
// green candle that dips below SMA44 and closes back above it. With
// confirmVolume the last bar trades above its 20-bar volume average.
func GenerateBounceBars(start time.Time, confirmVolume bool) []model.Candle {
	bars := GenerateTrendBars(start, 100, 60)
	p := bars[len(bars)-1].Close
	for k := 0; k < 3; k++ {
		o := p
		c := p * 0.99
		p = c
		bars = append(bars, model.Candle{
			Time:   start.AddDate(0, 0, len(bars)),
			Open:   o,
			High:   o * 1.002,
			Low:    c * 0.998,
			Close:  c,
			Volume: 900,
		})
	}
	vol := int64(500)
	if confirmVolume {
		vol = 2000
	}
	bars = append(bars, model.Candle{
		Time:   start.AddDate(0, 0, len(bars)),
		Open:   p,
		High:   110.44,
		Low:    108.5,
		Close:  110,
		Volume: vol,
	})
	return bars
}

// GenerateBreakoutBars extends the bounce series with a green bar above
// SMA44 and a next bar that clears its high by more than half a percent.
func GenerateBreakoutBars(start time.Time) []model.Candle {
	bars := GenerateBounceBars(start, true)
	n := len(bars)
	return append(bars,
		model.Candle{Time: start.AddDate(0, 0, n), Open: 110, High: 111.2, Low: 109.8, Close: 111, Volume: 1500},
		model.Candle{Time: start.AddDate(0, 0, n+1), Open: 111, High: 112.5, Low: 110.8, Close: 112.2, Volume: 1500},
	)
}
