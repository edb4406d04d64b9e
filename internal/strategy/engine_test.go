package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SwingSentinel/internal/calculator"
	"SwingSentinel/internal/collector"
	"SwingSentinel/internal/model"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// frameFixture builds a 50-bar frame with hand-set indicator columns:
// SMA44 rises 0.1 per bar from 100, RSI is 50 and volume average 1500.
type frameFixture struct {
	bars   []model.Candle
	sma    []calculator.Value
	rsi    []calculator.Value
	volAvg []calculator.Value
}

func newFixture() *frameFixture {
	n := 50
	fx := &frameFixture{
		bars:   make([]model.Candle, n),
		sma:    make([]calculator.Value, n),
		rsi:    make([]calculator.Value, n),
		volAvg: make([]calculator.Value, n),
	}
	for i := 0; i < n; i++ {
		sma := 100 + 0.1*float64(i)
		fx.sma[i] = calculator.Some(sma)
		fx.rsi[i] = calculator.Some(50)
		fx.volAvg[i] = calculator.Some(1500)
		p := sma + 3
		fx.bars[i] = model.Candle{Time: day0.AddDate(0, 0, i), Open: p, High: p + 0.5, Low: p - 0.5, Close: p, Volume: 1000}
	}
	return fx
}

func (fx *frameFixture) frame() *calculator.Frame {
	return &calculator.Frame{
		Series:   model.Series{Instrument: model.Instrument{Symbol: "TEST", Key: "NSE_EQ|1"}, Candles: fx.bars},
		SMA44:    fx.sma,
		SMA20:    make([]calculator.Value, len(fx.bars)),
		VolAvg20: fx.volAvg,
		RSI14:    fx.rsi,
	}
}

// bounce sets up case A on the last bar (SMA there is 104.9).
func (fx *frameFixture) bounce() *frameFixture {
	fx.bars[49] = model.Candle{Time: day0.AddDate(0, 0, 49), Open: 104, High: 107, Low: 105.0, Close: 106, Volume: 2000}
	return fx
}

// doubleDip sets up case B: two red candles, the later one touching SMA, then a recovery.
func (fx *frameFixture) doubleDip() *frameFixture {
	fx.bars[47] = model.Candle{Time: day0.AddDate(0, 0, 47), Open: 106, High: 106.2, Low: 105.3, Close: 105.5, Volume: 1000}
	fx.bars[48] = model.Candle{Time: day0.AddDate(0, 0, 48), Open: 105.5, High: 105.6, Low: 104.6, Close: 104.8, Volume: 1000}
	fx.bars[49] = model.Candle{Time: day0.AddDate(0, 0, 49), Open: 105.5, High: 107, Low: 105.3, Close: 106.5, Volume: 2000}
	return fx
}

func TestClassify_CaseABounce(t *testing.T) {
	f := newFixture().bounce().frame()
	sig, ok := ClassifyLatest(f, Production())
	require.True(t, ok)
	assert.Equal(t, model.KindBounce, sig.Kind)
	assert.Equal(t, "TEST", sig.Symbol)
	assert.Equal(t, "NSE_EQ|1", sig.InstrumentKey)
	assert.Equal(t, 107.0, sig.EntryPrice)
	assert.InDelta(t, 104.9, sig.StopLoss, 1e-9)
	assert.Equal(t, sig.EntryPrice+2*(sig.EntryPrice-sig.StopLoss), sig.Target)
	assert.Equal(t, 50.0, sig.RSIAtSignal)
	assert.Equal(t, day0.AddDate(0, 0, 49), sig.SignalDate)
	assert.True(t, sig.EntryDate.IsZero())
}

func TestClassify_CaseBDoubleDip(t *testing.T) {
	f := newFixture().doubleDip().frame()
	sig, ok := ClassifyLatest(f, Production())
	require.True(t, ok)
	assert.Equal(t, model.KindDoubleDip, sig.Kind)
	assert.Equal(t, 107.0, sig.EntryPrice)
	assert.InDelta(t, 104.9, sig.StopLoss, 1e-9)
}

func TestClassify_CaseBNeedsBothRed(t *testing.T) {
	fx := newFixture().doubleDip()
	fx.bars[47].Close = 106.5 // green
	_, ok := ClassifyLatest(fx.frame(), Production())
	assert.False(t, ok)
}

func TestClassify_CaseBNeedsTouch(t *testing.T) {
	fx := newFixture().doubleDip()
	fx.bars[48].Low = 105.5
	fx.bars[47].Low = 105.5
	_, ok := ClassifyLatest(fx.frame(), Production())
	assert.False(t, ok)
}

func TestClassify_Gates(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(fx *frameFixture)
		prod   bool
		debug  bool
	}{
		{name: "baseline", mutate: func(fx *frameFixture) {}, prod: true, debug: true},
		{name: "flat sma fails slope", mutate: func(fx *frameFixture) {
			for i := range fx.sma {
				fx.sma[i] = calculator.Some(104.9)
			}
		}, prod: false, debug: true},
		{name: "declining sma fails both", mutate: func(fx *frameFixture) {
			for i := range fx.sma {
				fx.sma[i] = calculator.Some(110 - 0.1*float64(i))
			}
		}, prod: false, debug: false},
		{name: "rsi above band", mutate: func(fx *frameFixture) { fx.rsi[49] = calculator.Some(61) }, prod: false, debug: true},
		{name: "rsi below band", mutate: func(fx *frameFixture) { fx.rsi[49] = calculator.Some(37.9) }, prod: false, debug: true},
		{name: "rsi band edges", mutate: func(fx *frameFixture) { fx.rsi[49] = calculator.Some(38) }, prod: true, debug: true},
		{name: "volume not above average", mutate: func(fx *frameFixture) { fx.bars[49].Volume = 1500 }, prod: false, debug: true},
		{name: "rsi undefined", mutate: func(fx *frameFixture) { fx.rsi[49] = calculator.None }, prod: false, debug: false},
		{name: "volume average undefined", mutate: func(fx *frameFixture) { fx.volAvg[49] = calculator.None }, prod: false, debug: false},
		{name: "old sma undefined", mutate: func(fx *frameFixture) { fx.sma[44] = calculator.None }, prod: false, debug: false},
		{name: "red candle", mutate: func(fx *frameFixture) { fx.bars[49].Close = 103.9 }, prod: false, debug: false},
		{name: "close below sma", mutate: func(fx *frameFixture) {
			fx.bars[49].Open = 103
			fx.bars[49].Close = 104.5
		}, prod: false, debug: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture().bounce()
			tt.mutate(fx)
			_, ok := ClassifyLatest(fx.frame(), Production())
			assert.Equal(t, tt.prod, ok, "production")
			_, ok = ClassifyLatest(fx.frame(), Debug())
			assert.Equal(t, tt.debug, ok, "debug")
		})
	}
}

func TestClassify_IndexBounds(t *testing.T) {
	f := newFixture().bounce().frame()
	for _, at := range []int{-1, 0, 1, 50, 100} {
		_, ok := Classify(f, at, Debug())
		assert.False(t, ok, "index %d", at)
	}
}

func TestClassify_NeverFiresDuringWarmup(t *testing.T) {
	bars := collector.GenerateBounceBars(day0, true)
	f := calculator.ComputeIndicators(model.Series{Candles: bars})
	for at := 0; at < 48; at++ {
		_, ok := Classify(f, at, Debug())
		assert.False(t, ok, "index %d", at)
	}
}

func TestClassify_ComputedSeries(t *testing.T) {
	inst := model.Instrument{Symbol: "BOUNCE", Key: "NSE_EQ|42"}
	f := calculator.ComputeIndicators(model.Series{Instrument: inst, Candles: collector.GenerateBounceBars(day0, true)})
	sig, ok := ClassifyLatest(f, Production())
	require.True(t, ok)
	assert.Equal(t, model.KindBounce, sig.Kind)
	assert.Equal(t, 110.44, sig.EntryPrice)
	assert.Equal(t, 108.5, sig.StopLoss)
	assert.InDelta(t, 114.32, sig.Target, 1e-9)
	assert.InDelta(t, 43.9, sig.RSIAtSignal, 0.5)

	weak := calculator.ComputeIndicators(model.Series{Instrument: inst, Candles: collector.GenerateBounceBars(day0, false)})
	_, ok = ClassifyLatest(weak, Production())
	assert.False(t, ok, "volume below its average must not fire in production")
	_, ok = ClassifyLatest(weak, Debug())
	assert.True(t, ok)
}

func TestSlopeAngle(t *testing.T) {
	fx := newFixture()
	angle, ok := SlopeAngle(fx.frame(), 49, 5)
	require.True(t, ok)
	// rise from 104.4 to 104.9 is ~0.479%, atan2(0.479, 5) ~ 5.47 degrees
	assert.InDelta(t, 5.47, angle, 0.01)

	_, ok = SlopeAngle(fx.frame(), 3, 5)
	assert.False(t, ok)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Production().Validate())
	assert.NoError(t, Debug().Validate())
	assert.NoError(t, DefaultBreakout().Validate())

	bad := Production()
	bad.Lookback = 0
	assert.Error(t, bad.Validate())
	bad = Production()
	bad.RSILow, bad.RSIHigh = 70, 30
	assert.Error(t, bad.Validate())
	bb := DefaultBreakout()
	bb.MaxTouchDays = 0
	assert.Error(t, bb.Validate())
}
