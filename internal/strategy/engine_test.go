package strategy

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bantoinese83/Portfolio-Watchdog/internal/model"
)

// weekdayBars builds flat daily bars (O=H=L=C) on consecutive weekdays from Monday 2024-01-01.
func weekdayBars(closes ...float64) []model.OHLCV {
	bars := make([]model.OHLCV, 0, len(closes))
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, c := range closes {
		for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			day = day.AddDate(0, 0, 1)
		}
		bars = append(bars, model.OHLCV{Time: day, Open: c, High: c, Low: c, Close: c, Volume: 1_000_000})
		day = day.AddDate(0, 0, 1)
	}
	return bars
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func concat(parts ...[]float64) []float64 {
	var out []float64
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Weekly structure 140, 135, 120, 135, 140 gives a confirmed swing low at 120.
func swingBase() []float64 {
	return concat(repeat(140, 5), repeat(135, 5), repeat(120, 5), repeat(135, 5), repeat(140, 5))
}

func steadyRise() []model.OHLCV {
	closes := make([]float64, 90)
	for i := range closes {
		closes[i] = 100 + 50*float64(i)/89
	}
	return weekdayBars(closes...)
}

func breakdown() []model.OHLCV {
	return weekdayBars(concat(swingBase(), repeat(145, 5), repeat(150, 5), []float64{150, 140, 130, 120, 115})...)
}

// Rally to 150, then a 12-day slide into the 61.8% level where RSI bottoms near 27 and
// turns up over the last two sessions.
func pullbackWithRecovery() []model.OHLCV {
	var rally, slide []float64
	for i := 1; i <= 10; i++ {
		rally = append(rally, 140+float64(i))
	}
	for i := 1; i <= 12; i++ {
		slide = append(slide, 150-1.5*float64(i))
	}
	return weekdayBars(concat(swingBase(), rally, slide, []float64{133, 134})...)
}

func TestClassify_SteadyRiseIsGreen(t *testing.T) {
	res := Classify("aapl", steadyRise(), DefaultParams())

	assert.Equal(t, "AAPL", res.Ticker)
	assert.Equal(t, model.StatusGreen, res.Status)
	assert.Equal(t, "🟢", res.Emoji)
	assert.InDelta(t, 150.0, res.Price, 1e-9)
	assert.Contains(t, res.Note, "new highs")
	assert.Contains(t, res.Note, "structure intact")
	assert.Nil(t, res.Snapshot.SwingLow)
	assert.True(t, res.Snapshot.RSI.Valid)
	assert.Equal(t, 100.0, res.Snapshot.RSI.Value)
	assert.True(t, res.Snapshot.SMA.Valid)
}

func TestClassify_PullbackToRetracementIsYellow(t *testing.T) {
	res := Classify("MSFT", pullbackWithRecovery(), DefaultParams())

	require.Equal(t, model.StatusYellow, res.Status, res.Note)
	assert.Equal(t, 134.0, res.Price)
	require.NotNil(t, res.Snapshot.SwingLow)
	assert.Equal(t, 120.0, res.Snapshot.SwingLow.Price)

	ret := res.Snapshot.Retracement
	assert.True(t, ret.Applicable)
	assert.True(t, ret.NearSupport)
	assert.Equal(t, 150.0, ret.High)
	assert.InDelta(t, 131.46, ret.Level, 1e-9)

	div := res.Snapshot.Divergence
	assert.True(t, div.Positive)
	assert.Less(t, div.TroughRSI, 30.0)
	assert.Greater(t, div.RecoveryRSI, div.TroughRSI)
	assert.Equal(t, 46, div.TroughIndex)
	assert.Equal(t, 47, div.RecoveryIndex)
	assert.InDelta(t, 131.46, div.Support, 1e-9)

	assert.Contains(t, res.Note, "61.8% Fibonacci retracement")
	assert.Contains(t, res.Note, "hidden bullish divergence")
	assert.Contains(t, res.Note, "RSI recovered from 26.9 to 30.8")
}

func TestClassify_BreakBelowSwingLowIsRed(t *testing.T) {
	res := Classify("TSLA", breakdown(), DefaultParams())

	assert.Equal(t, model.StatusRed, res.Status)
	assert.Equal(t, "🔴", res.Emoji)
	assert.Equal(t, 115.0, res.Price)
	assert.Contains(t, res.Note, "structure broken")
	assert.Contains(t, res.Note, "$120.00")
}

func TestClassify_InsufficientData(t *testing.T) {
	res := Classify("NVDA", weekdayBars(1, 2, 3, 4, 5), DefaultParams())

	assert.Equal(t, model.StatusError, res.Status)
	assert.Contains(t, res.Note, "insufficient history")
	assert.Equal(t, 5.0, res.Price)

	res = Classify("NVDA", nil, DefaultParams())
	assert.Equal(t, model.StatusError, res.Status)
	assert.True(t, res.AsOf.IsZero())
}

func TestClassify_MalformedBar(t *testing.T) {
	bars := pullbackWithRecovery()
	bars[10].Low = bars[10].High + 1

	res := Classify("AMD", bars, DefaultParams())
	assert.Equal(t, model.StatusError, res.Status)
	assert.Contains(t, res.Note, "malformed bar")
}

func TestClassify_InvalidParams(t *testing.T) {
	p := DefaultParams()
	p.SwingLookback = 0

	res := Classify("AMD", steadyRise(), p)
	assert.Equal(t, model.StatusError, res.Status)
	assert.Contains(t, res.Note, "swing_lookback")
}

func TestClassify_NoStructureFallsBackToYellow(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + 50*float64(i)/59
	}
	closes = append(closes, 149, 148, 147, 146, 145)

	res := Classify("META", weekdayBars(closes...), DefaultParams())
	assert.Equal(t, model.StatusYellow, res.Status)
	assert.Nil(t, res.Snapshot.SwingLow)
	assert.Contains(t, res.Note, "insufficient structural confirmation")
}

func TestClassify_TrendBreakExit(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + 50*float64(i)/59
	}
	for i := 1; i <= 10; i++ {
		closes = append(closes, 150-4*float64(i))
	}
	bars := weekdayBars(closes...)

	p := DefaultParams()
	res := Classify("INTC", bars, p)
	assert.Equal(t, model.StatusYellow, res.Status)

	p.TrendBreakExit = true
	res = Classify("INTC", bars, p)
	assert.Equal(t, model.StatusRed, res.Status)
	assert.Contains(t, res.Note, "trend break")
}

func TestClassify_Deterministic(t *testing.T) {
	for _, bars := range [][]model.OHLCV{steadyRise(), pullbackWithRecovery(), breakdown()} {
		first := Classify("SPY", bars, DefaultParams())
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, Classify("SPY", bars, DefaultParams()))
		}
	}
}

func TestClassify_StatusPartition(t *testing.T) {
	walk := make([]float64, 300)
	price := 100.0
	for i := range walk {
		price *= 1 + 0.02*math.Sin(float64(i)*0.37) + 0.01*math.Cos(float64(i)*1.3)
		walk[i] = price
	}

	inputs := [][]model.OHLCV{
		nil,
		weekdayBars(1, 2, 3),
		steadyRise(),
		pullbackWithRecovery(),
		breakdown(),
		weekdayBars(walk...),
		weekdayBars(walk[:40]...),
	}
	valid := map[model.Status]bool{
		model.StatusGreen: true, model.StatusYellow: true, model.StatusRed: true, model.StatusError: true,
	}
	for i, bars := range inputs {
		res := Classify("X", bars, DefaultParams())
		assert.True(t, valid[res.Status], "input %d produced %q", i, res.Status)
		assert.NotEmpty(t, res.Note, "input %d", i)
		assert.Equal(t, res.Status.Emoji(), res.Emoji)
	}
}

func TestDecide_RedTakesPrecedence(t *testing.T) {
	s := Signals{
		Close:           115,
		HighWater:       150,
		HighWaterWindow: 20,
		Swing:           &model.SwingLow{Price: 120},
		Retracement:     model.RetracementLevel{Applicable: true, NearSupport: true, Level: 116},
		Divergence:      model.DivergenceSignal{Positive: true, TroughRSI: 25, RecoveryRSI: 35},
		RetracementPct:  61.8,
	}
	status, note := Decide(s)
	assert.Equal(t, model.StatusRed, status)
	assert.Contains(t, note, "structure broken")
}

func TestDecide_Cascade(t *testing.T) {
	swing := &model.SwingLow{Price: 120}
	tests := []struct {
		name   string
		s      Signals
		status model.Status
		note   string
	}{
		{
			name:   "green above swing",
			s:      Signals{Close: 150, HighWater: 150, HighWaterWindow: 20, Swing: swing},
			status: model.StatusGreen,
			note:   "structure intact above swing low $120.00",
		},
		{
			name:   "yellow on support only",
			s:      Signals{Close: 132, HighWater: 150, HighWaterWindow: 20, Swing: swing, RetracementPct: 61.8, Retracement: model.RetracementLevel{Applicable: true, NearSupport: true, Level: 131.46}},
			status: model.StatusYellow,
			note:   "61.8% Fibonacci",
		},
		{
			name:   "yellow on divergence only",
			s:      Signals{Close: 140, HighWater: 150, HighWaterWindow: 20, Swing: swing, Divergence: model.DivergenceSignal{Positive: true, TroughRSI: 28, RecoveryRSI: 35, Support: 120}},
			status: model.StatusYellow,
			note:   "RSI recovered from 28.0 to 35.0",
		},
		{
			name:   "correction without signal",
			s:      Signals{Close: 140, HighWater: 150, HighWaterWindow: 20, Swing: swing},
			status: model.StatusYellow,
			note:   "insufficient confirmation for entry",
		},
		{
			name:   "no structure below high",
			s:      Signals{Close: 140, HighWater: 150, HighWaterWindow: 20},
			status: model.StatusYellow,
			note:   "insufficient structural confirmation",
		},
		{
			name:   "close equal to swing low is not broken",
			s:      Signals{Close: 120, HighWater: 150, HighWaterWindow: 20, Swing: swing, Divergence: model.DivergenceSignal{Positive: true}},
			status: model.StatusYellow,
			note:   "insufficient confirmation",
		},
		{
			name:   "trend break",
			s:      Signals{Close: 130, HighWater: 150, HighWaterWindow: 20, TrendBreak: true, TrendWindow: 200, SMA: model.Reading{Value: 140, Valid: true}},
			status: model.StatusRed,
			note:   "trend break",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, note := Decide(tt.s)
			assert.Equal(t, tt.status, status)
			assert.Contains(t, note, tt.note)
		})
	}
}

func TestParams_MinBarsAndValidate(t *testing.T) {
	p := DefaultParams()
	require.NoError(t, p.Validate())
	assert.Equal(t, 25, p.MinBars())
	assert.Equal(t, 5, p.MinWeeklyBars())

	p.RSIPeriod = 40
	assert.Equal(t, 41, p.MinBars())

	bad := DefaultParams()
	bad.RetracementRatio = 1.2
	assert.Error(t, bad.Validate())

	bad = DefaultParams()
	bad.OversoldRSI = 0
	assert.Error(t, bad.Validate())
}
