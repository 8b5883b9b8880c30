package strategy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bantoinese83/Portfolio-Watchdog/internal/model"
)

func rsiFrame(rsi ...float64) *model.IndicatorFrame {
	nan := make([]float64, len(rsi))
	for i := range nan {
		nan[i] = math.NaN()
	}
	return &model.IndicatorFrame{RSI: rsi, HighWater: nan, SMA: nan, Momentum: nan}
}

func TestCheckHiddenBullishDivergence(t *testing.T) {
	p := DefaultParams()
	swing := &model.SwingLow{Price: 100}
	daily := weekdayBars(110, 105, 101, 102, 104)

	sig := CheckHiddenBullishDivergence(daily, rsiFrame(math.NaN(), 40, 29.99, 32, 35), swing, model.RetracementLevel{}, p)
	assert.True(t, sig.Positive)
	assert.Equal(t, 2, sig.TroughIndex)
	assert.Equal(t, 3, sig.RecoveryIndex)
	assert.Equal(t, 29.99, sig.TroughRSI)
	assert.Equal(t, 32.0, sig.RecoveryRSI)
	assert.Equal(t, 100.0, sig.Support)
}

func TestCheckHiddenBullishDivergence_OversoldIsStrict(t *testing.T) {
	p := DefaultParams()
	swing := &model.SwingLow{Price: 100}
	daily := weekdayBars(110, 105, 101, 102, 104)

	sig := CheckHiddenBullishDivergence(daily, rsiFrame(math.NaN(), 40, 30.0, 32, 35), swing, model.RetracementLevel{}, p)
	assert.False(t, sig.Positive)

	assert.False(t, IsOversold(30.0, 30.0))
	assert.True(t, IsOversold(29.99, 30.0))
}

func TestCheckHiddenBullishDivergence_SupportLost(t *testing.T) {
	p := DefaultParams()
	swing := &model.SwingLow{Price: 100}
	daily := weekdayBars(110, 105, 101, 95, 104)

	sig := CheckHiddenBullishDivergence(daily, rsiFrame(math.NaN(), 40, 29, 32, 35), swing, model.RetracementLevel{}, p)
	assert.False(t, sig.Positive)
}

func TestCheckHiddenBullishDivergence_CloseJustUnderSupportBreaksHold(t *testing.T) {
	p := DefaultParams()
	swing := &model.SwingLow{Price: 100}
	frame := rsiFrame(math.NaN(), 40, 29, 32, 35)

	sig := CheckHiddenBullishDivergence(weekdayBars(110, 105, 101, 98, 104), frame, swing, model.RetracementLevel{}, p)
	assert.False(t, sig.Positive)

	sig = CheckHiddenBullishDivergence(weekdayBars(110, 105, 101, 100, 104), frame, swing, model.RetracementLevel{}, p)
	assert.True(t, sig.Positive, "a close exactly on support still holds")
	assert.Equal(t, 3, sig.RecoveryIndex)
}

func TestCheckHiddenBullishDivergence_HoldsRetracementNotJustSwing(t *testing.T) {
	p := DefaultParams()
	swing := &model.SwingLow{Price: 100}
	ret := model.RetracementLevel{Applicable: true, Level: 110}
	frame := rsiFrame(math.NaN(), 40, 29, 32, 35)

	sig := CheckHiddenBullishDivergence(weekdayBars(120, 115, 111, 108, 112), frame, swing, ret, p)
	assert.False(t, sig.Positive)
	assert.Equal(t, 110.0, sig.Support)
}

func TestCheckHiddenBullishDivergence_TroughAwayFromSupport(t *testing.T) {
	p := DefaultParams()
	swing := &model.SwingLow{Price: 100}
	daily := weekdayBars(110, 105, 108, 109, 110)

	sig := CheckHiddenBullishDivergence(daily, rsiFrame(math.NaN(), 40, 29.99, 32, 35), swing, model.RetracementLevel{}, p)
	assert.False(t, sig.Positive)
}

func TestCheckHiddenBullishDivergence_OutsideLookback(t *testing.T) {
	p := DefaultParams()
	p.DivergenceLookback = 2
	swing := &model.SwingLow{Price: 100}
	daily := weekdayBars(110, 105, 101, 102, 104)

	sig := CheckHiddenBullishDivergence(daily, rsiFrame(math.NaN(), 40, 29.99, 32, 35), swing, model.RetracementLevel{}, p)
	assert.False(t, sig.Positive)
}

func TestCheckHiddenBullishDivergence_NoStructure(t *testing.T) {
	daily := weekdayBars(110, 105, 101, 102, 104)
	sig := CheckHiddenBullishDivergence(daily, rsiFrame(math.NaN(), 40, 29, 32, 35), nil, model.RetracementLevel{}, DefaultParams())
	assert.Equal(t, model.DivergenceSignal{}, sig)
}

func TestSupportReference_TighterWins(t *testing.T) {
	swing := &model.SwingLow{Price: 120}

	support, ok := SupportReference(swing, model.RetracementLevel{Applicable: true, Level: 131.46})
	assert.True(t, ok)
	assert.Equal(t, 131.46, support)

	support, _ = SupportReference(swing, model.RetracementLevel{Applicable: true, Level: 110})
	assert.Equal(t, 120.0, support)

	support, _ = SupportReference(swing, model.RetracementLevel{Level: 131.46})
	assert.Equal(t, 120.0, support)

	_, ok = SupportReference(nil, model.RetracementLevel{})
	assert.False(t, ok)
}
