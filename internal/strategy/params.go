package strategy

import (
	"errors"
	"fmt"

	"github.com/bantoinese83/Portfolio-Watchdog/internal/calculator"
)

// Params holds every tunable threshold of the classifier. It is passed by value into
// each Classify call; the engine keeps no defaults of its own beyond DefaultParams.
type Params struct {
	RSIPeriod            int     `yaml:"rsi_period" json:"rsi_period"`
	HighWaterWindow      int     `yaml:"high_water_window" json:"high_water_window"`
	TrendWindow          int     `yaml:"trend_window" json:"trend_window"`
	TrendMinPeriods      int     `yaml:"trend_min_periods" json:"trend_min_periods"`
	OversoldRSI          float64 `yaml:"oversold_rsi" json:"oversold_rsi"`
	SwingLookback        int     `yaml:"swing_lookback" json:"swing_lookback"`
	SwingProminence      float64 `yaml:"swing_prominence" json:"swing_prominence"` // percent
	RetracementWindow    int     `yaml:"retracement_window" json:"retracement_window"`
	RetracementRatio     float64 `yaml:"retracement_ratio" json:"retracement_ratio"`
	RetracementTolerance float64 `yaml:"retracement_tolerance" json:"retracement_tolerance"` // percent
	DivergenceLookback   int     `yaml:"divergence_lookback" json:"divergence_lookback"`
	// TrendBreakExit adds a RED rule for closes under the trend SMA with two falling days.
	TrendBreakExit bool `yaml:"trend_break_exit" json:"trend_break_exit"`
}

// DefaultParams returns the stock thresholds.
func DefaultParams() Params {
	return Params{
		RSIPeriod:            14,
		HighWaterWindow:      20,
		TrendWindow:          200,
		TrendMinPeriods:      50,
		OversoldRSI:          30.0,
		SwingLookback:        2,
		SwingProminence:      3.0,
		RetracementWindow:    60,
		RetracementRatio:     0.618,
		RetracementTolerance: 3.0,
		DivergenceLookback:   80,
	}
}

// Validate checks that all windows are positive and thresholds are in range.
func (p Params) Validate() error {
	switch {
	case p.RSIPeriod <= 0:
		return errors.New("rsi_period must be positive")
	case p.HighWaterWindow <= 0:
		return errors.New("high_water_window must be positive")
	case p.TrendWindow <= 0 || p.TrendMinPeriods <= 0 || p.TrendMinPeriods > p.TrendWindow:
		return fmt.Errorf("trend window %d/%d invalid", p.TrendWindow, p.TrendMinPeriods)
	case p.OversoldRSI <= 0 || p.OversoldRSI >= 100:
		return fmt.Errorf("oversold_rsi %.2f must be in (0,100)", p.OversoldRSI)
	case p.SwingLookback <= 0:
		return errors.New("swing_lookback must be positive")
	case p.SwingProminence < 0:
		return errors.New("swing_prominence must not be negative")
	case p.RetracementWindow <= 0:
		return errors.New("retracement_window must be positive")
	case p.RetracementRatio <= 0 || p.RetracementRatio >= 1:
		return fmt.Errorf("retracement_ratio %.3f must be in (0,1)", p.RetracementRatio)
	case p.RetracementTolerance < 0:
		return errors.New("retracement_tolerance must not be negative")
	case p.DivergenceLookback <= 1:
		return errors.New("divergence_lookback must be at least 2")
	}
	return nil
}

// MinWeeklyBars is the smallest weekly series that can hold one swing-low window.
func (p Params) MinWeeklyBars() int { return 2*p.SwingLookback + 1 }

// MinBars is the smallest daily series the classifier accepts.
func (p Params) MinBars() int {
	n := p.RSIPeriod + 1
	if p.HighWaterWindow > n {
		n = p.HighWaterWindow
	}
	if w := p.MinWeeklyBars() * 5; w > n {
		n = w
	}
	return n
}

func (p Params) frameSpec() calculator.FrameSpec {
	return calculator.FrameSpec{
		RSIPeriod:       p.RSIPeriod,
		HighWaterWindow: p.HighWaterWindow,
		TrendWindow:     p.TrendWindow,
		TrendMinPeriods: p.TrendMinPeriods,
	}
}
