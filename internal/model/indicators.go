package model

import "math"

// IndicatorFrame holds indicator columns aligned 1:1 with a daily series.
// Undefined values (warm-up) are stored as NaN and must be read through the accessors.
type IndicatorFrame struct {
	RSI       []float64
	HighWater []float64
	SMA       []float64
	Momentum  []float64
}

// Len returns the number of aligned rows.
func (f *IndicatorFrame) Len() int { return len(f.RSI) }

func (f *IndicatorFrame) RSIAt(i int) (float64, bool)       { return at(f.RSI, i) }
func (f *IndicatorFrame) HighWaterAt(i int) (float64, bool) { return at(f.HighWater, i) }
func (f *IndicatorFrame) SMAAt(i int) (float64, bool)       { return at(f.SMA, i) }
func (f *IndicatorFrame) MomentumAt(i int) (float64, bool)  { return at(f.Momentum, i) }

func at(col []float64, i int) (float64, bool) {
	if i < 0 || i >= len(col) || math.IsNaN(col[i]) {
		return 0, false
	}
	return col[i], true
}

// Reading is an optional indicator value carried in results instead of NaN.
type Reading struct {
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

// ReadingOf wraps a (value, ok) accessor result.
func ReadingOf(v float64, ok bool) Reading {
	if !ok {
		return Reading{}
	}
	return Reading{Value: v, Valid: true}
}
