package strategy

import (
	"math"

	"github.com/bantoinese83/Portfolio-Watchdog/internal/calculator"
	"github.com/bantoinese83/Portfolio-Watchdog/internal/model"
)

// RetracementPrice returns high - ratio*(high-low).
func RetracementPrice(low, high, ratio float64) float64 {
	return high - ratio*(high-low)
}

// IsNearLevel reports whether price sits within tolerancePct percent of level, on either side.
func IsNearLevel(price, level, tolerancePct float64) bool {
	if level <= 0 {
		return false
	}
	return math.Abs(price-level)*100/level <= tolerancePct+floatSlack
}

// EvaluateRetracement computes the retracement from the swing low to the highest High of
// the last `window` daily bars and tests the latest close against it. A nil swing low or
// a window high at or below it is not applicable.
func EvaluateRetracement(daily []model.OHLCV, swing *model.SwingLow, window int, ratio, tolerancePct float64) model.RetracementLevel {
	if swing == nil || len(daily) == 0 {
		return model.RetracementLevel{}
	}
	high, err := calculator.WindowHigh(daily, window)
	if err != nil || high <= swing.Price {
		return model.RetracementLevel{SwingLow: swing.Price}
	}

	level := RetracementPrice(swing.Price, high, ratio)
	closePrice := daily[len(daily)-1].Close
	return model.RetracementLevel{
		Applicable:  true,
		SwingLow:    swing.Price,
		High:        high,
		Level:       level,
		DistancePct: (closePrice - level) * 100 / level,
		NearSupport: IsNearLevel(closePrice, level, tolerancePct),
	}
}
