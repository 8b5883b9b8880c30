package strategy

import "github.com/bantoinese83/Portfolio-Watchdog/internal/model"

// floatSlack absorbs rounding at exact threshold boundaries.
const floatSlack = 1e-9

// FindMajorSwingLows locates weekly swing lows, most recent last.
//
// Bar i is a candidate when its Low is strictly below the `lookback` bars before it and
// no higher than the `lookback` bars after it, so equal lows resolve to the earlier bar.
// A candidate is confirmed when it sits at least `prominence` percent below the mean Low
// of its own [i-lookback, i+lookback] window. Series shorter than 2*lookback+1 yield nil.
func FindMajorSwingLows(weekly []model.OHLCV, lookback int, prominence float64) []model.SwingLow {
	n := len(weekly)
	if lookback <= 0 || n < 2*lookback+1 {
		return nil
	}

	var lows []model.SwingLow
	for i := lookback; i < n-lookback; i++ {
		low := weekly[i].Low
		if !isCandidateLow(weekly, i, lookback) {
			continue
		}

		sum := 0.0
		for j := i - lookback; j <= i+lookback; j++ {
			sum += weekly[j].Low
		}
		mean := sum / float64(2*lookback+1)
		if mean <= 0 {
			continue
		}
		depth := (mean - low) * 100 / mean
		if depth+floatSlack < prominence {
			continue
		}

		lows = append(lows, model.SwingLow{
			Index:      i,
			Time:       weekly[i].Time,
			Price:      low,
			Prominence: depth,
		})
	}
	return lows
}

func isCandidateLow(weekly []model.OHLCV, i, lookback int) bool {
	low := weekly[i].Low
	for j := i - lookback; j < i; j++ {
		if weekly[j].Low <= low {
			return false
		}
	}
	for j := i + 1; j <= i+lookback; j++ {
		if weekly[j].Low < low {
			return false
		}
	}
	return true
}

// LastSwingLow returns the most recent confirmed swing low, or nil.
func LastSwingLow(lows []model.SwingLow) *model.SwingLow {
	if len(lows) == 0 {
		return nil
	}
	last := lows[len(lows)-1]
	return &last
}
