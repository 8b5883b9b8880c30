package strategy

import "github.com/bantoinese83/Portfolio-Watchdog/internal/model"

// SupportReference picks the support level tested by the divergence heuristic: the tighter
// (higher) of the swing-low price and an applicable retracement level.
func SupportReference(swing *model.SwingLow, ret model.RetracementLevel) (float64, bool) {
	if swing == nil {
		return 0, false
	}
	support := swing.Price
	if ret.Applicable && ret.Level > support {
		support = ret.Level
	}
	return support, true
}

// CheckHiddenBullishDivergence approximates hidden bullish divergence: within the last
// `p.DivergenceLookback` bars, RSI prints below the oversold level while the close is at or
// near support, and a later bar shows a higher RSI while every close in between stays at
// or above support. This is a heuristic, not pivot-matched divergence.
func CheckHiddenBullishDivergence(daily []model.OHLCV, frame *model.IndicatorFrame, swing *model.SwingLow, ret model.RetracementLevel, p Params) model.DivergenceSignal {
	support, ok := SupportReference(swing, ret)
	if !ok || frame == nil || len(daily) == 0 || frame.Len() != len(daily) {
		return model.DivergenceSignal{}
	}

	n := len(daily)
	start := n - p.DivergenceLookback
	if start < 0 {
		start = 0
	}
	testCeiling := support * (1 + p.RetracementTolerance/100)

	// Most recent trough first.
	for t := n - 2; t >= start; t-- {
		troughRSI, ok := frame.RSIAt(t)
		if !ok || !IsOversold(troughRSI, p.OversoldRSI) || daily[t].Close > testCeiling {
			continue
		}
		for r := t + 1; r < n; r++ {
			if daily[r].Close < support {
				break
			}
			rsi, ok := frame.RSIAt(r)
			if ok && rsi > troughRSI {
				return model.DivergenceSignal{
					Positive:      true,
					TroughIndex:   t,
					RecoveryIndex: r,
					TroughRSI:     troughRSI,
					RecoveryRSI:   rsi,
					Support:       support,
				}
			}
		}
	}
	return model.DivergenceSignal{Support: support}
}

// IsOversold uses a strict comparison: an RSI equal to the threshold is not oversold.
func IsOversold(rsi, threshold float64) bool {
	return rsi < threshold
}
