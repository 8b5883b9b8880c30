package calculator

import (
	"fmt"
	"math"

	"github.com/bantoinese83/Portfolio-Watchdog/internal/model"
)

// ValidateBars checks OHLC ordering, price sanity and strictly increasing timestamps.
func ValidateBars(bars []model.OHLCV) error {
	for i, b := range bars {
		for _, p := range [...]float64{b.Open, b.High, b.Low, b.Close} {
			if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
				return fmt.Errorf("bar %d (%s): non-positive or non-finite price: %w", i, b.Time.Format("2006-01-02"), ErrMalformedBar)
			}
		}
		if b.Volume < 0 || math.IsNaN(b.Volume) {
			return fmt.Errorf("bar %d (%s): invalid volume %v: %w", i, b.Time.Format("2006-01-02"), b.Volume, ErrMalformedBar)
		}
		if b.Low > b.High || b.High < math.Max(b.Open, b.Close) || b.Low > math.Min(b.Open, b.Close) {
			return fmt.Errorf("bar %d (%s): o=%.4f h=%.4f l=%.4f c=%.4f out of order: %w",
				i, b.Time.Format("2006-01-02"), b.Open, b.High, b.Low, b.Close, ErrMalformedBar)
		}
		if i > 0 && !b.Time.After(bars[i-1].Time) {
			return fmt.Errorf("bar %d (%s): timestamp not after previous bar: %w", i, b.Time.Format("2006-01-02"), ErrMalformedBar)
		}
	}
	return nil
}
