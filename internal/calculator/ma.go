package calculator

import (
	"errors"
	"math"

	"github.com/bantoinese83/Portfolio-Watchdog/internal/model"
)

// CalculateSMA computes the simple moving average of the last `period` prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// SMASeries computes a trailing mean over up to `period` values. Rows with fewer than
// minPeriods observations are NaN.
func SMASeries(values []float64, period, minPeriods int) ([]float64, error) {
	if period <= 0 || minPeriods <= 0 || minPeriods > period {
		return nil, errors.New("invalid SMA window")
	}
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		n := i + 1
		if n > period {
			n = period
		}
		if n < minPeriods {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(n)
	}
	return out, nil
}

// MomentumSeries returns the day-over-day change of values; index 0 is NaN.
func MomentumSeries(values []float64) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = values[i] - values[i-1]
	}
	return out
}

// Closes extracts closing prices.
func Closes(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
