package calculator

import (
	"errors"
	"math"

	"github.com/bantoinese83/Portfolio-Watchdog/internal/model"
)

// RollingMax returns, for each index, the maximum of values over the trailing window
// ending at that index. Partial windows at the start use what is available.
func RollingMax(values []float64, window int) ([]float64, error) {
	if window <= 0 {
		return nil, errors.New("window must be positive")
	}
	out := make([]float64, len(values))
	// Monotonic deque of indices with decreasing values.
	deque := make([]int, 0, window)
	for i, v := range values {
		for len(deque) > 0 && values[deque[len(deque)-1]] <= v {
			deque = deque[:len(deque)-1]
		}
		deque = append(deque, i)
		if deque[0] <= i-window {
			deque = deque[1:]
		}
		out[i] = values[deque[0]]
	}
	return out, nil
}

// WindowHigh scans the most recent `window` bars and returns the highest High.
func WindowHigh(bars []model.OHLCV, window int) (float64, error) {
	if len(bars) == 0 {
		return 0, errors.New("no bars provided")
	}
	if window <= 0 {
		return 0, errors.New("window must be positive")
	}
	start := len(bars) - window
	if start < 0 {
		start = 0
	}
	high := math.Inf(-1)
	for i := start; i < len(bars); i++ {
		if bars[i].High > high {
			high = bars[i].High
		}
	}
	return high, nil
}
