package calculator

import (
	"fmt"

	"github.com/bantoinese83/Portfolio-Watchdog/internal/model"
)

// FrameSpec selects the indicator windows computed by ComputeIndicators.
type FrameSpec struct {
	RSIPeriod       int
	HighWaterWindow int
	TrendWindow     int
	TrendMinPeriods int
}

// ComputeIndicators derives the aligned indicator frame for a daily series.
func ComputeIndicators(daily []model.OHLCV, spec FrameSpec) (*model.IndicatorFrame, error) {
	closes := Closes(daily)

	rsi, err := RSISeries(closes, spec.RSIPeriod)
	if err != nil {
		return nil, err
	}
	highWater, err := RollingMax(closes, spec.HighWaterWindow)
	if err != nil {
		return nil, fmt.Errorf("high water: %w", err)
	}
	sma, err := SMASeries(closes, spec.TrendWindow, spec.TrendMinPeriods)
	if err != nil {
		return nil, fmt.Errorf("sma: %w", err)
	}

	return &model.IndicatorFrame{
		RSI:       rsi,
		HighWater: highWater,
		SMA:       sma,
		Momentum:  MomentumSeries(closes),
	}, nil
}
