package strategy

import (
	"fmt"
	"math"
	"strings"

	"github.com/bantoinese83/Portfolio-Watchdog/internal/calculator"
	"github.com/bantoinese83/Portfolio-Watchdog/internal/model"
)

// Analysis holds every intermediate product of one classification.
type Analysis struct {
	Frame       *model.IndicatorFrame
	Weekly      []model.OHLCV
	SwingLows   []model.SwingLow
	Swing       *model.SwingLow
	Retracement model.RetracementLevel
	Divergence  model.DivergenceSignal
	Signals     Signals
}

// Signals is the input of the decision cascade.
type Signals struct {
	Close           float64
	HighWater       float64
	HighWaterWindow int
	Swing           *model.SwingLow
	Retracement     model.RetracementLevel
	RetracementPct  float64 // ratio expressed in percent, for notes
	Divergence      model.DivergenceSignal
	SMA             model.Reading
	TrendWindow     int
	TrendBreak      bool
}

// Analyze validates the daily series and computes all signals.
func Analyze(daily []model.OHLCV, p Params) (*Analysis, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if len(daily) < p.MinBars() {
		return nil, fmt.Errorf("need at least %d daily bars, got %d: %w", p.MinBars(), len(daily), calculator.ErrInsufficientData)
	}
	if err := calculator.ValidateBars(daily); err != nil {
		return nil, err
	}

	weekly := calculator.ResampleWeekly(daily)
	if len(weekly) < p.MinWeeklyBars() {
		return nil, fmt.Errorf("need at least %d weekly bars, got %d: %w", p.MinWeeklyBars(), len(weekly), calculator.ErrInsufficientData)
	}

	frame, err := calculator.ComputeIndicators(daily, p.frameSpec())
	if err != nil {
		return nil, err
	}

	last := len(daily) - 1
	highWater, ok := frame.HighWaterAt(last)
	if !ok {
		return nil, fmt.Errorf("high water undefined at last bar: %w", calculator.ErrInsufficientData)
	}

	swings := FindMajorSwingLows(weekly, p.SwingLookback, p.SwingProminence)
	swing := LastSwingLow(swings)
	ret := EvaluateRetracement(daily, swing, p.RetracementWindow, p.RetracementRatio, p.RetracementTolerance)
	div := CheckHiddenBullishDivergence(daily, frame, swing, ret, p)

	closePrice := daily[last].Close
	sma := model.ReadingOf(frame.SMAAt(last))

	return &Analysis{
		Frame:       frame,
		Weekly:      weekly,
		SwingLows:   swings,
		Swing:       swing,
		Retracement: ret,
		Divergence:  div,
		Signals: Signals{
			Close:           closePrice,
			HighWater:       highWater,
			HighWaterWindow: p.HighWaterWindow,
			Swing:           swing,
			Retracement:     ret,
			RetracementPct:  p.RetracementRatio * 100,
			Divergence:      div,
			SMA:             sma,
			TrendWindow:     p.TrendWindow,
			TrendBreak:      p.TrendBreakExit && trendBroken(frame, closePrice, sma),
		},
	}, nil
}

// trendBroken reports a close under the SMA with momentum negative on the last two bars.
func trendBroken(frame *model.IndicatorFrame, closePrice float64, sma model.Reading) bool {
	if !sma.Valid || closePrice >= sma.Value {
		return false
	}
	last := frame.Len() - 1
	m1, ok1 := frame.MomentumAt(last)
	m2, ok2 := frame.MomentumAt(last - 1)
	return ok1 && ok2 && m1 < 0 && m2 < 0
}

// Decide runs the ordered rule cascade; the first matching rule wins.
func Decide(s Signals) (model.Status, string) {
	// 1) RED: structure broken
	if s.Swing != nil && s.Close < s.Swing.Price {
		return model.StatusRed, fmt.Sprintf(
			"Price $%.2f closed below weekly swing low at $%.2f (structure broken).",
			s.Close, s.Swing.Price)
	}
	if s.TrendBreak {
		return model.StatusRed, fmt.Sprintf(
			"Price $%.2f is below the %d-day SMA $%.2f with two falling sessions (trend break).",
			s.Close, s.TrendWindow, s.SMA.Value)
	}

	belowHigh := s.Close < s.HighWater

	// 2) YELLOW: controlled correction with an entry signal
	if belowHigh && s.Swing != nil && s.Close > s.Swing.Price {
		near := s.Retracement.Applicable && s.Retracement.NearSupport
		if near || s.Divergence.Positive {
			parts := []string{fmt.Sprintf(
				"Correction: price $%.2f is below the %d-day high $%.2f with structure intact above swing low $%.2f.",
				s.Close, s.HighWaterWindow, s.HighWater, s.Swing.Price)}
			if near {
				parts = append(parts, fmt.Sprintf(
					"Price is testing %.1f%% Fibonacci retracement support at $%.2f (%+.2f%%).",
					s.RetracementPct, s.Retracement.Level, s.Retracement.DistancePct))
			}
			if s.Divergence.Positive {
				parts = append(parts, fmt.Sprintf(
					"RSI recovered from %.1f to %.1f while price held support at $%.2f (hidden bullish divergence).",
					s.Divergence.TroughRSI, s.Divergence.RecoveryRSI, s.Divergence.Support))
			}
			return model.StatusYellow, strings.Join(parts, " ")
		}
	}

	// 3) GREEN: at the high-water mark with structure intact
	if !belowHigh {
		if s.Swing != nil {
			return model.StatusGreen, fmt.Sprintf(
				"Trend healthy: price $%.2f at new highs (%d-day high), structure intact above swing low $%.2f.",
				s.Close, s.HighWaterWindow, s.Swing.Price)
		}
		return model.StatusGreen, fmt.Sprintf(
			"Trend healthy: price $%.2f at new highs (%d-day high), structure intact with no weekly swing low to break.",
			s.Close, s.HighWaterWindow)
	}

	// 4) Conservative fallback
	if s.Swing == nil {
		return model.StatusYellow, fmt.Sprintf(
			"Price $%.2f is below the %d-day high $%.2f and no weekly swing low is confirmed: insufficient structural confirmation.",
			s.Close, s.HighWaterWindow, s.HighWater)
	}
	return model.StatusYellow, fmt.Sprintf(
		"Correction: price $%.2f is below the %d-day high $%.2f above swing low $%.2f, without a support test or RSI divergence: insufficient confirmation for entry.",
		s.Close, s.HighWaterWindow, s.HighWater, s.Swing.Price)
}

// Classify produces the traffic-light verdict for one ticker. It never panics on bad input;
// short, malformed or unparameterisable series yield a StatusError result.
func Classify(ticker string, daily []model.OHLCV, p Params) model.TrafficLightResult {
	res := model.TrafficLightResult{Ticker: strings.ToUpper(strings.TrimSpace(ticker))}
	if n := len(daily); n > 0 {
		res.AsOf = daily[n-1].Time
		if c := daily[n-1].Close; c > 0 && !math.IsInf(c, 0) {
			res.Price = c
		}
	}

	a, err := Analyze(daily, p)
	if err != nil {
		res.Status = model.StatusError
		res.Emoji = model.StatusError.Emoji()
		res.Note = fmt.Sprintf("Cannot classify: %v.", err)
		return res
	}

	status, note := Decide(a.Signals)
	last := len(daily) - 1
	res.Status = status
	res.Emoji = status.Emoji()
	res.Note = note
	res.Snapshot = model.Snapshot{
		RSI:         model.ReadingOf(a.Frame.RSIAt(last)),
		HighWater:   model.ReadingOf(a.Frame.HighWaterAt(last)),
		SMA:         a.Signals.SMA,
		Momentum:    model.ReadingOf(a.Frame.MomentumAt(last)),
		SwingLow:    a.Swing,
		Retracement: a.Retracement,
		Divergence:  a.Divergence,
	}
	return res
}
