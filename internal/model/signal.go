package model

import "time"

// Status is the traffic-light verdict.
type Status string

const (
	StatusGreen  Status = "GREEN"
	StatusYellow Status = "YELLOW"
	StatusRed    Status = "RED"
	StatusError  Status = "ERROR"
)

// Emoji returns the display glyph for the status.
func (s Status) Emoji() string {
	switch s {
	case StatusGreen:
		return "🟢"
	case StatusYellow:
		return "🟡"
	case StatusRed:
		return "🔴"
	default:
		return "⚠️"
	}
}

// Action returns the user action attached to the status.
func (s Status) Action() string {
	switch s {
	case StatusGreen:
		return "Hold / Add"
	case StatusYellow:
		return "Watch for entry"
	case StatusRed:
		return "Exit / Avoid"
	default:
		return "No verdict"
	}
}

// SwingLow is a confirmed weekly structural minimum.
type SwingLow struct {
	Index      int       `json:"index"` // into the weekly series
	Time       time.Time `json:"time"`
	Price      float64   `json:"price"`
	Prominence float64   `json:"prominence"` // percent below the local average low
}

// RetracementLevel is the 61.8% Fibonacci level between a swing low and the window high.
type RetracementLevel struct {
	Applicable  bool    `json:"applicable"`
	SwingLow    float64 `json:"swing_low"`
	High        float64 `json:"high"`
	Level       float64 `json:"level"`
	DistancePct float64 `json:"distance_pct"` // signed, close relative to level
	NearSupport bool    `json:"near_support"`
}

// DivergenceSignal reports the hidden bullish divergence heuristic.
type DivergenceSignal struct {
	Positive      bool    `json:"positive"`
	TroughIndex   int     `json:"trough_index"`
	RecoveryIndex int     `json:"recovery_index"`
	TroughRSI     float64 `json:"trough_rsi"`
	RecoveryRSI   float64 `json:"recovery_rsi"`
	Support       float64 `json:"support"`
}

// Snapshot carries the values the classifier used.
type Snapshot struct {
	RSI         Reading          `json:"rsi"`
	HighWater   Reading          `json:"high_water"`
	SMA         Reading          `json:"sma"`
	Momentum    Reading          `json:"momentum"`
	SwingLow    *SwingLow        `json:"swing_low,omitempty"`
	Retracement RetracementLevel `json:"retracement"`
	Divergence  DivergenceSignal `json:"divergence"`
}

// TrafficLightResult is the engine's output for one ticker.
type TrafficLightResult struct {
	Ticker   string    `json:"ticker"`
	Status   Status    `json:"status"`
	Emoji    string    `json:"emoji"`
	Price    float64   `json:"price"`
	Note     string    `json:"note"`
	AsOf     time.Time `json:"as_of"`
	Snapshot Snapshot  `json:"snapshot"`
}
