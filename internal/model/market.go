package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries holds raw price data for one ticker.
type PriceSeries struct {
	Symbol    string    `json:"symbol"`
	Source    string    `json:"source"`
	DailyBars []OHLCV   `json:"daily_bars"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Last returns the most recent bar and false when the series is empty.
func (p *PriceSeries) Last() (OHLCV, bool) {
	if len(p.DailyBars) == 0 {
		return OHLCV{}, false
	}
	return p.DailyBars[len(p.DailyBars)-1], true
}
