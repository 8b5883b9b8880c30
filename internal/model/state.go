package model

import "time"

// WatchState tracks the last verdict per ticker between scans.
type WatchState struct {
	Statuses  map[string]TickerState `json:"statuses"`
	LastScan  time.Time              `json:"last_scan"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// TickerState is the last recorded verdict for one ticker.
type TickerState struct {
	Status    Status    `json:"status"`
	Price     float64   `json:"price"`
	ChangedAt time.Time `json:"changed_at"`
}

// Transition is a status change detected between two scans.
type Transition struct {
	Ticker string
	From   Status
	To     Status
	Price  float64
	Note   string
}
