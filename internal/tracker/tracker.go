package tracker

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/bantoinese83/Portfolio-Watchdog/internal/model"
)

// Tracker remembers the last verdict per ticker so alerts fire only on change.
type Tracker struct {
	mu       sync.Mutex
	state    *model.WatchState
	filePath string
	log      zerolog.Logger
}

// New creates a Tracker, loading state from disk.
func New(filePath string, log zerolog.Logger) (*Tracker, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, err
	}
	return &Tracker{state: state, filePath: filePath, log: log.With().Str("component", "tracker").Logger()}, nil
}

// Status returns the last recorded verdict for ticker.
func (t *Tracker) Status(ticker string) (model.TickerState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.state.Statuses[ticker]
	return s, ok
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() model.WatchState {
	t.mu.Lock()
	defer t.mu.Unlock()
	cp := *t.state
	cp.Statuses = make(map[string]model.TickerState, len(t.state.Statuses))
	for k, v := range t.state.Statuses {
		cp.Statuses[k] = v
	}
	return cp
}

// Update folds a scan into the state and returns the status changes, sorted by ticker.
// ERROR results leave the previous verdict in place; a ticker seen for the first time
// is recorded without a transition.
func (t *Tracker) Update(results []model.TrafficLightResult) ([]model.Transition, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now().UTC()
	var transitions []model.Transition
	for _, r := range results {
		if r.Status == model.StatusError {
			continue
		}
		prev, seen := t.state.Statuses[r.Ticker]
		next := model.TickerState{Status: r.Status, Price: r.Price, ChangedAt: prev.ChangedAt}
		if !seen || prev.Status != r.Status {
			next.ChangedAt = now
		}
		if seen && prev.Status != r.Status {
			transitions = append(transitions, model.Transition{
				Ticker: r.Ticker,
				From:   prev.Status,
				To:     r.Status,
				Price:  r.Price,
				Note:   r.Note,
			})
		}
		t.state.Statuses[r.Ticker] = next
	}
	t.state.LastScan = now

	sort.Slice(transitions, func(i, j int) bool { return transitions[i].Ticker < transitions[j].Ticker })
	for _, tr := range transitions {
		t.log.Info().Str("ticker", tr.Ticker).Str("from", string(tr.From)).Str("to", string(tr.To)).Msg("status changed")
	}
	return transitions, SaveState(t.filePath, t.state)
}

// Forget drops tickers that are no longer on the watchlist.
func (t *Tracker) Forget(keep []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	wanted := make(map[string]bool, len(keep))
	for _, k := range keep {
		wanted[k] = true
	}
	for ticker := range t.state.Statuses {
		if !wanted[ticker] {
			delete(t.state.Statuses, ticker)
		}
	}
	return SaveState(t.filePath, t.state)
}
