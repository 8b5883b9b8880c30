package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/bantoinese83/Portfolio-Watchdog/internal/model"
)

var statusOrder = []model.Status{model.StatusRed, model.StatusYellow, model.StatusGreen, model.StatusError}

// FormatScanReport formats a watchlist scan grouped by status, RED first.
func FormatScanReport(results []model.TrafficLightResult, at time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🚦 <b>Portfolio Watchdog</b> | %s\n", at.Format("2006-01-02 15:04")))

	counts := make(map[model.Status]int, len(statusOrder))
	for _, r := range results {
		counts[r.Status]++
	}
	b.WriteString(fmt.Sprintf("%s %d  %s %d  %s %d",
		model.StatusGreen.Emoji(), counts[model.StatusGreen],
		model.StatusYellow.Emoji(), counts[model.StatusYellow],
		model.StatusRed.Emoji(), counts[model.StatusRed]))
	if n := counts[model.StatusError]; n > 0 {
		b.WriteString(fmt.Sprintf("  %s %d", model.StatusError.Emoji(), n))
	}
	b.WriteString("\n")

	if len(results) == 0 {
		b.WriteString("\nWatchlist is empty.")
		return b.String()
	}

	for _, status := range statusOrder {
		if counts[status] == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("\n<b>%s %s</b> (%s)\n", status.Emoji(), status, status.Action()))
		for _, r := range results {
			if r.Status != status {
				continue
			}
			if status == model.StatusError {
				b.WriteString(fmt.Sprintf("  %s: %s\n", r.Ticker, html.EscapeString(r.Note)))
				continue
			}
			b.WriteString(fmt.Sprintf("  <b>%s</b> $%.2f: %s\n", html.EscapeString(r.Ticker), r.Price, html.EscapeString(r.Note)))
		}
	}
	return b.String()
}

// FormatResult formats a single classification with its indicator snapshot.
func FormatResult(r model.TrafficLightResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>%s</b> %s\n", r.Emoji, html.EscapeString(r.Ticker), r.Status))
	if r.Status == model.StatusError {
		b.WriteString(html.EscapeString(r.Note))
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Price: $%.2f (as of %s)\n", r.Price, r.AsOf.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Action: %s\n\n", r.Status.Action()))
	b.WriteString(html.EscapeString(r.Note))
	b.WriteString("\n\n")

	s := r.Snapshot
	if s.RSI.Valid {
		b.WriteString(fmt.Sprintf("RSI(14): %.1f\n", s.RSI.Value))
	}
	if s.HighWater.Valid {
		b.WriteString(fmt.Sprintf("High water: $%.2f\n", s.HighWater.Value))
	}
	if s.SMA.Valid {
		b.WriteString(fmt.Sprintf("SMA: $%.2f\n", s.SMA.Value))
	}
	if s.SwingLow != nil {
		b.WriteString(fmt.Sprintf("Weekly swing low: $%.2f (%s)\n", s.SwingLow.Price, s.SwingLow.Time.Format("2006-01-02")))
	} else {
		b.WriteString("Weekly swing low: none confirmed\n")
	}
	if s.Retracement.Applicable {
		b.WriteString(fmt.Sprintf("Retracement support: $%.2f (%+.2f%%)\n", s.Retracement.Level, s.Retracement.DistancePct))
	}
	if s.Divergence.Positive {
		b.WriteString(fmt.Sprintf("Hidden bullish divergence: RSI %.1f → %.1f\n", s.Divergence.TroughRSI, s.Divergence.RecoveryRSI))
	}
	return b.String()
}

// FormatTransitions formats status-change alerts. Returns "" when there are none.
func FormatTransitions(changes []model.Transition) string {
	if len(changes) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("🔔 <b>Status changes</b>\n\n")
	for _, c := range changes {
		b.WriteString(fmt.Sprintf("<b>%s</b> %s %s → %s %s at $%.2f\n",
			html.EscapeString(c.Ticker), c.From.Emoji(), c.From, c.To.Emoji(), c.To, c.Price))
		if c.To == model.StatusRed {
			b.WriteString("  ⚠️ " + html.EscapeString(c.Note) + "\n")
		}
	}
	return b.String()
}

// FormatHistory formats stored verdicts for one ticker, newest first.
func FormatHistory(ticker string, history []model.TrafficLightResult) string {
	if len(history) == 0 {
		return fmt.Sprintf("No history for %s.", html.EscapeString(ticker))
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📜 <b>%s history</b>\n\n", html.EscapeString(ticker)))
	for _, r := range history {
		b.WriteString(fmt.Sprintf("%s %s %s $%.2f\n", r.AsOf.Format("2006-01-02"), r.Emoji, r.Status, r.Price))
	}
	return b.String()
}

// FormatWatchlist lists tickers with their last known status.
func FormatWatchlist(tickers []string, state model.WatchState) string {
	if len(tickers) == 0 {
		return "Watchlist is empty."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("👀 <b>Watchlist</b> (%d)\n\n", len(tickers)))
	for _, t := range tickers {
		st, ok := state.Statuses[t]
		if !ok {
			b.WriteString(fmt.Sprintf("%s: not scanned yet\n", html.EscapeString(t)))
			continue
		}
		b.WriteString(fmt.Sprintf("%s %s $%.2f since %s\n", st.Status.Emoji(), html.EscapeString(t), st.Price, st.ChangedAt.Format("2006-01-02")))
	}
	if !state.LastScan.IsZero() {
		b.WriteString(fmt.Sprintf("\nLast scan: %s", state.LastScan.Format("2006-01-02 15:04")))
	}
	return b.String()
}
