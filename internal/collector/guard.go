package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/bantoinese83/Portfolio-Watchdog/internal/model"
)

// GuardedFetcher throttles and circuit-breaks an upstream Fetcher.
type GuardedFetcher struct {
	next    Fetcher
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewGuardedFetcher wraps next with a token bucket of rps (burst 1, unlimited when rps <= 0)
// and a breaker that opens after three consecutive upstream failures or a 5% failure rate
// over twenty requests.
func NewGuardedFetcher(next Fetcher, rps float64) *GuardedFetcher {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	st := gobreaker.Settings{
		Name:     next.Name(),
		Interval: 60 * time.Second,
		Timeout:  60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= 3 {
				return true
			}
			if counts.Requests < 20 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) > 0.05
		},
		IsSuccessful: breakerNeutral,
	}
	return &GuardedFetcher{
		next:    next,
		limiter: rate.NewLimiter(limit, 1),
		breaker: gobreaker.NewCircuitBreaker(st),
	}
}

// breakerNeutral keeps caller cancellation and per-symbol rejections out of the failure
// counts, so one delisted ticker cannot open the breaker for the whole watchlist.
func breakerNeutral(err error) bool {
	return err == nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, ErrUnknownSymbol)
}

func (g *GuardedFetcher) Name() string { return g.next.Name() }

// Enabled reports whether the wrapped source is configured.
func (g *GuardedFetcher) Enabled() bool {
	if sw, ok := g.next.(switchable); ok {
		return sw.Enabled()
	}
	return true
}

// State exposes the breaker state for health reporting.
func (g *GuardedFetcher) State() gobreaker.State { return g.breaker.State() }

func (g *GuardedFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	out, err := g.breaker.Execute(func() (any, error) {
		return g.next.FetchDailyBars(ctx, symbol, days)
	})
	if err != nil {
		return nil, err
	}
	return out.([]model.OHLCV), nil
}
