package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bantoinese83/Portfolio-Watchdog/internal/cache"
	"github.com/bantoinese83/Portfolio-Watchdog/internal/model"
)

// ErrNoData is returned when every attempt came back without bars.
var ErrNoData = errors.New("no price data")

// Collector fetches daily history for a ticker with retry and linear backoff. When Cache
// is set, a series fetched within its TTL is served without going upstream.
type Collector struct {
	Fetcher  Fetcher
	Cache    cache.SeriesStore // optional
	Lookback int               // daily bars requested
	Retries  int               // attempts per ticker
	Backoff  time.Duration     // multiplied by the attempt number
	log      zerolog.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, lookback, retries int, log zerolog.Logger) *Collector {
	if retries < 1 {
		retries = 1
	}
	return &Collector{
		Fetcher:  fetcher,
		Lookback: lookback,
		Retries:  retries,
		Backoff:  time.Second,
		log:      log.With().Str("component", "collector").Logger(),
	}
}

// Collect fetches the daily series for ticker.
func (c *Collector) Collect(ctx context.Context, ticker string) (*model.PriceSeries, error) {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	if symbol == "" {
		return nil, fmt.Errorf("empty ticker: %w", ErrNoData)
	}

	key := cache.SeriesKey(symbol, c.Lookback)
	if c.Cache != nil {
		if series, err := c.Cache.GetSeries(ctx, key); err == nil {
			c.log.Debug().Str("ticker", symbol).Int("bars", len(series.DailyBars)).Msg("series cache hit")
			return series, nil
		}
	}

	var (
		lastErr  error
		attempts int
	)
	for attempt := 1; attempt <= c.Retries; attempt++ {
		attempts = attempt
		bars, err := c.Fetcher.FetchDailyBars(ctx, symbol, c.Lookback)
		if err == nil && len(bars) > 0 {
			c.log.Debug().Str("ticker", symbol).Int("bars", len(bars)).Int("attempt", attempt).Msg("fetched")
			series := &model.PriceSeries{
				Symbol:    symbol,
				Source:    c.Fetcher.Name(),
				DailyBars: bars,
				FetchedAt: time.Now().UTC(),
			}
			if c.Cache != nil {
				if err := c.Cache.SetSeries(ctx, key, series); err != nil {
					c.log.Warn().Str("ticker", symbol).Err(err).Msg("cache series")
				}
			}
			return series, nil
		}
		if err == nil {
			err = ErrNoData
		}
		lastErr = err
		c.log.Warn().Str("ticker", symbol).Int("attempt", attempt).Err(err).Msg("fetch failed")

		if attempt == c.Retries || errors.Is(err, ErrUnknownSymbol) {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.Backoff * time.Duration(attempt)):
		}
	}
	return nil, fmt.Errorf("%s after %d attempts: %w", symbol, attempts, lastErr)
}
