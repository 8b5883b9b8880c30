package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/bantoinese83/Portfolio-Watchdog/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error)
	Name() string
}

// FallbackFetcher tries each source in order and returns the first non-empty series.
type FallbackFetcher struct {
	Sources []Fetcher
	log     zerolog.Logger
}

// switchable is implemented by sources that can be turned off by configuration.
type switchable interface {
	Enabled() bool
}

// NewFallbackFetcher chains sources; disabled ones are left out.
func NewFallbackFetcher(log zerolog.Logger, sources ...Fetcher) *FallbackFetcher {
	kept := make([]Fetcher, 0, len(sources))
	for _, s := range sources {
		if sw, ok := s.(switchable); ok && !sw.Enabled() {
			continue
		}
		kept = append(kept, s)
	}
	return &FallbackFetcher{Sources: kept, log: log.With().Str("component", "fetcher").Logger()}
}

func (f *FallbackFetcher) Name() string {
	names := make([]string, len(f.Sources))
	for i, s := range f.Sources {
		names[i] = s.Name()
	}
	return strings.Join(names, ">")
}

func (f *FallbackFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	if len(f.Sources) == 0 {
		return nil, fmt.Errorf("fallback: %w", ErrNotConfigured)
	}
	var errs []error
	for _, s := range f.Sources {
		bars, err := s.FetchDailyBars(ctx, symbol, days)
		if err == nil && len(bars) > 0 {
			return bars, nil
		}
		if err == nil {
			err = fmt.Errorf("%s: %w", s.Name(), errEmptyChart)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		f.log.Warn().Str("source", s.Name()).Str("symbol", symbol).Err(err).Msg("source failed, trying next")
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}

// MockFetcher returns fixed data for development and testing.
type MockFetcher struct {
	Bars  map[string][]model.OHLCV
	Err   error
	Calls int

	mu sync.Mutex
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(_ context.Context, symbol string, days int) ([]model.OHLCV, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return trimTail(m.Bars[symbol], days), nil
}
