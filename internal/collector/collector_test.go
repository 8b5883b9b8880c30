package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bantoinese83/Portfolio-Watchdog/internal/cache"
	"github.com/bantoinese83/Portfolio-Watchdog/internal/model"
)

// Three sessions, the middle one a holiday with null quotes and the last without an open.
const chartJSON = `{"chart":{"result":[{"timestamp":[1704326400,1704153600,1704240000],
"indicators":{"quote":[{"open":[null,100,null],"high":[106,105,null],"low":[101,99,null],
"close":[104,102,null],"volume":[1200,1000,null]}]}}],"error":null}}`

func TestDecodeChart(t *testing.T) {
	bars, err := decodeChart([]byte(chartJSON))
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.True(t, bars[0].Time.Before(bars[1].Time))
	assert.Equal(t, model.OHLCV{Time: time.Unix(1704153600, 0).UTC(), Open: 100, High: 105, Low: 99, Close: 102, Volume: 1000}, bars[0])
	assert.Equal(t, 104.0, bars[1].Open)
	assert.Equal(t, 101.0, bars[1].Low)
}

func TestDecodeChart_Errors(t *testing.T) {
	_, err := decodeChart([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	assert.ErrorContains(t, err, "No data found")
	assert.ErrorIs(t, err, ErrUnknownSymbol)

	_, err = decodeChart([]byte(`{"chart":{"result":[]}}`))
	assert.ErrorIs(t, err, errEmptyChart)

	_, err = decodeChart([]byte(`not json`))
	assert.Error(t, err)
}

func TestChartRange(t *testing.T) {
	assert.Equal(t, "1mo", chartRange(20))
	assert.Equal(t, "1y", chartRange(250))
	assert.Equal(t, "2y", chartRange(500))
	assert.Equal(t, "5y", chartRange(900))
}

func TestYahooFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/^GSPC", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Equal(t, "2y", r.URL.Query().Get("range"))
		_, _ = w.Write([]byte(chartJSON))
	}))
	defer srv.Close()

	f := NewYahooFetcher(srv.URL+"/", "")
	bars, err := f.FetchDailyBars(context.Background(), "SPX", 500)
	require.NoError(t, err)
	assert.Len(t, bars, 2)

	bars, err = f.FetchDailyBars(context.Background(), "SPX", 1)
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 104.0, bars[0].Close)
}

func TestYahooFetcher_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewYahooFetcher(srv.URL, "").FetchDailyBars(context.Background(), "AAPL", 100)
	assert.ErrorContains(t, err, "status 429")
}

func TestRapidAPIFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/stock/get-chart", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-RapidAPI-Key"))
		assert.Equal(t, DefaultRapidAPIHost, r.Header.Get("X-RapidAPI-Host"))
		assert.Equal(t, "MSFT", r.URL.Query().Get("symbol"))
		_, _ = w.Write([]byte(chartJSON))
	}))
	defer srv.Close()

	f := NewRapidAPIFetcher("secret", "", "")
	f.BaseURL = srv.URL
	bars, err := f.FetchDailyBars(context.Background(), "MSFT", 100)
	require.NoError(t, err)
	assert.Len(t, bars, 2)

	_, err = NewRapidAPIFetcher("", "", "").FetchDailyBars(context.Background(), "MSFT", 100)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestFallbackFetcher(t *testing.T) {
	good := &MockFetcher{Bars: map[string][]model.OHLCV{"AAPL": {{Close: 1}}}}
	bad := &MockFetcher{Err: errors.New("boom")}

	disabled := NewGuardedFetcher(NewRapidAPIFetcher("", "", ""), 0)
	f := NewFallbackFetcher(zerolog.Nop(), disabled, bad, good)
	assert.Equal(t, "mock>mock", f.Name())

	bars, err := f.FetchDailyBars(context.Background(), "AAPL", 10)
	require.NoError(t, err)
	assert.Len(t, bars, 1)
	assert.Equal(t, 1, bad.Calls)

	_, err = f.FetchDailyBars(context.Background(), "MSFT", 10)
	assert.ErrorContains(t, err, "boom")
	assert.ErrorIs(t, err, errEmptyChart)

	_, err = NewFallbackFetcher(zerolog.Nop()).FetchDailyBars(context.Background(), "AAPL", 10)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestGuardedFetcher_OpensAfterConsecutiveFailures(t *testing.T) {
	upstream := &MockFetcher{Err: errors.New("upstream down")}
	g := NewGuardedFetcher(upstream, 0)

	for i := 0; i < 3; i++ {
		_, err := g.FetchDailyBars(context.Background(), "AAPL", 10)
		assert.ErrorContains(t, err, "upstream down")
	}
	assert.Equal(t, gobreaker.StateOpen, g.State())

	_, err := g.FetchDailyBars(context.Background(), "AAPL", 10)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, upstream.Calls)
}

func TestGuardedFetcher_UnknownSymbolKeepsBreakerClosed(t *testing.T) {
	hits := map[string]int{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits[r.URL.Path]++
		if r.URL.Path == "/v8/finance/chart/AAAA" {
			http.Error(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`, http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(chartJSON))
	}))
	defer srv.Close()

	c := NewCollector(NewGuardedFetcher(NewYahooFetcher(srv.URL, ""), 0), 500, 3, zerolog.Nop())
	c.Backoff = 0
	g := c.Fetcher.(*GuardedFetcher)

	for i := 0; i < 5; i++ {
		_, err := c.Collect(context.Background(), "AAAA")
		assert.ErrorIs(t, err, ErrUnknownSymbol)
		assert.ErrorContains(t, err, "status 404")
		assert.ErrorContains(t, err, "after 1 attempts")
	}
	assert.Equal(t, 5, hits["/v8/finance/chart/AAAA"])
	assert.Equal(t, gobreaker.StateClosed, g.State())

	for _, sym := range []string{"MSFT", "NVDA", "TSLA"} {
		series, err := c.Collect(context.Background(), sym)
		require.NoError(t, err, sym)
		assert.Len(t, series.DailyBars, 2)
	}
}

func TestGuardedFetcher_ServerErrorsStillTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	g := NewGuardedFetcher(NewYahooFetcher(srv.URL, ""), 0)
	for i := 0; i < 3; i++ {
		_, err := g.FetchDailyBars(context.Background(), "AAPL", 10)
		assert.NotErrorIs(t, err, ErrUnknownSymbol)
	}
	assert.Equal(t, gobreaker.StateOpen, g.State())
}

func TestGuardedFetcher_RateLimitHonoursContext(t *testing.T) {
	g := NewGuardedFetcher(&MockFetcher{}, 0.001)
	_, err := g.FetchDailyBars(context.Background(), "AAPL", 10)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = g.FetchDailyBars(ctx, "AAPL", 10)
	assert.ErrorContains(t, err, "rate limit")
}

// flakyFetcher fails a fixed number of times before serving bars.
type flakyFetcher struct {
	failures int
	calls    int
}

func (f *flakyFetcher) Name() string { return "flaky" }

func (f *flakyFetcher) FetchDailyBars(context.Context, string, int) ([]model.OHLCV, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("transient")
	}
	return []model.OHLCV{{Close: 10}, {Close: 11}}, nil
}

func TestCollector_RetriesThenSucceeds(t *testing.T) {
	f := &flakyFetcher{failures: 2}
	c := NewCollector(f, 500, 3, zerolog.Nop())
	c.Backoff = time.Millisecond

	series, err := c.Collect(context.Background(), " aapl ")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", series.Symbol)
	assert.Equal(t, "flaky", series.Source)
	assert.Equal(t, 3, f.calls)
	last, ok := series.Last()
	assert.True(t, ok)
	assert.Equal(t, 11.0, last.Close)
}

func TestCollector_GivesUp(t *testing.T) {
	f := &flakyFetcher{failures: 10}
	c := NewCollector(f, 500, 3, zerolog.Nop())
	c.Backoff = time.Millisecond

	_, err := c.Collect(context.Background(), "AAPL")
	assert.ErrorContains(t, err, "after 3 attempts")
	assert.Equal(t, 3, f.calls)
}

func TestCollector_EmptyIsNoData(t *testing.T) {
	c := NewCollector(&MockFetcher{}, 500, 2, zerolog.Nop())
	c.Backoff = time.Millisecond

	_, err := c.Collect(context.Background(), "ZZZZ")
	assert.ErrorIs(t, err, ErrNoData)

	_, err = c.Collect(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestCollector_ServesCachedSeries(t *testing.T) {
	f := &MockFetcher{Bars: map[string][]model.OHLCV{"AAPL": {{Close: 10}, {Close: 11}}}}
	store := cache.NewMemoryStore(time.Minute)
	c := NewCollector(f, 500, 1, zerolog.Nop())
	c.Cache = store

	first, err := c.Collect(context.Background(), "aapl")
	require.NoError(t, err)
	first.DailyBars[0].Close = 999

	second, err := c.Collect(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 1, f.Calls)
	assert.Equal(t, 10.0, second.DailyBars[0].Close)

	c.Lookback = 250
	_, err = c.Collect(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 2, f.Calls)
}

func TestCollector_ContextCancelDuringBackoff(t *testing.T) {
	c := NewCollector(&flakyFetcher{failures: 10}, 500, 3, zerolog.Nop())
	c.Backoff = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := c.Collect(ctx, "AAPL")
	assert.ErrorIs(t, err, context.Canceled)
}
