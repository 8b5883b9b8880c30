package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/bantoinese83/Portfolio-Watchdog/internal/model"
)

// DefaultRapidAPIHost is the RapidAPI Yahoo Finance proxy.
const DefaultRapidAPIHost = "yahoo-finance166.p.rapidapi.com"

// ErrNotConfigured is returned by sources that lack credentials.
var ErrNotConfigured = errors.New("source not configured")

// RapidAPIFetcher implements Fetcher using the RapidAPI Yahoo Finance get-chart endpoint.
type RapidAPIFetcher struct {
	BaseURL string // defaults to https://<Host>
	Host    string
	APIKey  string
	Client  *http.Client
}

// NewRapidAPIFetcher creates a RapidAPI fetcher. An empty key leaves it disabled.
func NewRapidAPIFetcher(apiKey, host, proxyURL string) *RapidAPIFetcher {
	if host == "" {
		host = DefaultRapidAPIHost
	}
	return &RapidAPIFetcher{
		BaseURL: "https://" + host,
		Host:    host,
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
	}
}

func (f *RapidAPIFetcher) Name() string { return "rapidapi" }

// Enabled reports whether an API key is set.
func (f *RapidAPIFetcher) Enabled() bool { return f.APIKey != "" }

func (f *RapidAPIFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	if !f.Enabled() {
		return nil, fmt.Errorf("rapidapi: %w", ErrNotConfigured)
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", "1d")
	q.Set("range", chartRange(days))
	q.Set("region", "US")
	endpoint := f.BaseURL + "/api/stock/get-chart?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-RapidAPI-Key", f.APIKey)
	req.Header.Set("X-RapidAPI-Host", f.Host)

	bars, err := doChartRequest(f.Client, req)
	if err != nil {
		return nil, fmt.Errorf("rapidapi %s: %w", symbol, err)
	}
	return trimTail(bars, days), nil
}
