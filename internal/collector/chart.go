package collector

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/bantoinese83/Portfolio-Watchdog/internal/model"
)

// chartResponse is the Yahoo v8 chart payload. RapidAPI proxies return the same shape.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// ErrUnknownSymbol marks a rejection of one symbol (delisted, mistyped, no chart) by a
// source that is otherwise answering.
var ErrUnknownSymbol = errors.New("symbol not available")

// errEmptyChart marks a well-formed response with no usable bars.
var errEmptyChart = fmt.Errorf("chart has no bars: %w", ErrUnknownSymbol)

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{Timeout: 30 * time.Second, Transport: transport}
}

// chartRange picks the smallest Yahoo range that covers the requested trading days.
func chartRange(days int) string {
	switch {
	case days <= 20:
		return "1mo"
	case days <= 60:
		return "3mo"
	case days <= 120:
		return "6mo"
	case days <= 250:
		return "1y"
	case days <= 500:
		return "2y"
	default:
		return "5y"
	}
}

func doChartRequest(client *http.Client, req *http.Request) ([]model.OHLCV, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if len(body) > 256 {
			body = body[:256]
		}
		err := fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
		if symbolRejected(resp.StatusCode) {
			err = fmt.Errorf("%w: %w", ErrUnknownSymbol, err)
		}
		return nil, err
	}
	return decodeChart(body)
}

// symbolRejected reports statuses that concern the requested symbol rather than the
// source: 429, 401/403 and 5xx are upstream trouble.
func symbolRejected(code int) bool {
	switch code {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity:
		return true
	}
	return false
}

// decodeChart converts a chart payload into chronological bars. Bars without a close are
// skipped; missing open/high/low fall back to the close.
func decodeChart(body []byte) ([]model.OHLCV, error) {
	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("%w: api error %s: %s", ErrUnknownSymbol, chart.Chart.Error.Code, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, errEmptyChart
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]model.OHLCV, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		c, ok := at(quote.Close, i)
		if !ok {
			continue // holidays and halted sessions
		}
		bar := model.OHLCV{Time: time.Unix(ts, 0).UTC(), Open: c, High: c, Low: c, Close: c}
		if v, ok := at(quote.Open, i); ok {
			bar.Open = v
		}
		if v, ok := at(quote.High, i); ok {
			bar.High = v
		}
		if v, ok := at(quote.Low, i); ok {
			bar.Low = v
		}
		if v, ok := at(quote.Volume, i); ok {
			bar.Volume = v
		}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil, errEmptyChart
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func at(values []*float64, i int) (float64, bool) {
	if i >= len(values) || values[i] == nil {
		return 0, false
	}
	return *values[i], true
}

func trimTail(bars []model.OHLCV, n int) []model.OHLCV {
	if n > 0 && len(bars) > n {
		return bars[len(bars)-n:]
	}
	return bars
}
