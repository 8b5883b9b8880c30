package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bantoinese83/Portfolio-Watchdog/internal/model"
)

// Registry holds the watchdog's Prometheus collectors.
type Registry struct {
	Classifications *prometheus.CounterVec
	FetchErrors     prometheus.Counter
	CacheRequests   *prometheus.CounterVec
	ScanDuration    prometheus.Histogram
	WatchlistSize   prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New registers all collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg *prometheus.Registry) *Registry {
	r := &Registry{
		Classifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "watchdog_classifications_total",
				Help: "Classifications produced, by traffic-light status",
			},
			[]string{"status"},
		),
		FetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "watchdog_fetch_errors_total",
			Help: "Tickers whose price history could not be fetched",
		}),
		CacheRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "watchdog_cache_requests_total",
				Help: "Classification cache lookups, by result",
			},
			[]string{"result"},
		),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "watchdog_scan_duration_seconds",
			Help:    "Wall time of a full watchlist scan",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		WatchlistSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "watchdog_watchlist_size",
			Help: "Tickers in the last scanned watchlist",
		}),
		gatherer: reg,
	}
	reg.MustRegister(r.Classifications, r.FetchErrors, r.CacheRequests, r.ScanDuration, r.WatchlistSize)
	return r
}

// ObserveResult counts one classification.
func (r *Registry) ObserveResult(status model.Status) {
	if r == nil {
		return
	}
	r.Classifications.WithLabelValues(string(status)).Inc()
}

// ObserveCache counts a cache lookup as hit or miss.
func (r *Registry) ObserveCache(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.CacheRequests.WithLabelValues(result).Inc()
}

// ObserveFetchError counts a failed fetch.
func (r *Registry) ObserveFetchError() {
	if r == nil {
		return
	}
	r.FetchErrors.Inc()
}

// ObserveScan records a finished scan of size tickers.
func (r *Registry) ObserveScan(size int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.WatchlistSize.Set(float64(size))
	r.ScanDuration.Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
