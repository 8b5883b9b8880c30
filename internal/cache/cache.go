package cache

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/bantoinese83/Portfolio-Watchdog/internal/model"
	"github.com/bantoinese83/Portfolio-Watchdog/internal/strategy"
)

// ErrMiss is returned when a key is absent, expired or the backend is unavailable.
var ErrMiss = errors.New("cache miss")

// DefaultSeriesTTL is how long fetched history is reused before going upstream again.
const DefaultSeriesTTL = 30 * time.Minute

// Store caches classification results.
type Store interface {
	Get(ctx context.Context, key string) (model.TrafficLightResult, error)
	Set(ctx context.Context, key string, res model.TrafficLightResult) error
}

// SeriesStore caches fetched price history.
type SeriesStore interface {
	GetSeries(ctx context.Context, key string) (*model.PriceSeries, error)
	SetSeries(ctx context.Context, key string, series *model.PriceSeries) error
}

// SeriesKey names the fetched history of ticker at a given depth. Freshness comes from
// the entry TTL.
func SeriesKey(ticker string, lookback int) string {
	return fmt.Sprintf("px:%s:%d", strings.ToUpper(strings.TrimSpace(ticker)), lookback)
}

// Key fingerprints a classification input: the same bars and parameters always map
// to the same key, and any changed bar or threshold maps elsewhere.
func Key(ticker string, bars []model.OHLCV, p strategy.Params) string {
	h := xxhash.New()
	var buf [8]byte
	for _, b := range bars {
		binary.LittleEndian.PutUint64(buf[:], uint64(b.Time.UnixNano()))
		_, _ = h.Write(buf[:])
		for _, v := range [...]float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			_, _ = h.Write(buf[:])
		}
	}

	params, _ := json.Marshal(p)
	return fmt.Sprintf("tl:%s:%016x:%016x",
		strings.ToUpper(strings.TrimSpace(ticker)), h.Sum64(), xxhash.Sum64(params))
}
