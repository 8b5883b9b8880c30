package cache

import (
	"context"
	"sync"
	"time"

	"github.com/bantoinese83/Portfolio-Watchdog/internal/model"
)

type memoryEntry struct {
	value     any
	expiresAt time.Time
}

// MemoryStore is an in-process TTL map holding both results and fetched series.
type MemoryStore struct {
	SeriesTTL time.Duration

	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates a store whose results live for ttl and series for DefaultSeriesTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		SeriesTTL: DefaultSeriesTTL,
		entries:   make(map[string]memoryEntry),
		ttl:       ttl,
		now:       time.Now,
	}
}

// lookup returns a live entry and drops an expired one.
func (m *MemoryStore) lookup(key string) (any, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if m.now().Before(e.expiresAt) {
		return e.value, true
	}
	m.mu.Lock()
	if cur, ok := m.entries[key]; ok && !m.now().Before(cur.expiresAt) {
		delete(m.entries, key)
	}
	m.mu.Unlock()
	return nil, false
}

func (m *MemoryStore) store(key string, value any, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{value: value, expiresAt: m.now().Add(ttl)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (model.TrafficLightResult, error) {
	v, ok := m.lookup(key)
	res, isResult := v.(model.TrafficLightResult)
	if !ok || !isResult {
		return model.TrafficLightResult{}, ErrMiss
	}
	return res, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, res model.TrafficLightResult) error {
	m.store(key, res, m.ttl)
	return nil
}

// GetSeries returns a copy of the cached series so callers may not mutate the entry.
func (m *MemoryStore) GetSeries(_ context.Context, key string) (*model.PriceSeries, error) {
	v, ok := m.lookup(key)
	series, isSeries := v.(model.PriceSeries)
	if !ok || !isSeries {
		return nil, ErrMiss
	}
	series.DailyBars = append([]model.OHLCV(nil), series.DailyBars...)
	return &series, nil
}

func (m *MemoryStore) SetSeries(_ context.Context, key string, series *model.PriceSeries) error {
	cp := *series
	cp.DailyBars = append([]model.OHLCV(nil), series.DailyBars...)
	m.store(key, cp, m.SeriesTTL)
	return nil
}

// CleanupExpired drops stale entries and returns how many were removed.
func (m *MemoryStore) CleanupExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for k, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
