package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/bantoinese83/Portfolio-Watchdog/internal/model"
)

// RedisStore keeps JSON-encoded results and series in Redis. After maxFailures
// consecutive errors it stops calling Redis and reports misses until recoverAfter has
// passed, then lets a single request through to probe while the rest keep missing.
type RedisStore struct {
	SeriesTTL time.Duration

	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger

	mu           sync.Mutex
	healthy      bool
	probing      bool
	failureCount int
	maxFailures  int
	recoverAfter time.Duration
	lastFailure  time.Time
	now          func() time.Time
}

// RedisOptions configures NewRedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisStore connects to Redis. A failed ping is logged and the store starts degraded.
func NewRedisStore(ctx context.Context, opts RedisOptions, log zerolog.Logger) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	s := NewRedisStoreWithClient(client, opts.TTL, log)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		s.log.Warn().Err(err).Str("addr", opts.Addr).Msg("redis unavailable, starting degraded")
		s.mu.Lock()
		s.healthy = false
		s.failureCount = s.maxFailures
		s.lastFailure = s.now()
		s.mu.Unlock()
	}
	return s
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration, log zerolog.Logger) *RedisStore {
	return &RedisStore{
		SeriesTTL:    DefaultSeriesTTL,
		client:       client,
		ttl:          ttl,
		log:          log.With().Str("component", "cache").Logger(),
		healthy:      true,
		maxFailures:  3,
		recoverAfter: 30 * time.Second,
		now:          time.Now,
	}
}

// IsHealthy returns whether Redis is currently in use.
func (s *RedisStore) IsHealthy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.healthy
}

// allow reports whether a call may reach Redis. While unhealthy only one caller at a
// time is let through once recoverAfter has passed.
func (s *RedisStore) allow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.healthy {
		return true
	}
	if s.probing || s.now().Sub(s.lastFailure) < s.recoverAfter {
		return false
	}
	s.probing = true
	return true
}

func (s *RedisStore) recordFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.probing = false
	s.failureCount++
	s.lastFailure = s.now()
	if s.failureCount >= s.maxFailures && s.healthy {
		s.log.Warn().Err(err).Int("failures", s.failureCount).Msg("redis marked unhealthy")
		s.healthy = false
	}
}

func (s *RedisStore) recordSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.healthy {
		s.log.Info().Msg("redis recovered")
	}
	s.healthy = true
	s.probing = false
	s.failureCount = 0
}

// getJSON decodes key into dst. Every failure is reported as ErrMiss.
func (s *RedisStore) getJSON(ctx context.Context, key string, dst any) error {
	if !s.allow() {
		return ErrMiss
	}
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		s.recordSuccess()
		return ErrMiss
	}
	if err != nil {
		s.recordFailure(err)
		return fmt.Errorf("redis get: %w", ErrMiss)
	}
	s.recordSuccess()
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, ErrMiss)
	}
	return nil
}

func (s *RedisStore) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if !s.allow() {
		return nil
	}
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		s.recordFailure(err)
		return fmt.Errorf("redis set: %w", err)
	}
	s.recordSuccess()
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (model.TrafficLightResult, error) {
	var res model.TrafficLightResult
	if err := s.getJSON(ctx, key, &res); err != nil {
		return model.TrafficLightResult{}, err
	}
	return res, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, res model.TrafficLightResult) error {
	return s.setJSON(ctx, key, res, s.ttl)
}

func (s *RedisStore) GetSeries(ctx context.Context, key string) (*model.PriceSeries, error) {
	var series model.PriceSeries
	if err := s.getJSON(ctx, key, &series); err != nil {
		return nil, err
	}
	return &series, nil
}

func (s *RedisStore) SetSeries(ctx context.Context, key string, series *model.PriceSeries) error {
	return s.setJSON(ctx, key, series, s.SeriesTTL)
}

// Close releases the client.
func (s *RedisStore) Close() error { return s.client.Close() }
