package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/bantoinese83/Portfolio-Watchdog/internal/cache"
	"github.com/bantoinese83/Portfolio-Watchdog/internal/collector"
	"github.com/bantoinese83/Portfolio-Watchdog/internal/config"
	"github.com/bantoinese83/Portfolio-Watchdog/internal/logging"
	"github.com/bantoinese83/Portfolio-Watchdog/internal/metrics"
	"github.com/bantoinese83/Portfolio-Watchdog/internal/model"
	"github.com/bantoinese83/Portfolio-Watchdog/internal/recorder"
	"github.com/bantoinese83/Portfolio-Watchdog/internal/scanner"
)

// app holds the components shared by every command.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	scanner  *scanner.Scanner
	recorder recorder.Recorder
	metrics  *metrics.Registry
	registry *prometheus.Registry
	memory   *cache.MemoryStore // nil unless the memory backend is configured
	closers  []io.Closer
}

func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	log := logging.New(cfg.Log)
	if err := cfg.Validate(); err != nil {
		return nil, log, fmt.Errorf("config validation: %w", err)
	}
	return cfg, log, nil
}

// newApp wires fetchers, cache, recorder and metrics from config.
func newApp(ctx context.Context) (*app, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log, registry: prometheus.NewRegistry()}
	a.metrics = metrics.New(a.registry)

	ds := cfg.DataSource
	fetcher := collector.NewFallbackFetcher(log,
		collector.NewGuardedFetcher(collector.NewRapidAPIFetcher(ds.RapidAPIKey, ds.RapidAPIHost, ds.Proxy), ds.RatePerSecond),
		collector.NewGuardedFetcher(collector.NewYahooFetcher(ds.YahooBaseURL, ds.Proxy), ds.RatePerSecond),
	)
	log.Info().Str("sources", fetcher.Name()).Msg("data sources ready")
	col := collector.NewCollector(fetcher, ds.LookbackDays, ds.Retries, log)

	var store cache.Store
	switch cfg.Cache.Backend {
	case "memory":
		ms := cache.NewMemoryStore(cfg.Cache.TTL)
		ms.SeriesTTL = cfg.Cache.SeriesTTL
		a.memory = ms
		store, col.Cache = ms, ms
	case "redis":
		rs := cache.NewRedisStore(ctx, cache.RedisOptions{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
			TTL:      cfg.Cache.TTL,
		}, log)
		rs.SeriesTTL = cfg.Cache.SeriesTTL
		a.closers = append(a.closers, rs)
		store, col.Cache = rs, rs
	}

	a.recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		} else {
			a.recorder = sr
			a.closers = append(a.closers, sr)
		}
	}

	a.scanner = scanner.New(col, store, a.recorder, a.metrics, cfg.Engine, log)
	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.log.Warn().Err(err).Msg("close")
		}
	}
}

func printResults(w io.Writer, results []model.TrafficLightResult) error {
	if jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	for _, r := range results {
		price := "-"
		if r.Price > 0 {
			price = fmt.Sprintf("$%.2f", r.Price)
		}
		if _, err := fmt.Fprintf(w, "%s %-8s %-10s %-7s %s\n", r.Emoji, r.Ticker, price, r.Status, r.Note); err != nil {
			return err
		}
	}
	return nil
}

func summary(counts map[model.Status]int) string {
	parts := make([]string, 0, 4)
	for _, s := range []model.Status{model.StatusGreen, model.StatusYellow, model.StatusRed, model.StatusError} {
		parts = append(parts, fmt.Sprintf("%s %d", s.Emoji(), counts[s]))
	}
	return strings.Join(parts, "  ")
}
