package scanner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/bantoinese83/Portfolio-Watchdog/internal/cache"
	"github.com/bantoinese83/Portfolio-Watchdog/internal/metrics"
	"github.com/bantoinese83/Portfolio-Watchdog/internal/model"
	"github.com/bantoinese83/Portfolio-Watchdog/internal/recorder"
	"github.com/bantoinese83/Portfolio-Watchdog/internal/strategy"
)

// DefaultConcurrency bounds parallel fetches per scan.
const DefaultConcurrency = 5

// ErrScanRunning is returned by Scan while another scan is in progress.
var ErrScanRunning = errors.New("scan already running")

// Source supplies daily history for a ticker.
type Source interface {
	Collect(ctx context.Context, ticker string) (*model.PriceSeries, error)
}

// Report is the outcome of one watchlist scan.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []model.TrafficLightResult // sorted by ticker
	Counts     map[model.Status]int
}

// Scanner classifies tickers: fetch, cache lookup, classify, cache store.
type Scanner struct {
	Source      Source
	Cache       cache.Store // optional
	Recorder    recorder.Recorder
	Metrics     *metrics.Registry // optional
	Params      strategy.Params
	Concurrency int

	scanMu sync.Mutex // one watchlist scan at a time across scheduler, API and chat
	log    zerolog.Logger
}

// New creates a Scanner with the default concurrency.
func New(src Source, store cache.Store, rec recorder.Recorder, m *metrics.Registry, p strategy.Params, log zerolog.Logger) *Scanner {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scanner{
		Source:      src,
		Cache:       store,
		Recorder:    rec,
		Metrics:     m,
		Params:      p,
		Concurrency: DefaultConcurrency,
		log:         log.With().Str("component", "scanner").Logger(),
	}
}

// ClassifyOne fetches and classifies a single ticker. Fetch failures come back as
// StatusError results, never as errors.
func (s *Scanner) ClassifyOne(ctx context.Context, ticker string) model.TrafficLightResult {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	series, err := s.Source.Collect(ctx, ticker)
	if err != nil {
		s.Metrics.ObserveFetchError()
		s.Metrics.ObserveResult(model.StatusError)
		s.log.Warn().Str("ticker", ticker).Err(err).Msg("fetch failed")
		return model.TrafficLightResult{
			Ticker: ticker,
			Status: model.StatusError,
			Emoji:  model.StatusError.Emoji(),
			Note:   fmt.Sprintf("Cannot fetch price data: %v.", err),
		}
	}

	var key string
	if s.Cache != nil {
		key = cache.Key(ticker, series.DailyBars, s.Params)
		res, err := s.Cache.Get(ctx, key)
		switch {
		case err == nil:
			s.Metrics.ObserveCache(true)
			s.Metrics.ObserveResult(res.Status)
			return res
		case !errors.Is(err, cache.ErrMiss):
			s.log.Warn().Str("ticker", ticker).Err(err).Msg("cache get")
		}
		s.Metrics.ObserveCache(false)
	}

	res := strategy.Classify(ticker, series.DailyBars, s.Params)
	s.Metrics.ObserveResult(res.Status)
	s.log.Debug().Str("ticker", ticker).Str("status", string(res.Status)).Int("bars", len(series.DailyBars)).Msg("classified")

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, key, res); err != nil {
			s.log.Warn().Str("ticker", ticker).Err(err).Msg("cache set")
		}
	}
	return res
}

// Scan classifies every ticker with bounded concurrency and records the run.
// Tickers are upper-cased, de-duplicated and processed in sorted order. A call made
// while another scan runs returns ErrScanRunning without fetching anything.
func (s *Scanner) Scan(ctx context.Context, tickers []string) (*Report, error) {
	if !s.scanMu.TryLock() {
		return nil, ErrScanRunning
	}
	defer s.scanMu.Unlock()

	list := model.NormalizeTickers(tickers)
	report := &Report{
		StartedAt: time.Now().UTC(),
		Results:   make([]model.TrafficLightResult, len(list)),
		Counts:    make(map[model.Status]int, 4),
	}
	s.log.Info().Int("tickers", len(list)).Msg("scan started")

	limit := s.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for i, t := range list {
		i, t := i, t
		g.Go(func() error {
			report.Results[i] = s.ClassifyOne(ctx, t)
			return nil
		})
	}
	_ = g.Wait()

	report.FinishedAt = time.Now().UTC()
	for _, r := range report.Results {
		report.Counts[r.Status]++
	}
	s.Metrics.ObserveScan(len(list), report.FinishedAt.Sub(report.StartedAt))

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("scan interrupted: %w", err)
	}

	run := &recorder.ScanRun{
		ID:         recorder.NewRunID(report.StartedAt),
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Results:    report.Results,
	}
	report.RunID = run.ID
	if err := s.Recorder.RecordScan(run); err != nil {
		s.log.Error().Err(err).Str("run_id", run.ID).Msg("record scan")
	}

	s.log.Info().
		Str("run_id", run.ID).
		Int("green", report.Counts[model.StatusGreen]).
		Int("yellow", report.Counts[model.StatusYellow]).
		Int("red", report.Counts[model.StatusRed]).
		Int("error", report.Counts[model.StatusError]).
		Dur("elapsed", report.FinishedAt.Sub(report.StartedAt)).
		Msg("scan finished")
	return report, nil
}
