package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/bantoinese83/Portfolio-Watchdog/internal/model"
	"github.com/bantoinese83/Portfolio-Watchdog/internal/notifier"
	"github.com/bantoinese83/Portfolio-Watchdog/internal/scanner"
	"github.com/bantoinese83/Portfolio-Watchdog/internal/tracker"
)

// Sender delivers a formatted message.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs the watchlist scan on a cron schedule and answers chat commands.
type Scheduler struct {
	Cron      *cron.Cron
	Scanner   *scanner.Scanner
	Tracker   *tracker.Tracker
	Notifier  Sender
	Watchlist []string
	Ctx       context.Context

	log zerolog.Logger
}

// Janitor drops expired entries from an in-process store.
type Janitor interface {
	CleanupExpired() int
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, sc *scanner.Scanner, tr *tracker.Tracker, n Sender, watchlist []string, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Scanner:   sc,
		Tracker:   tr,
		Notifier:  n,
		Watchlist: model.NormalizeTickers(watchlist),
		Ctx:       ctx,
		log:       log.With().Str("component", "scheduler").Logger(),
	}
}

// Register adds the scan job.
func (s *Scheduler) Register(scanCron string) error {
	if _, err := s.Cron.AddFunc(scanCron, s.scanTask); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	return nil
}

// RegisterCleanup sweeps j every interval.
func (s *Scheduler) RegisterCleanup(every time.Duration, j Janitor) {
	s.Cron.Schedule(cron.Every(every), cron.FuncJob(func() {
		if n := j.CleanupExpired(); n > 0 {
			s.log.Debug().Int("removed", n).Msg("expired cache entries dropped")
		}
	}))
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Int("watchlist", len(s.Watchlist)).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// RunScanNow executes the scan immediately (manual trigger / run on start).
func (s *Scheduler) RunScanNow() {
	s.scanTask()
}

func (s *Scheduler) scanTask() {
	report, err := s.Scanner.Scan(s.Ctx, s.Watchlist)
	if errors.Is(err, scanner.ErrScanRunning) {
		s.log.Warn().Msg("scan already running, skipping")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Msg("scan")
		return
	}
	s.trySend(notifier.FormatScanReport(report.Results, report.FinishedAt))

	changes, err := s.Tracker.Update(report.Results)
	if err != nil {
		s.log.Error().Err(err).Msg("save watch state")
	}
	if msg := notifier.FormatTransitions(changes); msg != "" {
		s.trySend(msg)
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return usage
	}
	switch strings.ToLower(fields[0]) {
	case "/scan":
		go s.scanTask()
		return fmt.Sprintf("Scanning %d tickers…", len(s.Watchlist))
	case "/status":
		if len(fields) < 2 {
			return "Usage: /status TICKER"
		}
		return notifier.FormatResult(s.Scanner.ClassifyOne(ctx, fields[1]))
	case "/watchlist":
		return notifier.FormatWatchlist(s.Watchlist, s.Tracker.Snapshot())
	default:
		return usage
	}
}

const usage = "Commands:\n• /scan: classify the whole watchlist\n• /status TICKER: classify one ticker\n• /watchlist: last known status per ticker"

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.log.Error().Err(err).Msg("send notification")
	}
}

