package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bantoinese83/Portfolio-Watchdog/internal/api"
	"github.com/bantoinese83/Portfolio-Watchdog/internal/notifier"
	"github.com/bantoinese83/Portfolio-Watchdog/internal/scheduler"
	"github.com/bantoinese83/Portfolio-Watchdog/internal/tracker"
)

var runOnStart bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scheduled scanner, Telegram bot and HTTP API until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runOnStart, "now", os.Getenv("RUN_ON_START") == "true", "scan immediately on start")
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.cfg.ValidateTelegram(); err != nil {
		return err
	}
	log := a.log
	log.Info().Int("watchlist", len(a.cfg.Watchlist)).Msg("watchdog starting")

	tr, err := tracker.New(a.cfg.StateFile, log)
	if err != nil {
		return err
	}
	if err := tr.Forget(a.cfg.Watchlist); err != nil {
		log.Warn().Err(err).Msg("prune watch state")
	}

	tn := notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.DataSource.Proxy, log)

	sched := scheduler.NewScheduler(ctx, a.scanner, tr, tn, a.cfg.Watchlist, log)
	if err := sched.Register(a.cfg.Schedule.ScanCron); err != nil {
		return err
	}
	if a.memory != nil {
		sched.RegisterCleanup(10*time.Minute, a.memory)
	}
	sched.Start()
	defer sched.Stop()

	go tn.StartPolling(ctx, sched.HandleCommand)

	srv := api.NewServer(a.cfg.HTTP.Addr, a.scanner, a.recorder, a.metrics, a.cfg.Watchlist, log)
	srvErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
	}()

	if runOnStart {
		go sched.RunScanNow()
	}

	log.Info().Msg("watchdog running, press Ctrl+C to stop")
	runErr := waitForShutdown(ctx, srvErr, log)
	cancel()

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	log.Info().Msg("watchdog stopped")
	return runErr
}

// waitForShutdown blocks until ctx ends or the HTTP server fails, and returns the
// server failure so the process exits non-zero.
func waitForShutdown(ctx context.Context, srvErr <-chan error, log zerolog.Logger) error {
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received, stopping")
		return nil
	case err := <-srvErr:
		log.Error().Err(err).Msg("http server failed")
		return fmt.Errorf("http server: %w", err)
	}
}
