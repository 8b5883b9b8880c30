package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan [TICKER...]",
	Short: "Classify the configured watchlist (or the given tickers) and record the run",
	RunE:  runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	tickers := args
	if len(tickers) == 0 {
		tickers = a.cfg.Watchlist
	}
	if len(tickers) == 0 {
		return errors.New("watchlist is empty: set watchlist in config or WATCHLIST")
	}

	report, err := a.scanner.Scan(ctx, tickers)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if err := printResults(out, report.Results); err != nil {
		return err
	}
	if !jsonOut {
		fmt.Fprintf(out, "\n%s  (run %s)\n", summary(report.Counts), report.RunID)
	}
	return nil
}
