package main

import (
	"github.com/spf13/cobra"

	"github.com/bantoinese83/Portfolio-Watchdog/internal/model"
)

var classifyCmd = &cobra.Command{
	Use:   "classify TICKER...",
	Short: "Classify one or more tickers without recording history",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	results := make([]model.TrafficLightResult, 0, len(args))
	for _, t := range args {
		results = append(results, a.scanner.ClassifyOne(ctx, t))
	}
	return printResults(cmd.OutOrStdout(), results)
}
