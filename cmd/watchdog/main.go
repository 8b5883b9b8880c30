package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgPath  string
	jsonOut  bool
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "watchdog",
	Short: "Traffic-light trend classification for a stock watchlist",
	Long: `Watchdog classifies stocks as GREEN (hold/add), YELLOW (watch for entry)
or RED (exit/avoid) from daily price history, using weekly swing-low structure,
Fibonacci retracement support and hidden bullish RSI divergence.

Examples:
  watchdog classify AAPL MSFT
  watchdog scan --json
  watchdog history TSLA --limit 10
  watchdog run`,
	SilenceUsage: true,
}

func init() {
	defaultCfg := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultCfg = v
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", defaultCfg, "path to YAML config")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "print JSON instead of text")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
