package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "breakout",
	Short: "Intraday opening range breakout engine and paper venue",
	Long: `Breakout replays intraday bars through an opening range breakout
decision engine and a paper execution venue.

It provides tools for:
  - Replaying minute bars with daily history for indicator warmup
  - Journaling closed trades and equity to CSV or SQLite
  - Exposing engine metrics to Prometheus
  - Generating and validating run configurations

Complete documentation is available at https://github.com/rustyeddy/breakout`,
	SilenceUsage: true,
}

var logLevel string

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level from the config (debug, info, warn, error)")
}
