package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/breakout/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage run configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  breakout config init -o spy.yaml
  breakout config validate -f spy.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	Long: `Create a new configuration file with default settings. The format
follows the file extension (.yaml, .yml or .json).

Example:
  breakout config init -o spy.yaml`,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Check if a configuration file is valid and can be loaded.

Example:
  breakout config validate -f spy.yaml`,
	RunE: runConfigValidate,
}

var (
	configInitOutput   string
	configInitForce    bool
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "breakout.yaml", "output config file path")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing file")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to config file (required)")
	configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(configInitOutput); err == nil && !configInitForce {
		return fmt.Errorf("%s exists (use --force to overwrite)", configInitOutput)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("✓ Created default configuration: %s\n", configInitOutput)
	fmt.Println("\nEdit the file and run with:")
	fmt.Printf("  breakout run -f %s --bars minutes.csv --history daily.csv\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configValidatePath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	b := cfg.Strategy.Breakout
	journalTarget := cfg.Journal.DBPath
	if cfg.Journal.Type == "csv" {
		journalTarget = cfg.Journal.TradesFile + ", " + cfg.Journal.EquityFile
	}

	fmt.Printf("✓ Configuration valid: %s\n", configValidatePath)
	fmt.Printf("  Account:  %s ($%.2f %s)\n", cfg.Account.ID, cfg.Account.Cash, cfg.Account.Currency)
	fmt.Printf("  Session:  %s-%s %s, opening range %dm\n", cfg.Session.Open, cfg.Session.Close, cfg.Session.Timezone, b.OpeningSpanMinutes)
	fmt.Printf("  Strategy: %s on %s (risk %.2f%%, entries until %s)\n", cfg.Strategy.Name, b.Instrument, b.RiskPctPerPosition*100, b.EntryCutoff)
	fmt.Printf("  Gate:     ATR %.3f%%, STD %.3f%% (required: %t)\n", b.ATRThresholdPct*100, b.STDThresholdPct*100, b.RequireRecentVolatility)
	fmt.Printf("  Journal:  %s (%s)\n", cfg.Journal.Type, journalTarget)
	if cfg.Metrics.Listen != "" {
		fmt.Printf("  Metrics:  %s/metrics\n", cfg.Metrics.Listen)
	}
	return nil
}
