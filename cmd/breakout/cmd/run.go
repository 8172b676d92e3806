package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/breakout/broker"
	"github.com/rustyeddy/breakout/config"
	"github.com/rustyeddy/breakout/internal/logging"
	"github.com/rustyeddy/breakout/journal"
	"github.com/rustyeddy/breakout/metrics"
	"github.com/rustyeddy/breakout/pricing"
	"github.com/rustyeddy/breakout/replay"
	"github.com/rustyeddy/breakout/sim"
	"github.com/rustyeddy/breakout/strategies"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay bars through the strategy and the paper venue",
	Long: `Replay intraday bars from CSV through the configured strategy,
filling its orders on the paper venue.

Daily history, when given, warms the trend and volatility indicators so
trading can start with the first session. Without it the engine waits
session.warmup_sessions sessions before it trades.

CSV rows are time,open,high,low,close[,volume] with RFC3339 times.

Example:
  breakout run -f spy.yaml --bars spy-1m.csv --history spy-1d.csv`,
	RunE: runRun,
}

var (
	runConfigPath  string
	runBarsPath    string
	runHistoryPath string
	runFrom        string
	runTo          string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON) (required)")
	runCmd.Flags().StringVar(&runBarsPath, "bars", "", "intraday bars CSV (required)")
	runCmd.Flags().StringVar(&runHistoryPath, "history", "", "daily bars CSV used to warm indicators")
	runCmd.Flags().StringVar(&runFrom, "from", "", "first day to replay (YYYY-MM-DD, session time zone)")
	runCmd.Flags().StringVar(&runTo, "to", "", "last day to replay, inclusive (YYYY-MM-DD)")
	runCmd.MarkFlagRequired("config")
	runCmd.MarkFlagRequired("bars")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return err
	}

	hours, err := cfg.Session.Hours()
	if err != nil {
		return err
	}

	opt := replay.Options{
		Hours:          hours,
		OpeningSpan:    cfg.OpeningSpan(),
		WarmupSessions: cfg.Session.WarmupSessions,
		Logger:         log,
	}
	if opt.From, err = parseDay(runFrom, hours.Location, 0); err != nil {
		return fmt.Errorf("--from: %w", err)
	}
	if opt.To, err = parseDay(runTo, hours.Location, 1); err != nil {
		return fmt.Errorf("--to: %w", err)
	}

	instrument := cfg.Strategy.Breakout.Instrument
	bars, err := pricing.LoadCandlesCSV(runBarsPath, instrument)
	if err != nil {
		return fmt.Errorf("load bars: %w", err)
	}

	var history []pricing.Candle
	if runHistoryPath != "" {
		history, err = pricing.LoadCandlesCSV(runHistoryPath, instrument)
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}
		if n := cfg.Strategy.Breakout.HistoryDays; n > 0 && len(history) > n {
			history = history[len(history)-n:]
		}
		opt.WarmupSessions = 0
	}

	var j journal.Journal
	if cfg.Journal.Type == "csv" {
		j, err = journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.EquityFile)
	} else {
		j, err = journal.NewSQLite(cfg.Journal.DBPath)
	}
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	defer j.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m := metrics.New(reg)
	if cfg.Metrics.Listen != "" {
		srv := metrics.Serve(cfg.Metrics.Listen, reg)
		defer srv.Close()
		log.Info().Str("addr", cfg.Metrics.Listen).Msg("serving metrics")
	}

	engine := sim.NewEngine(broker.Account{
		ID:       cfg.Account.ID,
		Currency: cfg.Account.Currency,
		Cash:     cfg.Account.Cash,
	}, instrument, j)

	strat, err := strategies.StrategyByName(cfg.Strategy.Name, strategies.Deps{
		Config:    cfg.Strategy.Breakout,
		Hours:     hours,
		Execution: engine,
		Portfolio: engine,
		Logger:    log.With().Str("strategy", cfg.Strategy.Name).Str("instrument", instrument).Logger(),
		Metrics:   m,
	})
	if err != nil {
		return err
	}
	strat.Warm(history)

	log.Info().
		Str("config", runConfigPath).
		Int("bars", len(bars)).
		Int("history", len(history)).
		Int("warmup_sessions", opt.WarmupSessions).
		Msg("replay starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := replay.Run(ctx, bars, engine, strat, opt)
	if err != nil {
		return err
	}

	fmt.Printf("\nFinal Results:\n")
	fmt.Printf("  Sessions: %d  Samples: %d  Skipped: %d  Dropped: %d\n", res.Sessions, res.Samples, res.Skipped, res.Dropped)
	fmt.Printf("  Cash: $%.2f\n", res.Account.Cash)
	fmt.Printf("  Equity: $%.2f\n", res.Account.Equity)
	fmt.Printf("  Profit/Loss: $%.2f\n", res.Account.Equity-cfg.Account.Cash)
	if cfg.Journal.Type == "csv" {
		fmt.Printf("\nResults saved to:\n  - %s\n  - %s\n", cfg.Journal.TradesFile, cfg.Journal.EquityFile)
	} else {
		fmt.Printf("\nResults saved to: %s\n", cfg.Journal.DBPath)
	}
	return nil
}

// parseDay returns local midnight of day plus addDays, or zero for "".
func parseDay(day string, loc *time.Location, addDays int) (time.Time, error) {
	if day == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, err
	}
	return t.AddDate(0, 0, addDays), nil
}
