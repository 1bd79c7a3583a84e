// Package main provides the entry point for the backtesting CLI tool.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/wealth-ops/internal/backtest"
	"github.com/yourusername/wealth-ops/internal/config"
	"github.com/yourusername/wealth-ops/internal/database"
	"github.com/yourusername/wealth-ops/internal/datasource"
	"github.com/yourusername/wealth-ops/internal/logger"
	"github.com/yourusername/wealth-ops/internal/metrics"
	"github.com/yourusername/wealth-ops/internal/regime"
	"github.com/yourusername/wealth-ops/internal/repository"
	"github.com/yourusername/wealth-ops/internal/service"
	"github.com/yourusername/wealth-ops/internal/statestore"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	configFile  string
	tickers     []string
	profileName string
	source      string
	outputDir   string
	persist     bool
	startDate   string
	endDate     string
	showTrades  bool

	appLogger *logrus.Logger
	cfg       *config.Config
	db        *database.DB
	repos     *repository.Repositories
	provider  datasource.Provider
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	flags.StringSliceVarP(&tickers, "ticker", "t", nil, "Ticker(s) to evaluate; defaults to every configured asset")
	flags.StringVarP(&profileName, "profile", "p", "", "Profile template override (EQUITY, COMMODITY_HAVEN, COMMODITY_CYCLICAL, INDEX)")
	flags.StringVar(&source, "source", "", "Data source override (tiingo, csv, postgres)")
	flags.StringVarP(&outputDir, "output", "o", "", "Directory for JSON/HTML/CSV reports; defaults to backtest.output_path")
	flags.BoolVar(&persist, "persist", false, "Store runs and trades in PostgreSQL")

	runCmd.Flags().StringVar(&startDate, "start-date", "", "Override start date (YYYY-MM-DD)")
	runCmd.Flags().StringVar(&endDate, "end-date", "", "Override end date (YYYY-MM-DD)")
	runCmd.Flags().BoolVar(&showTrades, "trades", false, "Print the trade list")
	walkForwardCmd.Flags().StringVar(&startDate, "start-date", "", "Override start date (YYYY-MM-DD)")
	walkForwardCmd.Flags().StringVar(&endDate, "end-date", "", "Override end date (YYYY-MM-DD)")

	rootCmd.AddCommand(runCmd, walkForwardCmd, scoreCmd, regimeCmd, versionCmd)
}

var rootCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Backtest the momentum composite strategy on daily candles",
	Long:  `Loads daily candles, computes features and the composite signal, and replays the swing-trading engine per asset profile.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		if err := loadConfig(cmd.Context()); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := setupDependencies(cmd.Context()); err != nil {
			return fmt.Errorf("failed to setup dependencies: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			db.Close()
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a historical backtest with Monte Carlo resampling",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistorical(cmd.Context())
	},
}

var walkForwardCmd = &cobra.Command{
	Use:   "walk-forward",
	Short: "Run walk-forward validation and aggregate a recommendation",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWalkForward(cmd.Context())
	},
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score the latest bar of each ticker",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScore(cmd.Context())
	},
}

var regimeCmd = &cobra.Command{
	Use:   "regime",
	Short: "Classify the market regime of the configured index",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRegime(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("backtest %s (%s)\n", Version, GitCommit)
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func loadConfig(ctx context.Context) error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}
	if err := config.ApplySecretsFromEnv(ctx, cfg); err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}
	if source != "" {
		cfg.Data.PrimaryProvider = strings.ToLower(source)
		cfg.Data.FallbackProvider = ""
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	appLogger = logger.NewLogger(cfg.App.LogLevel)
	metrics.InitRegistry()
	return nil
}

func setupDependencies(ctx context.Context) error {
	if persist || cfg.Data.PrimaryProvider == string(datasource.PostgresSourceType) {
		var err error
		db, err = database.Initialize(ctx, cfg, appLogger)
		if err != nil {
			return err
		}
		repos, err = repository.NewRepositories(db)
		if err != nil {
			return err
		}
	}

	var bars repository.PriceBarRepository
	if repos != nil {
		bars = repos.PriceBar
	}
	primary, _, err := datasource.NewFactory(cfg.Data, bars, appLogger).WithProfiles(cfg.Profile).Providers()
	if err != nil {
		return err
	}
	provider = primary
	return nil
}

func backtestConfig() (backtest.BacktestConfig, error) {
	btConfig, err := backtest.FromConfig(cfg)
	if err != nil {
		return btConfig, fmt.Errorf("invalid backtest config: %w", err)
	}
	if startDate != "" {
		parsed, err := time.Parse("2006-01-02", startDate)
		if err != nil {
			return btConfig, fmt.Errorf("invalid start date: %w", err)
		}
		btConfig.StartDate = parsed
	}
	if endDate != "" {
		parsed, err := time.Parse("2006-01-02", endDate)
		if err != nil {
			return btConfig, fmt.Errorf("invalid end date: %w", err)
		}
		btConfig.EndDate = parsed
	}
	if outputDir != "" {
		btConfig.OutputPath = outputDir
	}
	return btConfig, btConfig.Validate()
}

func jobs() ([]service.Job, error) {
	selected := tickers
	if len(selected) == 0 {
		selected = cfg.Tickers()
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no tickers given and no assets configured")
	}

	out := make([]service.Job, 0, len(selected))
	for _, t := range selected {
		name := profileName
		if name == "" {
			name = cfg.ProfileName(t)
		}
		job, err := service.NewJob(t, name)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, nil
}

func newBacktestService(btConfig backtest.BacktestConfig) *service.BacktestService {
	var runs repository.BacktestRunRepository
	if persist && repos != nil {
		runs = repos.BacktestRun
	}
	return service.NewBacktestService(provider, btConfig, runs,
		logger.NewBacktestLogger(appLogger), logger.NewAuditLogger(appLogger))
}

func runHistorical(ctx context.Context) error {
	btConfig, err := backtestConfig()
	if err != nil {
		return err
	}
	selected, err := jobs()
	if err != nil {
		return err
	}
	svc := newBacktestService(btConfig)

	var reports []*service.Report
	if len(selected) == 1 {
		report, err := svc.RunHistorical(ctx, selected[0])
		if err != nil {
			return err
		}
		reports = []*service.Report{report}
	} else {
		reports, err = svc.RunMany(ctx, selected)
		if err != nil {
			return err
		}
	}

	for _, report := range reports {
		agg := backtest.AggregateResults(report.Metrics, *report.MonteCarlo, backtest.WalkForwardResult{}, backtest.DefaultAggregationWeights())
		agg.Ticker = report.Ticker
		fmt.Print(backtest.GenerateConsoleReport(agg))
		if showTrades {
			fmt.Print(backtest.GenerateTradeTable(report.Result))
		}
		if err := finish(ctx, svc, report, btConfig.OutputPath); err != nil {
			return err
		}
	}
	return nil
}

func runWalkForward(ctx context.Context) error {
	btConfig, err := backtestConfig()
	if err != nil {
		return err
	}
	selected, err := jobs()
	if err != nil {
		return err
	}
	svc := newBacktestService(btConfig)

	for _, job := range selected {
		report, err := svc.RunWalkForward(ctx, job)
		if err != nil {
			return err
		}
		fmt.Print(backtest.GenerateConsoleReport(*report.Aggregated))

		base := filepath.Join(btConfig.OutputPath, reportName(report))
		if err := backtest.GenerateHTMLReport(*report.Aggregated, base+".html"); err != nil {
			return fmt.Errorf("failed to write HTML report: %w", err)
		}
		if err := backtest.GenerateCSVExport(*report.Aggregated, base+".csv"); err != nil {
			return fmt.Errorf("failed to write CSV export: %w", err)
		}
		if err := finish(ctx, svc, report, btConfig.OutputPath); err != nil {
			return err
		}
	}
	return nil
}

// finish writes the JSON report and optionally persists the run
func finish(ctx context.Context, svc *service.BacktestService, report *service.Report, dir string) error {
	if persist {
		id, err := svc.Persist(ctx, report)
		if err != nil {
			return err
		}
		appLogger.WithFields(logrus.Fields{"ticker": report.Ticker, "run_id": id}).Info("Run persisted")
	}
	path := filepath.Join(dir, reportName(report)+".json")
	if err := backtest.ExportToJSON(report, path); err != nil {
		return fmt.Errorf("failed to export report: %w", err)
	}
	appLogger.WithField("path", path).Info("Report written")
	return nil
}

func reportName(report *service.Report) string {
	return fmt.Sprintf("%s_%s", strings.ToLower(report.Ticker), strings.ToLower(report.Mode))
}

func runScore(ctx context.Context) error {
	selected, err := jobs()
	if err != nil {
		return err
	}
	svc := service.NewSignalService(provider, logger.NewBacktestLogger(appLogger))

	out := make([]*service.SignalReport, 0, len(selected))
	for _, job := range selected {
		report, err := svc.Evaluate(ctx, job.Ticker, job.Profile)
		if err != nil {
			appLogger.WithError(err).WithField("ticker", job.Ticker).Error("Failed to score ticker")
			continue
		}
		out = append(out, report)
	}
	return printJSON(out)
}

func runRegime(ctx context.Context) error {
	filter := regime.NewFilter(provider, statestore.NewMemoryStore(0, 0), logger.NewAuditLogger(appLogger),
		regime.WithIndex(cfg.Regime.IndexTicker), regime.WithPeriod(cfg.Regime.MAPeriod))
	eval, err := filter.Calculate(ctx)
	if err != nil {
		return err
	}
	return printJSON(map[string]any{
		"index":  strings.ToUpper(cfg.Regime.IndexTicker),
		"status": eval.Status,
		"close":  eval.Close,
		"sma":    eval.SMA,
		"bars":   eval.Bars,
		"as_of":  eval.AsOf.Format("2006-01-02"),
		"buys":   regime.AllowsBuys(eval.Status),
		"period": cfg.Regime.MAPeriod,
	})
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
