// Package main provides the entry point for the data ingestion service.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/wealth-ops/internal/backtest"
	"github.com/yourusername/wealth-ops/internal/config"
	"github.com/yourusername/wealth-ops/internal/database"
	"github.com/yourusername/wealth-ops/internal/datasource"
	"github.com/yourusername/wealth-ops/internal/health"
	"github.com/yourusername/wealth-ops/internal/logger"
	"github.com/yourusername/wealth-ops/internal/metrics"
	"github.com/yourusername/wealth-ops/internal/regime"
	"github.com/yourusername/wealth-ops/internal/repository"
	"github.com/yourusername/wealth-ops/internal/scheduler"
	"github.com/yourusername/wealth-ops/internal/service"
	"github.com/yourusername/wealth-ops/internal/statestore"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	configFile string
	tickers    []string

	appLogger *logrus.Logger
	cfg       *config.Config
	db        *database.DB
	repos     *repository.Repositories
	state     statestore.Store
	manager   *datasource.Manager
	filter    *regime.Filter
	ingestion *service.IngestionService
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().StringSliceVarP(&tickers, "ticker", "t", nil, "Ticker(s) to ingest; defaults to every configured asset")
	rootCmd.AddCommand(onceCmd, serveCmd)
}

var rootCmd = &cobra.Command{
	Use:   "data-ingestion",
	Short: "Ingest daily candles and maintain the market regime",
	Long:  `Fetches daily OHLCV bars with provider failover, stores them in PostgreSQL and refreshes the market regime flag.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
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

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single ingestion pass and regime check, then exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := ingestion.RunOnce(cmd.Context(), selectedTickers())
		if m != nil {
			fmt.Println(m.String())
		}
		return err
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduled ingestion daemon with health and metrics endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
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
	if err := config.Validate(cfg); err != nil {
		return err
	}

	appLogger = logger.NewLogger(cfg.App.LogLevel)
	appLogger.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"version":     Version,
		"commit":      GitCommit,
	}).Info("Configuration loaded")
	metrics.InitRegistry()
	return nil
}

func setupDependencies(ctx context.Context) error {
	var err error
	db, err = database.Initialize(ctx, cfg, appLogger)
	if err != nil {
		return err
	}
	repos, err = repository.NewRepositories(db)
	if err != nil {
		return err
	}

	ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	cleanup := time.Duration(cfg.Cache.CleanupIntervalSeconds) * time.Second
	state = statestore.NewCachedStore(statestore.NewMemoryStore(ttl, cleanup), statestore.NewPostgresStore(repos.SystemState))

	primary, fallback, err := datasource.NewFactory(cfg.Data, repos.PriceBar, appLogger).WithProfiles(cfg.Profile).Providers()
	if err != nil {
		return err
	}

	writer := service.NewValidatingWriter(repos.PriceBar, service.NewBarValidator(), appLogger)
	manager, err = datasource.NewManager(primary, fallback, writer, state, logger.NewDataLogger(appLogger),
		datasource.ManagerConfig{MaxHistoryYears: cfg.Data.MaxHistoryYears})
	if err != nil {
		return err
	}

	filter = regime.NewFilter(primary, state, logger.NewAuditLogger(appLogger),
		regime.WithIndex(cfg.Regime.IndexTicker), regime.WithPeriod(cfg.Regime.MAPeriod))
	ingestion = service.NewIngestionService(manager, filter, writer, appLogger)
	return nil
}

func selectedTickers() []string {
	if len(tickers) > 0 {
		return tickers
	}
	return cfg.Tickers()
}

func serve(ctx context.Context) error {
	sched := scheduler.NewScheduler(appLogger)
	deps := scheduler.Dependencies{
		Ingester: ingestion,
		Regime:   filter,
		Tickers:  selectedTickers(),
	}
	if cfg.Schedule.NightlyBacktest != "" {
		deps.NightlyBacktest = nightlyBacktest
	}
	if err := scheduler.RegisterJobs(sched, cfg.Schedule, deps); err != nil {
		return fmt.Errorf("failed to register jobs: %w", err)
	}

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	server := health.NewServer(health.Config{
		ServiceName: "data-ingestion",
		Version:     Version,
		Port:        cfg.Metrics.Port,
		MetricsPath: metricsPath,
		Logger:      appLogger,
		DB:          db,
		Regime:      filter,
		Jobs:        sched,
	})
	if err := server.Start(ctx); err != nil {
		return err
	}

	if err := sched.Start(); err != nil {
		return err
	}
	server.SetReady(true)
	appLogger.WithField("jobs", sched.Jobs()).Info("Ingestion daemon started")

	<-ctx.Done()
	appLogger.Info("Shutdown signal received")
	server.SetReady(false)
	if err := sched.Stop(); err != nil {
		appLogger.WithError(err).Warn("Scheduler did not stop cleanly")
	}
	return server.Shutdown()
}

// nightlyBacktest reruns the configured assets against the ingested bars and stores the results
func nightlyBacktest(ctx context.Context) error {
	btConfig, err := backtest.FromConfig(cfg)
	if err != nil {
		return err
	}
	btConfig.EndDate = time.Now().UTC().Truncate(24 * time.Hour)
	svc := service.NewBacktestService(datasource.NewPostgresProvider(repos.PriceBar), btConfig, repos.BacktestRun,
		logger.NewBacktestLogger(appLogger), logger.NewAuditLogger(appLogger))

	var failed int
	for _, ticker := range selectedTickers() {
		job, err := service.NewJob(ticker, cfg.ProfileName(ticker))
		if err != nil {
			return err
		}
		report, err := svc.RunWalkForward(ctx, job)
		if err == nil {
			_, err = svc.Persist(ctx, report)
		}
		if err != nil {
			appLogger.WithError(err).WithField("ticker", job.Ticker).Error("Nightly backtest failed")
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("nightly backtest: %d tickers failed", failed)
	}
	return nil
}
