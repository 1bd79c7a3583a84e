package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/wealth-ops/internal/backtest"
	"github.com/yourusername/wealth-ops/internal/datasource"
	"github.com/yourusername/wealth-ops/internal/logger"
	"github.com/yourusername/wealth-ops/internal/metrics"
	"github.com/yourusername/wealth-ops/internal/models"
	"github.com/yourusername/wealth-ops/internal/repository"
)

// Job names one ticker run and the profile it runs under
type Job struct {
	Ticker      string
	ProfileName string
	Profile     models.AssetProfile
}

// NewJob resolves a profile template by name
func NewJob(ticker, profileName string) (Job, error) {
	profile, err := models.ProfileByName(profileName)
	if err != nil {
		return Job{}, err
	}
	return Job{Ticker: strings.ToUpper(ticker), ProfileName: strings.ToUpper(profileName), Profile: profile}, nil
}

// Report is everything produced by one service run
type Report struct {
	Ticker      string                      `json:"ticker"`
	Profile     string                      `json:"profile"`
	Mode        string                      `json:"mode"`
	RunID       string                      `json:"run_id,omitempty"`
	Result      *backtest.Result            `json:"result"`
	Metrics     backtest.Metrics            `json:"metrics"`
	MonteCarlo  *backtest.MonteCarloResult  `json:"monte_carlo,omitempty"`
	WalkForward *backtest.WalkForwardResult `json:"walk_forward,omitempty"`
	Aggregated  *backtest.AggregatedResult  `json:"aggregated,omitempty"`
}

// BacktestService drives data loading, the engine and the evaluation methods
type BacktestService struct {
	pipeline *Pipeline
	cfg      backtest.BacktestConfig
	runs     repository.BacktestRunRepository
	log      *logger.BacktestLogger
	audit    *logger.AuditLogger
}

// NewBacktestService creates the service. runs and audit may be nil, in which
// case Persist is unavailable.
func NewBacktestService(
	provider datasource.Provider,
	cfg backtest.BacktestConfig,
	runs repository.BacktestRunRepository,
	log *logger.BacktestLogger,
	audit *logger.AuditLogger,
) *BacktestService {
	if log == nil {
		log = logger.NewBacktestLogger(logger.Discard())
	}
	return &BacktestService{
		pipeline: NewPipeline(provider, log),
		cfg:      cfg,
		runs:     runs,
		log:      log,
		audit:    audit,
	}
}

// prepare loads the warm-up history and returns the enriched evaluation window
func (s *BacktestService) prepare(ctx context.Context, job Job) (*models.Frame, error) {
	loadStart := s.cfg.StartDate.AddDate(-WarmupYears, 0, 0)
	enriched, err := s.pipeline.Load(ctx, job.Ticker, job.Profile, loadStart, s.cfg.EndDate)
	if err != nil {
		return nil, err
	}
	window := enriched.Frame.Between(s.cfg.StartDate, s.cfg.EndDate.AddDate(0, 0, 1))
	if window.Len() == 0 {
		return nil, fmt.Errorf("%s: %w: no bars between %s and %s", job.Ticker, models.ErrInsufficientData,
			s.cfg.StartDate.Format("2006-01-02"), s.cfg.EndDate.Format("2006-01-02"))
	}
	return window, nil
}

// RunHistorical runs the engine once over the configured window and resamples its trades
func (s *BacktestService) RunHistorical(ctx context.Context, job Job) (*Report, error) {
	started := time.Now()
	report, err := s.runHistorical(ctx, job)
	s.finish(backtest.ModeHistorical, job.Ticker, started, err)
	return report, err
}

func (s *BacktestService) runHistorical(ctx context.Context, job Job) (*Report, error) {
	frame, err := s.prepare(ctx, job)
	if err != nil {
		return nil, err
	}
	return s.evaluate(ctx, job, frame, backtest.ModeHistorical)
}

// RunWalkForward runs the historical evaluation plus rolling out-of-sample
// windows and aggregates all three methods into a recommendation
func (s *BacktestService) RunWalkForward(ctx context.Context, job Job) (*Report, error) {
	started := time.Now()
	report, err := s.runWalkForward(ctx, job)
	s.finish(backtest.ModeWalkForward, job.Ticker, started, err)
	return report, err
}

func (s *BacktestService) runWalkForward(ctx context.Context, job Job) (*Report, error) {
	frame, err := s.prepare(ctx, job)
	if err != nil {
		return nil, err
	}
	report, err := s.evaluate(ctx, job, frame, backtest.ModeWalkForward)
	if err != nil {
		return nil, err
	}

	engine := backtest.NewEngine(s.cfg.InitialCapital, job.Profile, s.log)
	wf, err := backtest.RunWalkForward(ctx, engine, job.Ticker, frame, s.cfg.WalkForward)
	if err != nil {
		return nil, fmt.Errorf("%s: walk-forward: %w", job.Ticker, err)
	}
	for _, w := range wf.Windows {
		s.log.LogWalkForwardWindow(job.Ticker, w.WindowID, w.TestStart, w.TestEnd, w.TestMetrics.TotalTrades, w.TestMetrics.TotalReturn)
	}
	metrics.RecordWalkForwardWindows(len(wf.Windows))

	agg := backtest.AggregateResults(report.Metrics, *report.MonteCarlo, wf, backtest.DefaultAggregationWeights())
	agg.Ticker = job.Ticker
	metrics.UpdateCompositeScore(job.Ticker, agg.CompositeScore)

	report.WalkForward = &wf
	report.Aggregated = &agg
	return report, nil
}

// evaluate runs the engine, extended metrics and Monte Carlo on a prepared frame
func (s *BacktestService) evaluate(ctx context.Context, job Job, frame *models.Frame, mode string) (*Report, error) {
	runID := uuid.NewString()
	started := time.Now()
	s.log.LogRunStarted(runID, job.Ticker, mode, job.ProfileName, frame.Len())

	engine := backtest.NewEngine(s.cfg.InitialCapital, job.Profile, s.log)
	result, err := engine.Run(job.Ticker, frame)
	if err != nil {
		return nil, err
	}
	report, err := s.summarise(ctx, job, result, mode)
	if err != nil {
		return nil, err
	}
	report.RunID = runID

	s.log.LogRunCompleted(runID, job.Ticker, result.TotalTrades, result.FinalEquity, result.TotalReturn, result.MaxDrawdown, time.Since(started))
	return report, nil
}

// summarise derives metrics and the Monte Carlo distribution from a finished run
func (s *BacktestService) summarise(ctx context.Context, job Job, result *backtest.Result, mode string) (*Report, error) {
	m := backtest.CalculateMetrics(result, s.cfg.RiskFreeRate)
	m.ParameterHash = backtest.HashParameters(s.parameters(job, mode))

	mc, err := backtest.RunMonteCarlo(ctx, result.ClosedTrades(), backtest.MonteCarloConfig{
		Iterations:     s.cfg.MonteCarloIterations,
		Seed:           s.cfg.MonteCarloSeed,
		InitialCapital: result.InitialCapital,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: monte carlo: %w", job.Ticker, err)
	}

	for _, t := range result.ClosedTrades() {
		metrics.RecordTrade(job.Ticker, string(t.ExitReason))
	}
	metrics.UpdateFinalEquity(job.Ticker, result.FinalEquity)

	return &Report{
		Ticker:     job.Ticker,
		Profile:    job.ProfileName,
		Mode:       mode,
		Result:     result,
		Metrics:    m,
		MonteCarlo: &mc,
	}, nil
}

// RunMany loads every job concurrently, then runs the engines as one batch
func (s *BacktestService) RunMany(ctx context.Context, jobs []Job) ([]*Report, error) {
	started := time.Now()
	reports, err := s.runMany(ctx, jobs)
	s.finish(backtest.ModeHistorical, "batch", started, err)
	return reports, err
}

func (s *BacktestService) runMany(ctx context.Context, jobs []Job) ([]*Report, error) {
	frames := make([]*models.Frame, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	if s.cfg.Workers > 0 {
		g.SetLimit(s.cfg.Workers)
	}
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			frame, err := s.prepare(gctx, job)
			if err != nil {
				return err
			}
			frames[i] = frame
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	batch := make([]backtest.BatchJob, len(jobs))
	for i, job := range jobs {
		batch[i] = backtest.BatchJob{
			Ticker: job.Ticker,
			Engine: backtest.NewEngine(s.cfg.InitialCapital, job.Profile, s.log),
			Frame:  frames[i],
		}
	}
	results, err := backtest.RunBatch(ctx, batch, s.cfg.Workers)
	if err != nil {
		return nil, err
	}

	reports := make([]*Report, len(results))
	for i, res := range results {
		report, err := s.summarise(ctx, jobs[i], res, backtest.ModeHistorical)
		if err != nil {
			return nil, err
		}
		report.RunID = uuid.NewString()
		reports[i] = report
	}
	return reports, nil
}

// Persist stores a report's run and closed trades and returns the stored run ID
func (s *BacktestService) Persist(ctx context.Context, report *Report) (string, error) {
	if s.runs == nil {
		return "", fmt.Errorf("persistence is not configured")
	}
	if report == nil || report.Result == nil {
		return "", fmt.Errorf("report has no result")
	}

	job, err := NewJob(report.Ticker, report.Profile)
	if err != nil {
		return "", err
	}
	params := s.parameters(job, report.Mode)
	run, err := backtest.ToRunRecord(report.Result, report.Mode, report.Metrics, report.Aggregated, params)
	if err != nil {
		return "", err
	}
	if report.RunID != "" {
		if id, err := uuid.Parse(report.RunID); err == nil {
			run.ID = id
		}
	}
	trades := backtest.ToTradeRecords(run.ID, report.Result.Trades)
	if err := s.runs.SaveRun(ctx, run, trades); err != nil {
		return "", fmt.Errorf("save run for %s: %w", report.Ticker, err)
	}

	if s.audit != nil {
		s.audit.LogResultPersisted(run.ID.String(), run.Ticker, run.Mode, run.Recommendation, len(trades))
	}
	report.RunID = run.ID.String()
	return report.RunID, nil
}

func (s *BacktestService) parameters(job Job, mode string) map[string]interface{} {
	return map[string]interface{}{
		"ticker":          job.Ticker,
		"profile":         job.ProfileName,
		"profile_fields":  job.Profile.ToMap(),
		"mode":            mode,
		"start_date":      s.cfg.StartDate.Format("2006-01-02"),
		"end_date":        s.cfg.EndDate.Format("2006-01-02"),
		"initial_capital": s.cfg.InitialCapital,
	}
}

func (s *BacktestService) finish(mode, ticker string, started time.Time, err error) {
	status := "success"
	if err != nil {
		status = "failure"
		s.log.LogRunFailed(ticker, err)
	}
	metrics.RecordBacktestRun(mode, status, time.Since(started).Seconds())
}
