package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job names used by the ingestion daemon
const (
	JobDailyIngest     = "daily_ingest"
	JobRegimeCheck     = "regime_check"
	JobNightlyBacktest = "nightly_backtest"
)

// JobFunc is the body of a scheduled job
type JobFunc func(ctx context.Context) error

type job struct {
	name    string
	timeout time.Duration
	fn      JobFunc
	entryID cron.EntryID
}

// Scheduler manages cron jobs for ingestion, regime checks and nightly backtests
type Scheduler struct {
	cron            *cron.Cron
	logger          logrus.FieldLogger
	mu              sync.RWMutex
	isRunning       bool
	jobs            map[string]*job
	order           []string
	gracefulTimeout time.Duration
}

// NewScheduler creates a new scheduler running in UTC
func NewScheduler(logger *logrus.Logger) *Scheduler {
	entry := logger.WithField("component", "scheduler")
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cron.PrintfLogger(entry)), cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		logger:          entry,
		jobs:            make(map[string]*job),
		gracefulTimeout: 30 * time.Second,
	}
}

// Schedule registers fn under name with a standard five-field cron expression
func (s *Scheduler) Schedule(name, cronExpression string, timeout time.Duration, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %q already scheduled", name)
	}
	if timeout <= 0 {
		timeout = time.Hour
	}

	j := &job{name: name, timeout: timeout, fn: fn}
	entryID, err := s.cron.AddFunc(cronExpression, func() { _ = s.run(context.Background(), j) })
	if err != nil {
		return fmt.Errorf("failed to add job %s: %w", name, err)
	}
	j.entryID = entryID
	s.jobs[name] = j
	s.order = append(s.order, name)

	s.logger.WithFields(logrus.Fields{"job": name, "cron": cronExpression}).Info("Scheduled job")
	return nil
}

// RunNow executes a registered job synchronously
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.RLock()
	j, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	return s.run(ctx, j)
}

func (s *Scheduler) run(parent context.Context, j *job) error {
	ctx, cancel := context.WithTimeout(parent, j.timeout)
	defer cancel()

	started := time.Now()
	log := s.logger.WithField("job", j.name)
	log.Info("Starting scheduled job")

	if err := j.fn(ctx); err != nil {
		log.WithError(err).WithField("duration_ms", time.Since(started).Milliseconds()).Error("Scheduled job failed")
		return err
	}
	log.WithField("duration_ms", time.Since(started).Milliseconds()).Info("Scheduled job completed")
	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.jobs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobs)).Info("Scheduler started")
	return nil
}

// Stop waits for running jobs to finish, up to the graceful timeout
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	done := s.cron.Stop().Done()
	s.isRunning = false
	select {
	case <-done:
		s.logger.Info("Scheduler stopped")
		return nil
	case <-time.After(s.gracefulTimeout):
		return fmt.Errorf("scheduler stop timed out after %s", s.gracefulTimeout)
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, name := range s.order {
		entry := s.cron.Entry(s.jobs[name].entryID)
		if entry.Valid() && (nextRun.IsZero() || entry.Next.Before(nextRun)) {
			nextRun = entry.Next
		}
	}
	return nextRun
}

// NextRuns maps each job to its next run; empty until the scheduler starts
func (s *Scheduler) NextRuns() map[string]time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]time.Time, len(s.order))
	if !s.isRunning {
		return out
	}
	for _, name := range s.order {
		if entry := s.cron.Entry(s.jobs[name].entryID); entry.Valid() {
			out[name] = entry.Next
		}
	}
	return out
}

// Jobs returns the registered job names in scheduling order
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// RemoveJob removes a scheduled job
func (s *Scheduler) RemoveJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot remove job while scheduler is running")
	}
	j, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}

	s.cron.Remove(j.entryID)
	delete(s.jobs, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.logger.WithField("job", name).Info("Removed job")
	return nil
}
