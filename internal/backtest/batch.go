package backtest

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/yourusername/wealth-ops/internal/models"
)

// BatchJob is one independent ticker run
type BatchJob struct {
	Ticker string
	Engine *Engine
	Frame  *models.Frame
}

// RunBatch runs independent jobs concurrently with at most workers in flight.
// Results are returned in job order; the first failure cancels the rest.
func RunBatch(ctx context.Context, jobs []BatchJob, workers int) ([]*Result, error) {
	results := make([]*Result, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if job.Engine == nil {
				return fmt.Errorf("%s: engine is required", job.Ticker)
			}
			res, err := job.Engine.Run(job.Ticker, job.Frame)
			if err != nil {
				return fmt.Errorf("%s: %w", job.Ticker, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
