package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/wealth-ops/internal/datasource"
	"github.com/yourusername/wealth-ops/internal/models"
)

var (
	historyStart = time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	historyEnd   = time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
)

// syntheticProvider serves a deterministic trending sine wave per ticker
type syntheticProvider struct {
	mu       sync.Mutex
	missing  map[string]bool
	requests []string
}

func newSyntheticProvider(missing ...string) *syntheticProvider {
	p := &syntheticProvider{missing: map[string]bool{}}
	for _, m := range missing {
		p.missing[strings.ToUpper(m)] = true
	}
	return p
}

func (p *syntheticProvider) Name() string { return "synthetic" }

func (p *syntheticProvider) DailyCandles(_ context.Context, ticker string, start, end time.Time) ([]models.PriceBar, error) {
	p.mu.Lock()
	p.requests = append(p.requests, ticker)
	p.mu.Unlock()

	if p.missing[strings.ToUpper(ticker)] {
		return nil, datasource.NewProviderError(p.Name(), ticker, "No data returned", nil)
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(ticker))
	phase := float64(h.Sum32()%100) / 10

	var bars []models.PriceBar
	prev := 100.0
	i := 0
	for d := historyStart; !d.After(historyEnd); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		x := float64(i)
		closePrice := 100 + 0.05*x + 10*math.Sin(x/15+phase)
		open := prev
		i++
		prev = closePrice
		if d.Before(start) || d.After(end) {
			continue
		}
		bars = append(bars, models.PriceBar{
			Ticker: ticker,
			Date:   d,
			Open:   open,
			High:   math.Max(open, closePrice) + 1,
			Low:    math.Min(open, closePrice) - 1,
			Close:  closePrice,
			Volume: 1_000_000 + 200_000*math.Sin(x/7),
		})
	}
	return bars, nil
}

func (p *syntheticProvider) requested(ticker string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, r := range p.requests {
		if strings.EqualFold(r, ticker) {
			n++
		}
	}
	return n
}

// recordingRuns keeps saved runs in memory
type recordingRuns struct {
	mu     sync.Mutex
	runs   []*models.BacktestRun
	trades map[uuid.UUID][]*models.TradeRecord
	err    error
}

func (r *recordingRuns) SaveRun(_ context.Context, run *models.BacktestRun, trades []*models.TradeRecord) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.trades == nil {
		r.trades = map[uuid.UUID][]*models.TradeRecord{}
	}
	r.runs = append(r.runs, run)
	r.trades[run.ID] = trades
	return nil
}

func (r *recordingRuns) GetByID(_ context.Context, id uuid.UUID) (*models.BacktestRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, run := range r.runs {
		if run.ID == id {
			return run, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *recordingRuns) GetLatest(_ context.Context, ticker string, limit int) ([]*models.BacktestRun, error) {
	return nil, fmt.Errorf("not implemented")
}

func (r *recordingRuns) GetTrades(_ context.Context, runID uuid.UUID) ([]*models.TradeRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.trades[runID], nil
}

func (r *recordingRuns) DeleteOlderThan(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}
