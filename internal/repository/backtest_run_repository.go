package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/wealth-ops/internal/database"
	"github.com/yourusername/wealth-ops/internal/models"
)

const (
	errScanBacktestRun = "failed to scan backtest run: %w"

	backtestRunColumns = `id, ticker, mode, run_date, start_date, end_date, initial_capital, final_equity,
		total_return, sharpe_ratio, max_drawdown, total_trades, win_rate, profit_factor,
		composite_score, recommendation, parameters, created_at`

	tradeColumns = `id, run_id, ticker, direction, entry_date, entry_price, exit_date, exit_price,
		exit_reason, size, stop_loss, take_profit, commission, funding_fees, pnl, pnl_percent, days_held`
)

// PostgresBacktestRunRepository implements BacktestRunRepository for PostgreSQL
type PostgresBacktestRunRepository struct {
	q  database.Querier
	tx Transactor
}

// NewPostgresBacktestRunRepository creates a new backtest run repository
func NewPostgresBacktestRunRepository(db *database.DB) BacktestRunRepository {
	return &PostgresBacktestRunRepository{q: db.Querier(), tx: db}
}

// SaveRun inserts the run and its trades in one transaction
func (r *PostgresBacktestRunRepository) SaveRun(ctx context.Context, run *models.BacktestRun, trades []*models.TradeRecord) error {
	if run == nil {
		return fmt.Errorf("backtest run is required")
	}
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	return r.tx.WithTransaction(ctx, func(q database.Querier) error {
		_, err := q.Exec(ctx, `INSERT INTO backtest_runs (`+backtestRunColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
			run.ID, run.Ticker, run.Mode, run.RunDate, run.StartDate, run.EndDate,
			run.InitialCapital, run.FinalEquity, run.TotalReturn, run.SharpeRatio, run.MaxDrawdown,
			run.TotalTrades, run.WinRate, run.ProfitFactor, run.CompositeScore, run.Recommendation,
			run.Parameters, run.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to save backtest run: %w", err)
		}

		for _, t := range trades {
			t.RunID = run.ID
			if t.ID == uuid.Nil {
				t.ID = uuid.New()
			}
			_, err := q.Exec(ctx, `INSERT INTO backtest_trades (`+tradeColumns+`)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
				t.ID, t.RunID, t.Ticker, t.Direction, t.EntryDate, t.EntryPrice, t.ExitDate, t.ExitPrice,
				t.ExitReason, t.Size, t.StopLoss, t.TakeProfit, t.Commission, t.FundingFees, t.PnL,
				t.PnLPercent, t.DaysHeld,
			)
			if err != nil {
				return fmt.Errorf("failed to save trade %s: %w", t.ID, err)
			}
		}
		return nil
	})
}

// GetByID retrieves a backtest run by ID
func (r *PostgresBacktestRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.BacktestRun, error) {
	row := r.q.QueryRow(ctx, `SELECT `+backtestRunColumns+` FROM backtest_runs WHERE id = $1`, id)
	run, err := scanBacktestRun(row)
	if err != nil {
		return nil, notFound(err)
	}
	return run, nil
}

// GetLatest retrieves the most recent runs for a ticker; an empty ticker matches all
func (r *PostgresBacktestRunRepository) GetLatest(ctx context.Context, ticker string, limit int) ([]*models.BacktestRun, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.q.Query(ctx, `SELECT `+backtestRunColumns+` FROM backtest_runs
		WHERE ($1 = '' OR ticker = $1) ORDER BY run_date DESC LIMIT $2`, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest backtest runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.BacktestRun
	for rows.Next() {
		run, err := scanBacktestRun(rows)
		if err != nil {
			return nil, fmt.Errorf(errScanBacktestRun, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetTrades retrieves the trades of a run ordered by entry date
func (r *PostgresBacktestRunRepository) GetTrades(ctx context.Context, runID uuid.UUID) ([]*models.TradeRecord, error) {
	rows, err := r.q.Query(ctx, `SELECT `+tradeColumns+` FROM backtest_trades
		WHERE run_id = $1 ORDER BY entry_date ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []*models.TradeRecord
	for rows.Next() {
		t := &models.TradeRecord{}
		if err := rows.Scan(
			&t.ID, &t.RunID, &t.Ticker, &t.Direction, &t.EntryDate, &t.EntryPrice, &t.ExitDate, &t.ExitPrice,
			&t.ExitReason, &t.Size, &t.StopLoss, &t.TakeProfit, &t.Commission, &t.FundingFees, &t.PnL,
			&t.PnLPercent, &t.DaysHeld,
		); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// DeleteOlderThan removes runs (and their trades) created before cutoff
func (r *PostgresBacktestRunRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM backtest_runs WHERE run_date < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old backtest runs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanBacktestRun(row pgx.Row) (*models.BacktestRun, error) {
	run := &models.BacktestRun{}
	err := row.Scan(
		&run.ID, &run.Ticker, &run.Mode, &run.RunDate, &run.StartDate, &run.EndDate,
		&run.InitialCapital, &run.FinalEquity, &run.TotalReturn, &run.SharpeRatio, &run.MaxDrawdown,
		&run.TotalTrades, &run.WinRate, &run.ProfitFactor, &run.CompositeScore, &run.Recommendation,
		&run.Parameters, &run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return run, nil
}
