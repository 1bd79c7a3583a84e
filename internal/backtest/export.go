package backtest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yourusername/wealth-ops/internal/models"
)

// Run modes recorded on persisted runs
const (
	ModeHistorical  = "HISTORICAL"
	ModeWalkForward = "WALK_FORWARD"
)

// ExportToJSON writes any report value as indented JSON
func ExportToJSON(v any, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ToRunRecord converts a run into its persisted form
func ToRunRecord(result *Result, mode string, metrics Metrics, aggregated *AggregatedResult, params map[string]interface{}) (*models.BacktestRun, error) {
	if result == nil {
		return nil, fmt.Errorf("result is required")
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal parameters: %w", err)
	}

	start, end := result.Period()
	run := &models.BacktestRun{
		ID:             uuid.New(),
		Ticker:         result.Ticker,
		Mode:           mode,
		RunDate:        time.Now().UTC(),
		StartDate:      start,
		EndDate:        end,
		InitialCapital: decimal.NewFromFloat(result.InitialCapital),
		FinalEquity:    decimal.NewFromFloat(result.FinalEquity).Round(2),
		TotalReturn:    result.TotalReturn,
		SharpeRatio:    metrics.SharpeRatio,
		MaxDrawdown:    result.MaxDrawdown,
		TotalTrades:    result.TotalTrades,
		WinRate:        result.WinRate,
		ProfitFactor:   reportableProfitFactor(result.ProfitFactor),
		Parameters:     raw,
	}
	if aggregated != nil {
		run.CompositeScore = aggregated.CompositeScore
		run.Recommendation = string(aggregated.Recommendation)
	}
	return run, nil
}

// ToTradeRecords converts closed trades into persisted rows for runID
func ToTradeRecords(runID uuid.UUID, trades []Trade) []*models.TradeRecord {
	records := make([]*models.TradeRecord, 0, len(trades))
	for _, t := range trades {
		if t.Status != TradeClosed {
			continue
		}
		records = append(records, &models.TradeRecord{
			ID:          uuid.New(),
			RunID:       runID,
			Ticker:      t.Ticker,
			Direction:   string(t.Direction),
			EntryDate:   t.EntryDate,
			EntryPrice:  decimal.NewFromFloat(t.EntryPrice),
			ExitDate:    t.ExitDate,
			ExitPrice:   decimal.NewFromFloat(t.ExitPrice),
			Size:        decimal.NewFromFloat(t.Size),
			StopLoss:    decimal.NewFromFloat(t.StopLoss),
			TakeProfit:  decimal.NewFromFloat(t.TakeProfit),
			Commission:  decimal.NewFromFloat(t.Commission).Round(4),
			FundingFees: decimal.NewFromFloat(t.FundingFees).Round(4),
			PnL:         decimal.NewFromFloat(t.PnL).Round(4),
			PnLPercent:  t.PnLPercent,
			ExitReason:  string(t.ExitReason),
			DaysHeld:    t.DaysHeld,
		})
	}
	return records
}
