package backtest

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// GenerateConsoleReport formats an aggregated result for terminal output
func GenerateConsoleReport(result AggregatedResult) string {
	h := result.Historical
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Backtest Report: %s\n", result.Ticker))
	builder.WriteString("================\n")
	builder.WriteString(fmt.Sprintf("Period: %s to %s (%d bars)\n", h.StartDate.Format("2006-01-02"), h.EndDate.Format("2006-01-02"), h.TradingDays))
	builder.WriteString(fmt.Sprintf("Composite Score: %.2f\n", result.CompositeScore))
	builder.WriteString(fmt.Sprintf("Recommendation: %s\n", result.Recommendation))
	builder.WriteString(fmt.Sprintf("Total Return: %.2f%%\n", h.TotalReturn*100))
	builder.WriteString(fmt.Sprintf("CAGR: %.2f%%\n", h.CAGR*100))
	builder.WriteString(fmt.Sprintf("Sharpe Ratio: %.2f\n", h.SharpeRatio))
	builder.WriteString(fmt.Sprintf("Sortino Ratio: %.2f\n", h.SortinoRatio))
	builder.WriteString(fmt.Sprintf("Max Drawdown: %.2f%%\n", h.MaxDrawdown*100))
	builder.WriteString(fmt.Sprintf("Trades: %d (win rate %.2f%%)\n", h.TotalTrades, h.WinRate*100))
	builder.WriteString(fmt.Sprintf("Profit Factor: %s\n", formatProfitFactor(h.ProfitFactor)))
	builder.WriteString(fmt.Sprintf("Costs: commission %s, funding %s\n", formatMoney(h.TotalCommission), formatMoney(h.TotalFunding)))
	if len(h.ExitReasons) > 0 {
		builder.WriteString(fmt.Sprintf("Exits: %s\n", formatExitReasons(h.ExitReasons)))
	}
	if len(result.WalkForward.Windows) > 0 {
		builder.WriteString(fmt.Sprintf("Walk-Forward: %d windows, consistency %.0f%%, overfit %.2f\n",
			len(result.WalkForward.Windows), result.WalkForward.ConsistencyScore*100, result.WalkForward.OverfitScore))
	}
	if result.MonteCarlo.Iterations > 0 && result.MonteCarlo.TradesPerPath > 0 {
		builder.WriteString(fmt.Sprintf("Monte Carlo: mean %.2f%%, VaR95 %.2f%%, ruin %.1f%%\n",
			result.MonteCarlo.MeanReturn*100, result.MonteCarlo.VaR95*100, result.MonteCarlo.ProbabilityOfRuin*100))
	}
	return builder.String()
}

// GenerateTradeTable lists every trade of a run
func GenerateTradeTable(result *Result) string {
	var builder strings.Builder
	builder.WriteString("entry_date  exit_date   entry     exit      size      pnl        reason\n")
	for _, t := range result.Trades {
		exitDate := "-"
		if !t.ExitDate.IsZero() {
			exitDate = t.ExitDate.Format("2006-01-02")
		}
		builder.WriteString(fmt.Sprintf("%s  %-10s  %-8.2f  %-8.2f  %-8.2f  %-9s  %s\n",
			t.EntryDate.Format("2006-01-02"), exitDate, t.EntryPrice, t.ExitPrice, t.Size, formatMoney(t.PnL), t.ExitReason))
	}
	return builder.String()
}

// GenerateHTMLReport writes a single-page HTML summary
func GenerateHTMLReport(result AggregatedResult, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	h := result.Historical

	page := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><title>Backtest Report: %s</title></head>
<body>
<h1>Backtest Report: %s</h1>
<p><strong>Composite Score:</strong> %.2f</p>
<p><strong>Recommendation:</strong> %s</p>
<p><strong>Total Return:</strong> %.2f%%</p>
<p><strong>Sharpe Ratio:</strong> %.2f</p>
<p><strong>Max Drawdown:</strong> %.2f%%</p>
<p><strong>Trades:</strong> %d</p>
<p><strong>Win Rate:</strong> %.2f%%</p>
<p><strong>Profit Factor:</strong> %s</p>
<p><strong>Walk-Forward Consistency:</strong> %.0f%%</p>
</body>
</html>`,
		html.EscapeString(result.Ticker),
		html.EscapeString(result.Ticker),
		result.CompositeScore,
		result.Recommendation,
		h.TotalReturn*100,
		h.SharpeRatio,
		h.MaxDrawdown*100,
		h.TotalTrades,
		h.WinRate*100,
		formatProfitFactor(h.ProfitFactor),
		result.WalkForward.ConsistencyScore*100,
	)

	return os.WriteFile(outputPath, []byte(page), 0o644)
}

// GenerateCSVExport writes key metrics as metric,value rows
func GenerateCSVExport(result AggregatedResult, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	h := result.Historical
	csv := "metric,value\n" +
		fmt.Sprintf("ticker,%s\n", result.Ticker) +
		fmt.Sprintf("composite_score,%.4f\n", result.CompositeScore) +
		fmt.Sprintf("total_return,%.4f\n", h.TotalReturn) +
		fmt.Sprintf("sharpe_ratio,%.4f\n", h.SharpeRatio) +
		fmt.Sprintf("max_drawdown,%.4f\n", h.MaxDrawdown) +
		fmt.Sprintf("total_trades,%d\n", h.TotalTrades) +
		fmt.Sprintf("win_rate,%.4f\n", h.WinRate) +
		fmt.Sprintf("profit_factor,%.4f\n", reportableProfitFactor(h.ProfitFactor)) +
		fmt.Sprintf("consistency_score,%.4f\n", result.WalkForward.ConsistencyScore) +
		fmt.Sprintf("recommendation,%s\n", result.Recommendation)
	return os.WriteFile(outputPath, []byte(csv), 0o644)
}

func formatMoney(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func formatProfitFactor(pf float64) string {
	if pf > MaxReportedProfitFactor {
		return "inf"
	}
	return fmt.Sprintf("%.2f", pf)
}

func formatExitReasons(reasons map[ExitReason]int) string {
	keys := make([]string, 0, len(reasons))
	for reason := range reasons {
		keys = append(keys, string(reason))
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, reasons[ExitReason(k)]))
	}
	return strings.Join(parts, " ")
}
