package backtest

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// EquityPoint is one bar's mark-to-market account value
type EquityPoint struct {
	Time     time.Time `json:"time"`
	Value    float64   `json:"value"`
	Drawdown float64   `json:"drawdown"`
	DailyPnL float64   `json:"daily_pnl"`
}

// EquityCurve is the per-bar equity series of a run
type EquityCurve []EquityPoint

// Values returns the equity values in order
func (e EquityCurve) Values() []float64 {
	out := make([]float64, len(e))
	for i, p := range e {
		out[i] = p.Value
	}
	return out
}

// GetReturns calculates bar-to-bar returns
func (e EquityCurve) GetReturns() []float64 {
	if len(e) < 2 {
		return []float64{}
	}
	returns := make([]float64, 0, len(e)-1)
	for i := 1; i < len(e); i++ {
		prev := e[i-1].Value
		if prev == 0 || math.IsNaN(prev) || math.IsNaN(e[i].Value) {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, (e[i].Value-prev)/prev)
	}
	return returns
}

// GetVolatility is the population standard deviation of returns
func (e EquityCurve) GetVolatility() float64 {
	return stddev(e.GetReturns())
}

// GetDownsideDeviation is the root mean square of negative returns
func (e EquityCurve) GetDownsideDeviation() float64 {
	variance := 0.0
	count := 0
	for _, r := range e.GetReturns() {
		if r < 0 {
			variance += r * r
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return math.Sqrt(variance / float64(count))
}

// MaxDrawdown is the largest recorded peak-to-trough decline as a fraction of the peak
func (e EquityCurve) MaxDrawdown() float64 {
	maxDD := 0.0
	for _, p := range e {
		if p.Drawdown > maxDD {
			maxDD = p.Drawdown
		}
	}
	return maxDD
}

// ToCSV exports the equity curve as CSV
func (e EquityCurve) ToCSV() string {
	var buf bytes.Buffer
	buf.WriteString("date,equity,drawdown,daily_pnl\n")
	for _, point := range e {
		buf.WriteString(point.Time.Format("2006-01-02"))
		buf.WriteString(",")
		buf.WriteString(formatFloat(point.Value))
		buf.WriteString(",")
		buf.WriteString(formatFloat(point.Drawdown))
		buf.WriteString(",")
		buf.WriteString(formatFloat(point.DailyPnL))
		buf.WriteString("\n")
	}
	return buf.String()
}

// ToJSON exports the equity curve as JSON
func (e EquityCurve) ToJSON() (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
