package datasource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/wealth-ops/internal/models"
)

// CSVProvider reads <dir>/<TICKER>.csv files with a date,open,high,low,close,volume header.
// An adj_close column is optional. With a profile resolver, files under the asset
// class prefix (<dir>/ohlcv/stocks/AAPL.csv) take precedence over the flat layout.
type CSVProvider struct {
	dir      string
	profiles func(ticker string) models.AssetProfile
}

// NewCSVProvider creates a provider rooted at dir
func NewCSVProvider(dir string) *CSVProvider {
	return &CSVProvider{dir: dir}
}

// WithProfiles enables the per-asset-class directory layout
func (p *CSVProvider) WithProfiles(resolve func(ticker string) models.AssetProfile) *CSVProvider {
	p.profiles = resolve
	return p
}

// Name returns the provider name
func (p *CSVProvider) Name() string {
	return "CSV"
}

// Path returns the file read for ticker
func (p *CSVProvider) Path(ticker string) string {
	name := strings.ToUpper(ticker) + ".csv"
	if p.profiles != nil {
		nested := filepath.Join(p.dir, filepath.FromSlash(p.profiles(strings.ToUpper(ticker)).StoragePrefix()), name)
		if _, err := os.Stat(nested); err == nil {
			return nested
		}
	}
	return filepath.Join(p.dir, name)
}

// DailyCandles loads the ticker file and keeps rows inside [start, end]
func (p *CSVProvider) DailyCandles(ctx context.Context, ticker string, start, end time.Time) ([]models.PriceBar, error) {
	ticker = strings.ToUpper(ticker)
	if err := ctx.Err(); err != nil {
		return nil, NewProviderError(p.Name(), ticker, err.Error(), err)
	}

	f, err := os.Open(p.Path(ticker))
	if err != nil {
		return nil, NewProviderError(p.Name(), ticker, "cannot open file", err)
	}
	defer f.Close()

	bars, err := readCSVBars(ticker, f)
	if err != nil {
		return nil, NewProviderError(p.Name(), ticker, err.Error(), err)
	}

	from, to := truncateDay(start), truncateDay(end)
	kept := bars[:0]
	for _, b := range bars {
		if b.Date.Before(from) || b.Date.After(to) {
			continue
		}
		kept = append(kept, b)
	}
	if len(kept) == 0 {
		return nil, NewProviderError(p.Name(), ticker, "No data returned", nil)
	}
	return kept, nil
}

var requiredCSVColumns = []string{"date", "open", "high", "low", "close", "volume"}

func readCSVBars(ticker string, r io.Reader) ([]models.PriceBar, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	var missing []string
	for _, c := range requiredCSVColumns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &models.MissingColumnsError{Component: "csv", Columns: missing}
	}
	adjIdx, hasAdj := idx["adj_close"]

	var bars []models.PriceBar
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		date, err := time.Parse("2006-01-02", strings.TrimSpace(rec[idx["date"]]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid date: %w", line, err)
		}
		bar := models.PriceBar{Ticker: ticker, Date: date, Source: "csv"}
		fields := []struct {
			col string
			dst *float64
		}{
			{"open", &bar.Open}, {"high", &bar.High}, {"low", &bar.Low},
			{"close", &bar.Close}, {"volume", &bar.Volume},
		}
		for _, fld := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[idx[fld.col]]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid %s: %w", line, fld.col, err)
			}
			*fld.dst = v
		}
		if hasAdj && adjIdx < len(rec) {
			if v, err := strconv.ParseFloat(strings.TrimSpace(rec[adjIdx]), 64); err == nil {
				bar.AdjClose = v
			}
		}
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}
