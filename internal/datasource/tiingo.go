package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/wealth-ops/internal/models"
)

// DefaultTiingoBaseURL is the Tiingo end-of-day endpoint root
const DefaultTiingoBaseURL = "https://api.tiingo.com/tiingo/daily"

// TiingoProvider implements Provider for the Tiingo daily prices API
type TiingoProvider struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	apiKey     string
	logger     logrus.FieldLogger
}

// tiingoCandle is one element of the /prices response
type tiingoCandle struct {
	Date     string  `json:"date"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   float64 `json:"volume"`
	AdjClose float64 `json:"adjClose"`
}

// NewTiingoProvider creates a Tiingo provider; an empty baseURL uses DefaultTiingoBaseURL
func NewTiingoProvider(httpClient *RateLimitedHTTPClient, apiKey, baseURL string, logger logrus.FieldLogger) *TiingoProvider {
	if baseURL == "" {
		baseURL = DefaultTiingoBaseURL
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &TiingoProvider{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		logger:     logger,
	}
}

// Name returns the provider name
func (p *TiingoProvider) Name() string {
	return "Tiingo"
}

// DailyCandles fetches daily OHLCV candles from Tiingo
func (p *TiingoProvider) DailyCandles(ctx context.Context, ticker string, start, end time.Time) ([]models.PriceBar, error) {
	ticker = strings.ToUpper(ticker)
	p.logger.WithFields(logrus.Fields{
		"ticker": ticker,
		"start":  start.Format("2006-01-02"),
		"end":    end.Format("2006-01-02"),
	}).Info("Fetching data from Tiingo")

	q := url.Values{}
	q.Set("startDate", start.Format("2006-01-02"))
	q.Set("endDate", end.Format("2006-01-02"))
	q.Set("token", p.apiKey)
	endpoint := fmt.Sprintf("%s/%s/prices?%s", p.baseURL, url.PathEscape(strings.ToLower(ticker)), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, NewProviderError(p.Name(), ticker, "failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(ctx, req)
	if err != nil {
		return nil, NewProviderError(p.Name(), ticker, err.Error(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, NewProviderError(p.Name(), ticker,
			fmt.Sprintf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var candles []tiingoCandle
	if err := json.NewDecoder(resp.Body).Decode(&candles); err != nil {
		return nil, NewProviderError(p.Name(), ticker, "failed to parse response", err)
	}
	if len(candles) == 0 {
		return nil, NewProviderError(p.Name(), ticker, "No data returned", nil)
	}

	return p.normalize(ticker, candles)
}

// normalize converts the response to bars sorted by date
func (p *TiingoProvider) normalize(ticker string, candles []tiingoCandle) ([]models.PriceBar, error) {
	bars := make([]models.PriceBar, 0, len(candles))
	for _, c := range candles {
		date, err := parseTiingoDate(c.Date)
		if err != nil {
			return nil, NewProviderError(p.Name(), ticker, fmt.Sprintf("invalid date %q", c.Date), err)
		}
		bars = append(bars, models.PriceBar{
			Ticker:   ticker,
			Date:     date,
			Open:     c.Open,
			High:     c.High,
			Low:      c.Low,
			Close:    c.Close,
			Volume:   c.Volume,
			AdjClose: c.AdjClose,
			Source:   "tiingo",
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

func parseTiingoDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return truncateDay(t), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}
