package datasource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/wealth-ops/internal/config"
	"github.com/yourusername/wealth-ops/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testHTTPClient() *RateLimitedHTTPClient {
	return NewRateLimitedHTTPClient(HTTPClientConfig{
		Timeout:           2 * time.Second,
		MaxRetries:        1,
		RetryWaitMin:      time.Millisecond,
		RetryWaitMax:      2 * time.Millisecond,
		RateLimit:         1000,
		Burst:             10,
		CircuitBreakerMax: 3,
	}, nil)
}

func TestProviderError(t *testing.T) {
	cause := errors.New("timeout")
	err := NewProviderError("Tiingo", "AAPL", "HTTP 500: boom", cause)

	assert.Equal(t, "[Tiingo] Failed to fetch AAPL: HTTP 500: boom", err.Error())
	assert.ErrorIs(t, err, ErrProvider)
	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("ingest: %w", err)
	var pe *ProviderError
	require.ErrorAs(t, wrapped, &pe)
	assert.Equal(t, "AAPL", pe.Ticker)
}

func TestTiingoProviderDailyCandles(t *testing.T) {
	var gotPath, gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.URL.Query().Get("token")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{"date":"2024-01-03T00:00:00.000Z","open":2,"high":3,"low":1.5,"close":2.5,"volume":200,"adjClose":2.5},
			{"date":"2024-01-02T00:00:00.000Z","open":1,"high":2,"low":0.5,"close":1.5,"volume":100,"adjClose":1.5}
		]`)
	}))
	defer srv.Close()

	p := NewTiingoProvider(testHTTPClient(), "secret", srv.URL, nil)
	bars, err := p.DailyCandles(context.Background(), "aapl", day(2024, 1, 1), day(2024, 1, 5))
	require.NoError(t, err)

	assert.Equal(t, "/aapl/prices", gotPath)
	assert.Equal(t, "secret", gotToken)
	require.Len(t, bars, 2)
	assert.Equal(t, day(2024, 1, 2), bars[0].Date)
	assert.Equal(t, "AAPL", bars[0].Ticker)
	assert.Equal(t, 2.5, bars[1].Close)
	assert.Equal(t, "tiingo", bars[1].Source)
}

func TestTiingoProviderErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"not found", http.StatusNotFound, `{"detail":"Not found."}`, "HTTP 404"},
		{"empty", http.StatusOK, `[]`, "No data returned"},
		{"bad json", http.StatusOK, `{`, "failed to parse response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			p := NewTiingoProvider(testHTTPClient(), "k", srv.URL, nil)
			_, err := p.DailyCandles(context.Background(), "SPY", day(2024, 1, 1), day(2024, 1, 5))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrProvider)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestHTTPClientRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resp, err := testHTTPClient().Get(context.Background(), srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestHTTPClientCircuitBreaker(t *testing.T) {
	client := testHTTPClient()
	// nothing listens on this port
	url := "http://127.0.0.1:1/unreachable"

	for i := 0; i < 3; i++ {
		_, err := client.Get(context.Background(), url)
		require.Error(t, err)
	}
	_, err := client.Get(context.Background(), url)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")

	client.Reset()
	_, err = client.Get(context.Background(), url)
	assert.NotContains(t, err.Error(), "circuit breaker open")
}

func writeCSV(t *testing.T, dir, ticker, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ticker+".csv"), []byte(content), 0o644))
}

func TestCSVProvider(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "GLD", "date,open,high,low,close,volume,adj_close\n"+
		"2024-01-04,3,4,2,3.5,300,3.5\n"+
		"2024-01-02,1,2,0.5,1.5,100,1.5\n"+
		"2024-01-03,2,3,1.5,2.5,200,2.5\n")

	p := NewCSVProvider(dir)
	bars, err := p.DailyCandles(context.Background(), "gld", day(2024, 1, 2), day(2024, 1, 3))
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, day(2024, 1, 2), bars[0].Date)
	assert.Equal(t, 2.5, bars[1].Close)
	assert.Equal(t, 2.5, bars[1].AdjClose)
}

func TestCSVProviderErrors(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "BAD", "date,open,high,low,close\n2024-01-02,1,2,0.5,1.5\n")
	writeCSV(t, dir, "NUM", "date,open,high,low,close,volume\n2024-01-02,1,x,0.5,1.5,10\n")
	p := NewCSVProvider(dir)
	ctx := context.Background()

	_, err := p.DailyCandles(ctx, "MISSING", day(2024, 1, 1), day(2024, 2, 1))
	assert.ErrorIs(t, err, ErrProvider)

	_, err = p.DailyCandles(ctx, "BAD", day(2024, 1, 1), day(2024, 2, 1))
	assert.ErrorIs(t, err, models.ErrMissingColumns)
	assert.ErrorIs(t, err, ErrProvider)

	_, err = p.DailyCandles(ctx, "NUM", day(2024, 1, 1), day(2024, 2, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid high")
}

func TestCSVProviderAssetClassLayout(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "ohlcv", "forex")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	writeCSV(t, nested, "GLD", "date,open,high,low,close,volume\n2024-01-02,180,182,179,181,100\n")
	writeCSV(t, dir, "GLD", "date,open,high,low,close,volume\n2024-01-02,1,2,0.5,1.5,100\n")
	writeCSV(t, dir, "AAPL", "date,open,high,low,close,volume\n2024-01-02,190,192,189,191,100\n")

	profiles := map[string]models.AssetProfile{"GLD": models.CommodityHavenProfile}
	p := NewCSVProvider(dir).WithProfiles(func(ticker string) models.AssetProfile {
		if profile, ok := profiles[ticker]; ok {
			return profile
		}
		return models.EquityProfile
	})

	assert.Equal(t, filepath.Join(nested, "GLD.csv"), p.Path("GLD"))
	bars, err := p.DailyCandles(context.Background(), "GLD", day(2024, 1, 1), day(2024, 1, 31))
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 181.0, bars[0].Close)

	// no ohlcv/stocks file, so the flat layout is used
	assert.Equal(t, filepath.Join(dir, "AAPL.csv"), p.Path("AAPL"))
	assert.Equal(t, filepath.Join(dir, "GLD.csv"), NewCSVProvider(dir).Path("GLD"))
}

func TestLoadFrame(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "SPY", "date,open,high,low,close,volume\n2024-01-02,1,2,0.5,1.5,100\n2024-01-03,2,3,1.5,2.5,200\n")

	frame, err := LoadFrame(context.Background(), NewCSVProvider(dir), "SPY", day(2024, 1, 1), day(2024, 1, 31))
	require.NoError(t, err)
	assert.Equal(t, 2, frame.Len())
	assert.Equal(t, 2.5, frame.Value(models.ColClose, 1))
}

func TestFactory(t *testing.T) {
	cfg := config.DataConfig{
		PrimaryProvider:   "csv",
		FallbackProvider:  "tiingo",
		CSVDir:            t.TempDir(),
		TiingoAPIKey:      "k",
		TimeoutSeconds:    5,
		RequestsPerSecond: 1,
		Burst:             1,
	}
	primary, fallback, err := NewFactory(cfg, nil, nil).Providers()
	require.NoError(t, err)
	assert.Equal(t, "CSV", primary.Name())
	assert.Equal(t, "Tiingo", fallback.Name())

	_, err = NewFactory(cfg, nil, nil).Create(PostgresSourceType)
	assert.Error(t, err)

	cfg.TiingoAPIKey = ""
	_, _, err = NewFactory(cfg, nil, nil).Providers()
	assert.Error(t, err)

	_, err = NewFactory(cfg, nil, nil).Create("yahoo")
	assert.Error(t, err)
}
