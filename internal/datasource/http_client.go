package datasource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/wealth-ops/internal/config"
	"golang.org/x/time/rate"
)

// HTTPClientConfig holds configuration for HTTP clients
type HTTPClientConfig struct {
	Timeout           time.Duration
	MaxRetries        int
	RetryWaitMin      time.Duration
	RetryWaitMax      time.Duration
	RateLimit         float64 // requests per second
	Burst             int
	CircuitBreakerMax int // consecutive failures before the circuit opens
}

// DefaultHTTPClientConfig returns recommended defaults
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:           30 * time.Second,
		MaxRetries:        3,
		RetryWaitMin:      200 * time.Millisecond,
		RetryWaitMax:      10 * time.Second,
		RateLimit:         0.138, // Tiingo free tier: 500 requests/hour
		Burst:             5,
		CircuitBreakerMax: 5,
	}
}

// HTTPClientConfigFrom derives client settings from the data section
func HTTPClientConfigFrom(cfg config.DataConfig) HTTPClientConfig {
	c := DefaultHTTPClientConfig()
	if cfg.TimeoutSeconds > 0 {
		c.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	c.MaxRetries = cfg.RetryAttempts
	if cfg.RequestsPerSecond > 0 {
		c.RateLimit = cfg.RequestsPerSecond
	}
	if cfg.Burst > 0 {
		c.Burst = cfg.Burst
	}
	return c
}

// RateLimitedHTTPClient wraps retryablehttp.Client with rate limiting and a circuit breaker
type RateLimitedHTTPClient struct {
	client            *retryablehttp.Client
	limiter           *rate.Limiter
	circuitBreakerMax int
	logger            logrus.FieldLogger

	mu                sync.Mutex
	consecutiveErrors int
	isOpen            bool
	lastError         error
}

// NewRateLimitedHTTPClient creates a new rate-limited HTTP client
func NewRateLimitedHTTPClient(cfg HTTPClientConfig, logger logrus.FieldLogger) *RateLimitedHTTPClient {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.CircuitBreakerMax <= 0 {
		cfg.CircuitBreakerMax = 5
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = cfg.Timeout
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.CheckRetry = customRetryPolicy()
	// retry chatter stays out of the structured log
	retryClient.Logger = nil
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &RateLimitedHTTPClient{
		client:            retryClient,
		limiter:           rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
		circuitBreakerMax: cfg.CircuitBreakerMax,
		logger:            logger,
	}
}

// Do executes an HTTP request with rate limiting and circuit breaker
func (c *RateLimitedHTTPClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	c.mu.Lock()
	if c.isOpen {
		err := c.lastError
		c.mu.Unlock()
		return nil, fmt.Errorf("circuit breaker open: %v", err)
	}
	c.mu.Unlock()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	retryReq, err := retryablehttp.FromRequest(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(retryReq)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.consecutiveErrors++
		c.lastError = err
		if c.consecutiveErrors >= c.circuitBreakerMax {
			c.isOpen = true
			c.logger.WithError(err).WithField("failures", c.consecutiveErrors).Error("Circuit breaker opened")
		}
		return nil, err
	}

	if resp.StatusCode < 500 {
		c.consecutiveErrors = 0
		c.isOpen = false
	}
	return resp, nil
}

// Get executes a GET request
func (c *RateLimitedHTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

// Reset closes the circuit breaker
func (c *RateLimitedHTTPClient) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consecutiveErrors = 0
	c.isOpen = false
	c.lastError = nil
}

// Close closes any resources held by the client
func (c *RateLimitedHTTPClient) Close() error {
	c.client.HTTPClient.CloseIdleConnections()
	return nil
}

// customRetryPolicy retries network errors, 429 and 5xx gateway responses
func customRetryPolicy() retryablehttp.CheckRetry {
	return func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			return true, nil
		}

		switch resp.StatusCode {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true, nil
		}
		return false, nil
	}
}
