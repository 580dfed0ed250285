package marketplace

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"catalog_sync/internal/domain"
	"catalog_sync/internal/metrics"
)

const (
	SourceID   = "marketplace"
	SourceName = "Marketplace REST API"

	maxErrorBodySize = 64 * 1024
	userAgent        = "CatalogSync/1.0"
)

// Config holds marketplace client configuration.
type Config struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration

	// MaxRetries is the number of repeats after the first attempt.
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Jitter         float64

	RequestsPerSecond float64
	Burst             int

	BreakerFailures    uint32
	BreakerOpenTimeout time.Duration
}

// Client is the HTTP transport to the marketplace API. Requests are paced by a
// token bucket, guarded by a circuit breaker, and retried on 429/5xx.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	tokenURL       string
	clientID       string
	clientSecret   string
	timeout        time.Duration
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	jitter         float64
	limiter        *rate.Limiter
	breaker        *gobreaker.CircuitBreaker[struct{}]
	sleep          func(ctx context.Context, d time.Duration) error
	logger         *slog.Logger
}

// Request describes one API call.
type Request struct {
	Endpoint string // metric label, e.g. "items.multiget"
	Method   string
	Path     string
	URL      string // absolute URL, overrides BaseURL+Path
	Query    url.Values
	Token    string
	Body     any
	Form     url.Values
}

// New creates a new marketplace client.
func New(cfg Config, logger *slog.Logger) *Client {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	c := &Client{
		httpClient:     &http.Client{},
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		tokenURL:       cfg.TokenURL,
		clientID:       cfg.ClientID,
		clientSecret:   cfg.ClientSecret,
		timeout:        cfg.Timeout,
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		jitter:         cfg.Jitter,
		limiter:        rate.NewLimiter(limit, burst),
		sleep:          sleepContext,
		logger:         logger.With("source", SourceID),
	}
	if c.timeout <= 0 {
		c.timeout = 30 * time.Second
	}
	if c.tokenURL == "" {
		c.tokenURL = c.baseURL + "/oauth/token"
	}

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 10
	}
	c.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        SourceID,
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state change", "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
		// Client errors describe the request, not the health of the API.
		IsSuccessful: func(err error) bool {
			var apiErr *domain.APIError
			if errors.As(err, &apiErr) {
				return !apiErr.Retryable()
			}
			return err == nil || errors.Is(err, errDecode) || errors.Is(err, context.Canceled)
		},
	})

	return c
}

// Name returns human-readable name.
func (c *Client) Name() string {
	return SourceName
}

var errDecode = errors.New("decode response")

// Do executes req and decodes a 2xx JSON body into out (when non-nil).
// Retryable failures are repeated up to MaxRetries times; the last error is
// returned as a *domain.APIError.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	correlationID := uuid.NewString()
	logger := c.logger.With("correlation_id", correlationID, "method", req.Method, "path", req.Path)

	for attempt := 0; ; attempt++ {
		err := c.attempt(ctx, req, out, correlationID, attempt, logger)
		if err == nil {
			return nil
		}

		var apiErr *domain.APIError
		if !errors.As(err, &apiErr) || !apiErr.Retryable() {
			return err
		}
		if attempt >= c.maxRetries {
			return fmt.Errorf("after %d retries: %w", c.maxRetries, err)
		}

		delay := c.calculateBackoff(attempt + 1)
		if errors.Is(apiErr.Kind, domain.ErrRateLimited) && apiErr.RetryAfter > 0 {
			delay = apiErr.RetryAfter
		}

		metrics.APIRetries.WithLabelValues(apiErr.Kind.Error()).Inc()
		logger.Warn("request failed, retrying",
			"attempt", attempt+1,
			"backoff", delay,
			"error", err,
		)

		if err := c.sleep(ctx, delay); err != nil {
			return err
		}
	}
}

func (c *Client) attempt(ctx context.Context, req Request, out any, correlationID string, attempt int, logger *slog.Logger) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	start := time.Now()
	status := 0

	_, err := c.breaker.Execute(func() (struct{}, error) {
		code, err := c.roundTrip(ctx, req, out, correlationID)
		status = code
		return struct{}{}, err
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = &domain.APIError{Kind: domain.ErrCircuitOpen, Method: req.Method, Path: req.Path, Detail: err.Error()}
	}

	elapsed := time.Since(start)
	metrics.APIRequestDuration.WithLabelValues(req.Endpoint).Observe(elapsed.Seconds())
	metrics.APIRequests.WithLabelValues(req.Endpoint, statusClass(status)).Inc()

	logger.Debug("marketplace response",
		"attempt", attempt+1,
		"status", status,
		"duration", elapsed,
		"error", err,
	)

	return err
}

func (c *Client) roundTrip(ctx context.Context, req Request, out any, correlationID string) (int, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := c.newRequest(callCtx, req, correlationID)
	if err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, &domain.APIError{Kind: domain.ErrUpstream, Method: req.Method, Path: req.Path, Detail: err.Error()}
	}
	defer resp.Body.Close()

	if kind := domain.ClassifyStatus(resp.StatusCode); kind != nil {
		return resp.StatusCode, &domain.APIError{
			Kind:       kind,
			StatusCode: resp.StatusCode,
			Method:     req.Method,
			Path:       req.Path,
			Detail:     readBodyForError(resp.Body),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("%w: %v", errDecode, err)
	}

	return resp.StatusCode, nil
}

func (c *Client) newRequest(ctx context.Context, req Request, correlationID string) (*http.Request, error) {
	target := req.URL
	if target == "" {
		target = c.baseURL + req.Path
	}
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	contentType := ""
	switch {
	case req.Form != nil:
		body = strings.NewReader(req.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case req.Body != nil:
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("X-Correlation-ID", correlationID)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}

	return httpReq, nil
}

// calculateBackoff returns initial * 2^(retry-1), capped, with +/- jitter.
func (c *Client) calculateBackoff(retry int) time.Duration {
	backoff := c.initialBackoff
	for i := 1; i < retry; i++ {
		backoff *= 2
		if backoff >= c.maxBackoff {
			break
		}
	}
	if c.maxBackoff > 0 && backoff > c.maxBackoff {
		backoff = c.maxBackoff
	}
	if c.jitter > 0 {
		backoff = time.Duration(float64(backoff) * (1 + c.jitter*(2*rand.Float64()-1)))
	}
	return backoff
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(value string, now time.Time) time.Duration {
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

func readBodyForError(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return "(failed to read response body)"
	}
	return strings.TrimSpace(string(body))
}

func statusClass(code int) string {
	if code == 0 {
		return "error"
	}
	return strconv.Itoa(code/100) + "xx"
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
