package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/af-corp/aegis-docai/internal/config"
	"github.com/af-corp/aegis-docai/internal/filter"
	"github.com/af-corp/aegis-docai/internal/telemetry"
	"github.com/af-corp/aegis-docai/internal/types"
)

// maxResponseBytes caps how much of an upstream body is read.
const maxResponseBytes = 4 << 20

// Mock mode result values, returned when no provider is configured.
const (
	MockText      = "[mock response]"
	MockModel     = "mock"
	MockLatencyMs = 5.0
)

// Client calls the configured LLM backend. It is safe for concurrent use.
// With no provider configured every call returns a fixed mock result.
type Client struct {
	cfg      config.LLMConfig
	provider Provider
	http     *http.Client
	retry    RetryPolicy
	breaker  *CircuitBreaker
	metrics  *telemetry.Metrics
	logger   *slog.Logger
}

// NewClient builds a client for cfg. httpClient may be nil, in which case a
// default client is used; per-attempt timeouts come from cfg.Timeout either way.
func NewClient(cfg config.LLMConfig, httpClient *http.Client, metrics *telemetry.Metrics, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		cfg:      cfg,
		provider: newProvider(cfg),
		http:     httpClient,
		retry: RetryPolicy{
			MaxRetries: cfg.MaxRetries,
			MinBackoff: cfg.BackoffMin,
			MaxBackoff: cfg.BackoffMax,
		},
		metrics: metrics,
		logger:  logger,
	}
	if c.provider != nil && cfg.CircuitBreaker.FailureThreshold > 0 {
		c.breaker = NewCircuitBreaker(cfg.CircuitBreaker.FailureThreshold, cfg.CircuitBreaker.RecoveryTimeout)
	}
	return c
}

// Configured reports whether a real backend is configured (false in mock mode).
func (c *Client) Configured() bool {
	return c.provider != nil
}

// ProviderName returns the active provider variant, or "mock".
func (c *Client) ProviderName() string {
	if c.provider == nil {
		return MockModel
	}
	return c.provider.Name()
}

// Complete sends one prompt to the backend. Transport failures are retried up to
// cfg.MaxRetries times; any other failure returns immediately. Errors are always *Error.
func (c *Client) Complete(ctx context.Context, req types.LLMRequest) (types.LLMResult, error) {
	if c.provider == nil {
		return types.LLMResult{
			RawText:   MockText,
			ModelName: MockModel,
			LatencyMs: MockLatencyMs,
		}, nil
	}

	name := c.provider.Name()
	if c.breaker != nil && !c.breaker.Allow() {
		c.metrics.RecordLLMAttempt(name, string(KindUnavailable))
		return types.LLMResult{}, &Error{Kind: KindUnavailable, Provider: name, Err: ErrCircuitOpen}
	}

	var result types.LLMResult
	attempts, err := c.retry.Do(ctx, func(ctx context.Context) error {
		r, err := c.attempt(ctx, req)
		if err != nil {
			var le *Error
			if errors.As(err, &le) {
				c.metrics.RecordLLMAttempt(name, string(le.Kind))
			}
			c.logger.Warn("llm attempt failed",
				"provider", name,
				"tenant_id", req.TenantID,
				"error", filter.SanitizeForLogging(err.Error(), 200),
			)
			return err
		}
		c.metrics.RecordLLMAttempt(name, "success")
		result = r
		return nil
	}, IsRetryable)

	if err != nil {
		le := asError(err, name)
		le.Attempts = attempts
		if c.breaker != nil && ctx.Err() == nil {
			c.breaker.RecordFailure()
		}
		return types.LLMResult{}, le
	}
	if c.breaker != nil {
		c.breaker.RecordSuccess()
	}
	return result, nil
}

// GenerateNotarySummary completes prompt without a system prompt.
func (c *Client) GenerateNotarySummary(ctx context.Context, prompt, tenantID string) (types.LLMResult, error) {
	return c.Complete(ctx, types.LLMRequest{Prompt: prompt, TenantID: tenantID})
}

// attempt performs exactly one HTTP exchange bounded by cfg.Timeout.
func (c *Client) attempt(ctx context.Context, req types.LLMRequest) (types.LLMResult, error) {
	name := c.provider.Name()
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	httpReq, err := c.provider.NewRequest(ctx, req)
	if err != nil {
		return types.LLMResult{}, &Error{Kind: KindDecode, Provider: name, Err: err}
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return types.LLMResult{}, &Error{Kind: KindTransport, Provider: name, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return types.LLMResult{}, &Error{Kind: KindTransport, Provider: name, Err: fmt.Errorf("read response body: %w", err)}
	}
	latency := time.Since(start)

	if resp.StatusCode != http.StatusOK {
		return types.LLMResult{}, &Error{
			Kind:       KindStatus,
			Provider:   name,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("upstream returned status %d: %s", resp.StatusCode, filter.SanitizeForLogging(string(body), 200)),
		}
	}

	text, model, err := c.provider.ParseResponse(body)
	if err != nil {
		return types.LLMResult{}, err
	}

	return types.LLMResult{
		RawText:   text,
		ModelName: model,
		LatencyMs: float64(latency.Microseconds()) / 1000,
	}, nil
}

// asError converts whatever the retry loop returned into an *Error. The loop
// returns a bare context error when the caller cancels between attempts.
func asError(err error, provider string) *Error {
	var le *Error
	if errors.As(err, &le) {
		return le
	}
	return &Error{Kind: KindTransport, Provider: provider, Err: err}
}
