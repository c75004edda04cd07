package ratelimit

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/af-corp/aegis-docai/internal/config"
	"github.com/af-corp/aegis-docai/internal/kv"
)

// LimitResult is the outcome of a rate limit check.
type LimitResult struct {
	Allowed    bool
	Limit      int64
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Limiter performs fixed-window rate limiting per tenant on a shared counter store.
type Limiter struct {
	store kv.Store
	cfg   func() config.RateLimitConfig
	now   func() time.Time
}

// NewLimiter creates a new rate limiter. If store is nil, all checks pass.
func NewLimiter(store kv.Store, cfg func() config.RateLimitConfig) *Limiter {
	return &Limiter{store: store, cfg: cfg, now: time.Now}
}

// Key returns the counter key for a tenant's window bucket.
func Key(tenantID string, bucket int64) string {
	return "docai:rl:" + url.QueryEscape(tenantID) + ":" + strconv.FormatInt(bucket, 10)
}

// Check counts one request for tenantID in the current window.
// The check and increment happen in one store operation, so concurrent callers
// cannot push the count past limit. When the store fails the returned result
// follows rate_limit.fail_open and err is non-nil so callers can log it.
func (l *Limiter) Check(ctx context.Context, tenantID string, limit int64, window time.Duration) (LimitResult, error) {
	now := l.now()
	if window <= 0 {
		return LimitResult{Allowed: true, Limit: limit, Remaining: max(limit-1, 0), ResetAt: now}, nil
	}
	bucket := now.UnixNano() / int64(window)
	resetAt := time.Unix(0, (bucket+1)*int64(window))
	res := LimitResult{Limit: limit, ResetAt: resetAt}

	if l.store == nil || limit <= 0 {
		res.Allowed = true
		res.Remaining = max(limit-1, 0)
		return res, nil
	}

	counter, err := l.store.IncrementWithWindow(ctx, Key(tenantID, bucket), limit, window)
	if err != nil {
		res.Allowed = l.cfg().FailOpen
		res.Remaining = limit
		if !res.Allowed {
			res.Remaining = 0
			res.RetryAfter = resetAt.Sub(now)
		}
		return res, fmt.Errorf("rate limit check for tenant %s: %w", tenantID, err)
	}

	res.Allowed = counter.Admitted
	res.Remaining = max(limit-counter.Count, 0)
	if !res.Allowed {
		res.RetryAfter = resetAt.Sub(now)
	}
	return res, nil
}
