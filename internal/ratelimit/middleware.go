package ratelimit

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/af-corp/aegis-docai/internal/config"
	"github.com/af-corp/aegis-docai/internal/filter"
	"github.com/af-corp/aegis-docai/internal/httputil"
	"github.com/af-corp/aegis-docai/internal/telemetry"
	"github.com/af-corp/aegis-docai/internal/tenant"
)

const (
	headerRateLimitLimit     = "X-RateLimit-Limit"
	headerRateLimitRemaining = "X-RateLimit-Remaining"
	headerRateLimitReset     = "X-RateLimit-Reset"
	headerRetryAfter         = "Retry-After"
)

// Middleware returns chi middleware that enforces the per-tenant request ceiling.
// It must run after tenant.Middleware. A rejected request is answered with 429
// and never reaches next.
func Middleware(limiter *Limiter, cfg func() config.RateLimitConfig, metrics *telemetry.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c := cfg()
			if !c.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			reqID := w.Header().Get(httputil.HeaderRequestID)
			tenantID := tenant.IDFromContext(r.Context())

			result, err := limiter.Check(r.Context(), tenantID, c.RequestsPerWindow, c.Window)
			if err != nil {
				slog.Warn("rate limit store unavailable",
					"request_id", reqID,
					"tenant_id", tenantID,
					"fail_open", c.FailOpen,
					"error", filter.SanitizeForLogging(err.Error(), 200),
				)
			}

			w.Header().Set(headerRateLimitLimit, strconv.FormatInt(result.Limit, 10))
			w.Header().Set(headerRateLimitRemaining, strconv.FormatInt(result.Remaining, 10))
			w.Header().Set(headerRateLimitReset, strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				slog.Warn("rate limit exceeded",
					"request_id", reqID,
					"tenant_id", tenantID,
					"limit", c.RequestsPerWindow,
					"window", c.Window.String(),
				)
				metrics.RecordRateLimitRejection()
				retryAfter := int(math.Ceil(result.RetryAfter.Seconds()))
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set(headerRetryAfter, strconv.Itoa(retryAfter))
				httputil.WriteRateLimitError(w, reqID,
					fmt.Sprintf("Rate limit exceeded: %d requests per %s. Retry after %d seconds", c.RequestsPerWindow, c.Window, retryAfter))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
