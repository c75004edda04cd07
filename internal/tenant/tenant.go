// Package tenant resolves the tenant a request acts for and carries it on the context.
package tenant

import (
	"context"
	"net/http"
	"strings"
	"unicode"

	"github.com/af-corp/aegis-docai/internal/config"
	"github.com/af-corp/aegis-docai/internal/httputil"
	"github.com/af-corp/aegis-docai/internal/types"
)

const (
	// FallbackTenant is used when neither the header nor the configured default yields a tenant.
	FallbackTenant = "default"
	MaxIDLength    = 64
)

type contextKey struct{}

// Resolve returns the header value when present, else defaultTenant. It never returns "".
func Resolve(headerValue, defaultTenant string) string {
	if v := strings.TrimSpace(headerValue); v != "" {
		return v
	}
	if v := strings.TrimSpace(defaultTenant); v != "" {
		return v
	}
	return FallbackTenant
}

func WithTenant(ctx context.Context, tc types.TenantContext) context.Context {
	return context.WithValue(ctx, contextKey{}, tc)
}

func FromContext(ctx context.Context) (types.TenantContext, bool) {
	tc, ok := ctx.Value(contextKey{}).(types.TenantContext)
	return tc, ok
}

// IDFromContext returns the tenant id, or FallbackTenant when the middleware did not run.
func IDFromContext(ctx context.Context) string {
	if tc, ok := FromContext(ctx); ok {
		return tc.TenantID
	}
	return FallbackTenant
}

func valid(id string) bool {
	if len(id) > MaxIDLength {
		return false
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// Middleware resolves the tenant header and stores the TenantContext on the request.
func Middleware(cfg func() config.TenantConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c := cfg()
			id := Resolve(r.Header.Get(c.HeaderName), c.DefaultTenant)
			if !valid(id) {
				httputil.WriteBadRequestError(w, w.Header().Get(httputil.HeaderRequestID), "Invalid tenant identifier")
				return
			}
			ctx := WithTenant(r.Context(), types.TenantContext{TenantID: id})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
