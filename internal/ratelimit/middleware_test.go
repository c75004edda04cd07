package ratelimit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/af-corp/aegis-docai/internal/config"
	"github.com/af-corp/aegis-docai/internal/httputil"
	"github.com/af-corp/aegis-docai/internal/kv/kvtest"
	"github.com/af-corp/aegis-docai/internal/telemetry"
	"github.com/af-corp/aegis-docai/internal/tenant"
	"github.com/af-corp/aegis-docai/internal/types"
	"github.com/prometheus/client_golang/prometheus"
)

func newTestHandler(t *testing.T, rl config.RateLimitConfig) (http.Handler, *kvtest.Store, *int) {
	t.Helper()
	store := kvtest.New()
	cfg := func() config.RateLimitConfig { return rl }
	limiter := NewLimiter(store, cfg)
	metrics := telemetry.NewMetrics(prometheus.NewRegistry())

	calls := 0
	h := Middleware(limiter, cfg, metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	return h, store, &calls
}

func doRequest(h http.Handler, tenantID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ai/ask", nil)
	req = req.WithContext(tenant.WithTenant(req.Context(), types.TenantContext{TenantID: tenantID}))
	rec := httptest.NewRecorder()
	rec.Header().Set("X-Request-ID", "req-1")
	h.ServeHTTP(rec, req)
	return rec
}

func TestMiddleware_AllowsThenRejects(t *testing.T) {
	h, _, calls := newTestHandler(t, config.RateLimitConfig{Enabled: true, RequestsPerWindow: 2, Window: time.Hour, FailOpen: true})

	for i := 0; i < 2; i++ {
		rec := doRequest(h, "t1")
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
		if got := rec.Header().Get(headerRateLimitLimit); got != "2" {
			t.Errorf("expected X-RateLimit-Limit=2, got %s", got)
		}
		if rec.Header().Get(headerRateLimitReset) == "" {
			t.Error("expected X-RateLimit-Reset header")
		}
	}

	rec := doRequest(h, "t1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if *calls != 2 {
		t.Errorf("rejected request reached the handler: calls=%d", *calls)
	}
	if rec.Header().Get(headerRetryAfter) == "" {
		t.Error("expected Retry-After header")
	}
	if got := rec.Header().Get(headerRateLimitRemaining); got != "0" {
		t.Errorf("expected remaining 0, got %s", got)
	}

	var resp httputil.APIError
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if resp.Error.Type != "rate_limit_error" {
		t.Errorf("expected rate_limit_error, got %s", resp.Error.Type)
	}

	if rec := doRequest(h, "t2"); rec.Code != http.StatusOK {
		t.Errorf("other tenant should be admitted, got %d", rec.Code)
	}
}

func TestMiddleware_Disabled(t *testing.T) {
	h, store, calls := newTestHandler(t, config.RateLimitConfig{Enabled: false, RequestsPerWindow: 1, Window: time.Hour})
	for i := 0; i < 5; i++ {
		if rec := doRequest(h, "t1"); rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	}
	if *calls != 5 {
		t.Errorf("calls = %d, want 5", *calls)
	}
	if keys := store.Keys(); len(keys) != 0 {
		t.Errorf("disabled limiter touched the store: %v", keys)
	}
}

func TestMiddleware_StoreDown(t *testing.T) {
	tests := []struct {
		name       string
		failOpen   bool
		wantStatus int
	}{
		{"fail open", true, http.StatusOK},
		{"fail closed", false, http.StatusTooManyRequests},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, store, _ := newTestHandler(t, config.RateLimitConfig{Enabled: true, RequestsPerWindow: 5, Window: time.Minute, FailOpen: tt.failOpen})
			store.SetDown(true)
			if rec := doRequest(h, "t1"); rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}
