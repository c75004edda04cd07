package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/af-corp/aegis-docai/internal/config"
	"github.com/af-corp/aegis-docai/internal/httputil"
)

const testKey = "docai-test-abcdefghijklmnopqrstuvwxyz012345"

func newHandler(c config.AuthConfig) (http.Handler, *bool) {
	called := false
	h := Middleware(func() config.AuthConfig { return c })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	return h, &called
}

func gateConfig() config.AuthConfig {
	return config.AuthConfig{
		HeaderName:  "X-API-Key",
		APIKey:      testKey,
		PublicPaths: []string{"/metrics", "/api/v1/health"},
	}
}

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		key        string
		wantStatus int
	}{
		{"valid key", "/api/v1/documents", testKey, http.StatusOK},
		{"missing key", "/api/v1/documents", "", http.StatusUnauthorized},
		{"wrong key", "/api/v1/documents", "docai-test-wrong", http.StatusUnauthorized},
		{"public health", "/api/v1/health", "", http.StatusOK},
		{"public health trailing slash", "/api/v1/health/", "", http.StatusOK},
		{"public metrics", "/metrics", "", http.StatusOK},
		{"public path with wrong key", "/metrics", "nope", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, called := newHandler(gateConfig())
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if *called != (tt.wantStatus == http.StatusOK) {
				t.Errorf("handler called = %v", *called)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				var resp httputil.APIError
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to unmarshal: %v", err)
				}
				if resp.Error.Type != "authentication_error" {
					t.Errorf("expected authentication_error, got %s", resp.Error.Type)
				}
			}
		})
	}
}

func TestMiddleware_HashOnlyConfig(t *testing.T) {
	c := gateConfig()
	c.APIKey = ""
	c.APIKeySHA256 = HashKey(testKey)
	h, _ := newHandler(c)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ai/ask", nil)
	req.Header.Set("X-API-Key", testKey)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMiddleware_DisabledWithoutKey(t *testing.T) {
	h, called := newHandler(config.AuthConfig{HeaderName: "X-API-Key"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/documents/x", nil))
	if rec.Code != http.StatusOK || !*called {
		t.Errorf("expected open gate, got %d", rec.Code)
	}
}
