package tenant

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/af-corp/aegis-docai/internal/config"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		header, def, want string
	}{
		{"t1", "default", "t1"},
		{"", "default", "default"},
		{"   ", "acme", "acme"},
		{" t2 ", "default", "t2"},
		{"", "", FallbackTenant},
	}
	for _, tt := range tests {
		if got := Resolve(tt.header, tt.def); got != tt.want {
			t.Errorf("Resolve(%q, %q) = %q, want %q", tt.header, tt.def, got, tt.want)
		}
	}
}

func TestMiddleware(t *testing.T) {
	cfg := func() config.TenantConfig {
		return config.TenantConfig{HeaderName: "X-Tenant-ID", DefaultTenant: "default"}
	}
	var seen string
	h := Middleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tc, ok := FromContext(r.Context())
		if !ok {
			t.Error("expected tenant in context")
		}
		seen = tc.TenantID
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantTenant string
	}{
		{"header", "t1", http.StatusOK, "t1"},
		{"default", "", http.StatusOK, "default"},
		{"too long", strings.Repeat("a", MaxIDLength+1), http.StatusBadRequest, ""},
		{"control char", "t1\x00", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("X-Tenant-ID", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if seen != tt.wantTenant {
				t.Errorf("tenant = %q, want %q", seen, tt.wantTenant)
			}
		})
	}
}
