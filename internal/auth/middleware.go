package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/af-corp/aegis-docai/internal/config"
	"github.com/af-corp/aegis-docai/internal/httputil"
)

// expectedHash prefers the configured digest so the plain key need not be deployed.
func expectedHash(c config.AuthConfig) string {
	if c.APIKeySHA256 != "" {
		return c.APIKeySHA256
	}
	return HashKey(c.APIKey)
}

// IsPublic reports whether path bypasses the gate.
func IsPublic(c config.AuthConfig, path string) bool {
	trimmed := strings.TrimSuffix(path, "/")
	for _, p := range c.PublicPaths {
		if path == p || (trimmed != "" && trimmed == strings.TrimSuffix(p, "/")) {
			return true
		}
	}
	return false
}

// Middleware returns a chi middleware that requires the shared API key on every
// non-public path. The gate is open when no key is configured.
func Middleware(cfg func() config.AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c := cfg()
			if !c.Enabled() || IsPublic(c, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			reqID := w.Header().Get(httputil.HeaderRequestID)
			header := c.HeaderName
			if header == "" {
				header = "X-API-Key"
			}

			key := strings.TrimSpace(r.Header.Get(header))
			if key == "" {
				slog.Warn("auth failed: missing key", "request_id", reqID, "path", r.URL.Path)
				httputil.WriteAuthError(w, reqID, "Missing API key. Use: "+header+": <api-key>")
				return
			}
			if !Matches(key, expectedHash(c)) {
				slog.Warn("auth failed: key mismatch",
					"request_id", reqID,
					"path", r.URL.Path,
					"key_prefix", safePrefix(key),
				)
				httputil.WriteAuthError(w, reqID, "Invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// safePrefix returns a safe-to-log prefix of an API key (never the full key).
func safePrefix(key string) string {
	if len(key) > 12 {
		return key[:8] + "..."
	}
	return "***"
}
