package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/af-corp/aegis-docai/internal/auth"
	"github.com/af-corp/aegis-docai/internal/cache"
	"github.com/af-corp/aegis-docai/internal/config"
	"github.com/af-corp/aegis-docai/internal/flows"
	"github.com/af-corp/aegis-docai/internal/health"
	"github.com/af-corp/aegis-docai/internal/httputil"
	"github.com/af-corp/aegis-docai/internal/ratelimit"
	"github.com/af-corp/aegis-docai/internal/store"
	"github.com/af-corp/aegis-docai/internal/telemetry"
	"github.com/af-corp/aegis-docai/internal/tenant"
)

// Deps are the collaborators the router needs.
type Deps struct {
	Config    func() *config.Config
	Flows     *flows.Service
	Documents store.Documents
	Cache     *cache.Cache
	Limiter   *ratelimit.Limiter
	Health    *health.Checker
	Metrics   *telemetry.Metrics
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// NewRouter builds the HTTP surface. Health sits outside the tenant and rate limit
// group; everything else under the API prefix is tenant scoped.
func NewRouter(d Deps) http.Handler {
	h := NewHandler(d.Flows, d.Documents, d.Cache, d.Health, d.Logger)

	authCfg := func() config.AuthConfig { return d.Config().Auth }
	tenantCfg := func() config.TenantConfig { return d.Config().Tenant }
	rlCfg := func() config.RateLimitConfig { return d.Config().RateLimit }

	r := chi.NewRouter()
	r.Use(httputil.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httputil.Recoverer)
	r.Use(httputil.Metrics(d.Metrics))
	r.Use(auth.Middleware(authCfg))

	if d.Gatherer != nil && d.Config().Telemetry.MetricsEnabled {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route(d.Config().Server.APIPrefix, func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Group(func(r chi.Router) {
			r.Use(tenant.Middleware(tenantCfg))
			r.Use(ratelimit.Middleware(d.Limiter, rlCfg, d.Metrics))

			r.Post("/documents", h.CreateDocument)
			r.Get("/documents/{id}", h.GetDocument)

			r.Post("/ai/notary/summarize", h.Summarize)
			r.Post("/ai/classify", h.Classify)
			r.Post("/ai/ask", h.Ask)
		})
	})

	return r
}
