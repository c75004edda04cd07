package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	RequestTotal        *prometheus.CounterVec
	RequestDuration     *prometheus.HistogramVec
	LLMCallsTotal       *prometheus.CounterVec
	LLMAttemptsTotal    *prometheus.CounterVec
	RateLimitRejections prometheus.Counter
	CacheLookupsTotal   *prometheus.CounterVec
	FilterActionTotal   *prometheus.CounterVec
	AuditFailuresTotal  prometheus.Counter
}

// NewMetrics creates all metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docai_requests_total",
			Help: "Total HTTP requests by method, route and status.",
		}, []string{"method", "path", "status"}),

		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docai_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"method", "path"}),

		LLMCallsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docai_llm_calls_total",
			Help: "Orchestrated flow completions by flow and answer source (llm or fallback).",
		}, []string{"flow", "source"}),

		LLMAttemptsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docai_llm_attempts_total",
			Help: "Individual upstream LLM attempts by provider and outcome.",
		}, []string{"provider", "outcome"}),

		RateLimitRejections: f.NewCounter(prometheus.CounterOpts{
			Name: "docai_rate_limit_rejections_total",
			Help: "Requests rejected by the per-tenant rate limiter.",
		}),

		CacheLookupsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docai_cache_lookups_total",
			Help: "Cache lookups by resource kind and result (hit or miss).",
		}, []string{"kind", "result"}),

		FilterActionTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docai_filter_actions_total",
			Help: "Total filter actions taken.",
		}, []string{"filter", "action"}),

		AuditFailuresTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "docai_audit_failures_total",
			Help: "Audit records that could not be persisted.",
		}),
	}
}

// RecordRequest records one served HTTP request.
func (m *Metrics) RecordRequest(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

func (m *Metrics) RecordLLMCall(flow, source string) {
	if m == nil {
		return
	}
	m.LLMCallsTotal.WithLabelValues(flow, source).Inc()
}

func (m *Metrics) RecordLLMAttempt(provider, outcome string) {
	if m == nil {
		return
	}
	m.LLMAttemptsTotal.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) RecordRateLimitRejection() {
	if m == nil {
		return
	}
	m.RateLimitRejections.Inc()
}

func (m *Metrics) RecordCacheLookup(kind string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookupsTotal.WithLabelValues(kind, result).Inc()
}

// RecordFilterAction records a filter action metric.
func (m *Metrics) RecordFilterAction(filter, action string) {
	if m == nil {
		return
	}
	m.FilterActionTotal.WithLabelValues(filter, action).Inc()
}

func (m *Metrics) RecordAuditFailure() {
	if m == nil {
		return
	}
	m.AuditFailuresTotal.Inc()
}
