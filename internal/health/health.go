// Package health reports readiness over HTTP and the gRPC health protocol.
package health

import (
	"context"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/af-corp/aegis-docai/internal/filter"
)

// ServiceName is the gRPC health service name reported alongside the overall status.
const ServiceName = "docai"

const pingTimeout = 2 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

// LLMStatus is implemented by *llm.Client.
type LLMStatus interface {
	Configured() bool
}

// Status is the body of GET /health.
type Status struct {
	Status      string    `json:"status"`
	Environment string    `json:"environment"`
	Timestamp   time.Time `json:"timestamp"`
	DBOK        bool      `json:"db_ok"`
	LLMOK       bool      `json:"llm_ok"`
}

type Checker struct {
	db          Pinger
	llm         LLMStatus
	environment string
	now         func() time.Time
}

func NewChecker(db Pinger, llm LLMStatus, environment string) *Checker {
	return &Checker{db: db, llm: llm, environment: environment, now: time.Now}
}

// Check pings the database. Status is always "ok"; readiness is in the flags.
func (c *Checker) Check(ctx context.Context) Status {
	st := Status{
		Status:      "ok",
		Environment: c.environment,
		Timestamp:   c.now().UTC(),
		LLMOK:       c.llm != nil && c.llm.Configured(),
	}
	if c.db != nil {
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := c.db.Ping(pctx); err != nil {
			slog.Warn("health db check failed", "error", filter.SanitizeForLogging(err.Error(), 200))
		} else {
			st.DBOK = true
		}
	}
	return st
}

// GRPCServer serves grpc.health.v1 with a status refreshed from the Checker.
type GRPCServer struct {
	checker  *Checker
	server   *grpc.Server
	health   *grpchealth.Server
	interval time.Duration
}

func NewGRPCServer(checker *Checker, interval time.Duration) *GRPCServer {
	srv := grpc.NewServer()
	hs := grpchealth.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	g := &GRPCServer{checker: checker, server: srv, health: hs, interval: interval}
	g.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return g
}

func (g *GRPCServer) setStatus(s healthpb.HealthCheckResponse_ServingStatus) {
	g.health.SetServingStatus("", s)
	g.health.SetServingStatus(ServiceName, s)
}

// Refresh runs one check and publishes the result.
func (g *GRPCServer) Refresh(ctx context.Context) {
	if g.checker.Check(ctx).DBOK {
		g.setStatus(healthpb.HealthCheckResponse_SERVING)
		return
	}
	g.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
}

// Monitor refreshes the status every interval until ctx is done.
func (g *GRPCServer) Monitor(ctx context.Context) {
	g.Refresh(ctx)
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.Refresh(ctx)
		}
	}
}

// Serve blocks serving on lis.
func (g *GRPCServer) Serve(lis net.Listener) error {
	return g.server.Serve(lis)
}

// Stop marks the service as not serving and stops the server gracefully.
func (g *GRPCServer) Stop() {
	g.health.Shutdown()
	g.server.GracefulStop()
}
