package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"library-loans-backend/internal/api/grpc/interceptor"
	"library-loans-backend/internal/logger"
)

// TransactionServiceName is the health check service name of the loan backend.
const TransactionServiceName = "library.transactions"

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthReporter keeps the gRPC health status in step with the database.
type HealthReporter struct {
	server   *health.Server
	db       Pinger
	interval time.Duration
}

func NewHealthReporter(db Pinger, interval time.Duration) *HealthReporter {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &HealthReporter{
		server:   health.NewServer(),
		db:       db,
		interval: interval,
	}
}

func (h *HealthReporter) HealthServer() *health.Server {
	return h.server
}

// Check pings the database once and publishes the result.
func (h *HealthReporter) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	st := healthpb.HealthCheckResponse_SERVING
	if err := h.db.Ping(ctx); err != nil {
		logger.Warn("Database health check failed", "error", err)
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.server.SetServingStatus("", st)
	h.server.SetServingStatus(TransactionServiceName, st)
	return st
}

// Run checks on every interval until ctx is done, then marks everything as not serving.
func (h *HealthReporter) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}

// NewServer builds a gRPC server exposing the health service and reflection.
func NewServer(reporter *HealthReporter) *grpc.Server {
	s := grpc.NewServer(
		grpc.UnaryInterceptor(interceptor.Logging()),
	)
	healthpb.RegisterHealthServer(s, reporter.HealthServer())

	// Register reflection service for grpcurl
	reflection.Register(s)
	return s
}
