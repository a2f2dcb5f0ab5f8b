package grpc

import (
	"context"
	"net"
	"sort"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const DefaultCheckInterval = 10 * time.Second

// Check reports whether one dependency can currently serve.
type Check func(ctx context.Context) error

// HealthServer exposes the standard gRPC health protocol for orchestrator probes.
// Every named check is its own service; the empty service name is SERVING only while all checks pass.
type HealthServer struct {
	server   *grpc.Server
	health   *health.Server
	checks   map[string]Check
	names    []string
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
}

func NewHealthServer(checks map[string]Check, interval time.Duration, logger *zap.Logger) *HealthServer {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	s := &HealthServer{
		server:   grpc.NewServer(),
		health:   health.NewServer(),
		checks:   checks,
		names:    names,
		interval: interval,
		timeout:  interval / 2,
		logger:   logger,
	}
	grpc_health_v1.RegisterHealthServer(s.server, s.health)

	// Enable reflection for grpcurl/grpcui
	reflection.Register(s.server)

	s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	for _, name := range names {
		s.health.SetServingStatus(name, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	}
	return s
}

func (s *HealthServer) Serve(lis net.Listener) error {
	return s.server.Serve(lis)
}

// Run refreshes the statuses until ctx is done.
func (s *HealthServer) Run(ctx context.Context) {
	s.Refresh(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}

// Refresh runs every check once and publishes the result.
func (s *HealthServer) Refresh(ctx context.Context) {
	overall := grpc_health_v1.HealthCheckResponse_SERVING
	for _, name := range s.names {
		status := grpc_health_v1.HealthCheckResponse_SERVING
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		err := s.checks[name](cctx)
		cancel()
		if err != nil {
			status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
			overall = status
			s.logger.Warn("health check failed", zap.String("service", name), zap.Error(err))
		}
		s.health.SetServingStatus(name, status)
	}
	s.health.SetServingStatus("", overall)
}

// Stop marks every service NOT_SERVING and drains open streams.
func (s *HealthServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
