// Package grpcapi exposes the standard gRPC health service so orchestrators
// and gate devices can tell whether the scan backend is ready.
package grpcapi

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/Kushanz7/VaultPark-sub001/internal/logging"
)

// ScanServiceName is the health service name reported for the scan path.
const ScanServiceName = "vaultpark.Scan"

const defaultProbeInterval = 15 * time.Second

// Probe reports whether the backing stores are reachable.
type Probe func(ctx context.Context) error

type Dependencies struct {
	Logger        logging.Logger
	Addr          string
	Probe         Probe // optional; nil means always serving
	ProbeInterval time.Duration
}

type Server struct {
	addr     string
	logger   logging.Logger
	probe    Probe
	interval time.Duration

	grpcServer *grpc.Server
	health     *health.Server
}

func NewServer(d Dependencies) *Server {
	logger := d.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	interval := d.ProbeInterval
	if interval <= 0 {
		interval = defaultProbeInterval
	}

	s := &Server{
		addr:     d.Addr,
		logger:   logger.With("module", "grpc_server"),
		probe:    d.Probe,
		interval: interval,
		health:   health.NewServer(),
	}
	s.grpcServer = grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	return s
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "starting gRPC server", "address", s.addr)
	return s.Serve(ctx, lis)
}

// Serve serves on lis until ctx is cancelled, then stops gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.check(ctx)

	go func() {
		t := time.NewTicker(s.interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				s.logger.Info(context.Background(), "stopping gRPC server")
				s.health.Shutdown()
				s.grpcServer.GracefulStop()
				return
			case <-t.C:
				s.check(ctx)
			}
		}
	}()

	return s.grpcServer.Serve(lis)
}

func (s *Server) check(ctx context.Context) {
	st := healthpb.HealthCheckResponse_SERVING
	if s.probe != nil {
		if err := s.probe(ctx); err != nil {
			s.logger.Warn(ctx, "health probe failed", "err", err)
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ScanServiceName, st)
}

func (s *Server) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	if err != nil {
		s.logger.Warn(ctx, "grpc call failed", "method", info.FullMethod, "dur", time.Since(start), "err", err)
	} else {
		s.logger.Debug(ctx, "grpc call", "method", info.FullMethod, "dur", time.Since(start))
	}
	return resp, err
}
