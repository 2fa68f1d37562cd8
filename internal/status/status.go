// Package status exposes the bridge's connection state as a standard gRPC
// health service.
package status

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Service is the health service name clients query. The empty name
// reports the same status.
const Service = "pdabridge.Bridge"

// PollInterval is how often the joined-channel condition is sampled.
const PollInterval = time.Second

// Condition reports whether the bridge is in its channel.
type Condition interface {
	IsSet() bool
}

// Server serves SERVING while the condition holds and NOT_SERVING otherwise.
type Server struct {
	addr   string
	cond   Condition
	grpc   *grpc.Server
	health *health.Server
	logger *zap.Logger
}

// NewServer creates a Server listening on addr.
//
// Precondition: cond and logger must be non-nil.
func NewServer(addr string, cond Condition, logger *zap.Logger) *Server {
	s := &Server{
		addr:   addr,
		cond:   cond,
		grpc:   grpc.NewServer(),
		health: health.NewServer(),
		logger: logger,
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.set(false)
	return s
}

// Start listens and serves until Stop or ctx ends.
func (s *Server) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, lis)
}

// Serve serves on lis until Stop or ctx ends.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.logger.Info("status endpoint listening", zap.String("addr", lis.Addr().String()))
	go s.poll(ctx)
	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	if err := s.grpc.Serve(lis); err != nil {
		return fmt.Errorf("serving status: %w", err)
	}
	return nil
}

// Stop shuts the endpoint down.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

func (s *Server) poll(ctx context.Context) {
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()
	last := false
	for {
		if now := s.cond.IsSet(); now != last {
			last = now
			s.set(now)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) set(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(Service, st)
	s.logger.Debug("status changed", zap.Stringer("status", st))
}
