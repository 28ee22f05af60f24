package grpc

import (
	"fmt"
	"net"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"investment-service/internal/metrics"
)

// ServiceName is the health service key reported for the investment API.
const ServiceName = "investment.v1.InvestmentService"

// Probe reports whether a backing dependency is usable.
type Probe func() error

type Server struct {
	GRPC   *grpc.Server
	Health *health.Server
	probe  Probe
}

// NewServer registers the health and reflection services. Both the overall
// and the named service start as NOT_SERVING until the first probe passes.
func NewServer(probe Probe) *Server {
	s := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	reflection.Register(s)

	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Server{GRPC: s, Health: hs, probe: probe}
}

// Probe runs the dependency check once and publishes the result.
func (s *Server) Probe() {
	status := healthpb.HealthCheckResponse_SERVING
	if err := s.probe(); err != nil {
		log.Warn().Err(err).Msg("Store health probe failed")
		status = healthpb.HealthCheckResponse_NOT_SERVING
		metrics.StoreUp.Set(0)
	} else {
		metrics.StoreUp.Set(1)
	}
	s.Health.SetServingStatus("", status)
	s.Health.SetServingStatus(ServiceName, status)
}

// StartProbe runs Probe immediately and then on spec.
func (s *Server) StartProbe(spec string) (*cron.Cron, error) {
	s.Probe()
	c := cron.New()
	if _, err := c.AddFunc(spec, s.Probe); err != nil {
		return nil, fmt.Errorf("error scheduling health probe: %w", err)
	}
	c.Start()
	return c, nil
}

// Serve blocks serving gRPC on port.
func (s *Server) Serve(port string) error {
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	log.Info().Str("port", port).Msg("gRPC server listening")
	return s.GRPC.Serve(lis)
}

func (s *Server) Stop() {
	s.Health.Shutdown()
	s.GRPC.GracefulStop()
}
