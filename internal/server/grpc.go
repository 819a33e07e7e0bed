// Package server hosts the gRPC side of the service: the standard health service and
// server reflection.
package server

import (
	"net"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// AnalyzerServiceName is the health-checked service name of the analyzer
const AnalyzerServiceName = "crophealth.Analyzer"

// GRPCServer serves grpc.health.v1.Health and reflection
type GRPCServer struct {
	server *grpc.Server
	health *health.Server
	logger *logrus.Logger
}

// NewGRPCServer creates the server; every service starts as NOT_SERVING
func NewGRPCServer(logger *logrus.Logger) *GRPCServer {
	s := &GRPCServer{
		server: grpc.NewServer(),
		health: health.NewServer(),
		logger: logger,
	}
	healthpb.RegisterHealthServer(s.server, s.health)
	reflection.Register(s.server)
	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// Serve marks the services SERVING and blocks serving lis
func (s *GRPCServer) Serve(lis net.Listener) error {
	s.setStatus(healthpb.HealthCheckResponse_SERVING)
	s.logger.Infof("gRPC health server listening on %s", lis.Addr())
	return s.server.Serve(lis)
}

// Shutdown reports NOT_SERVING to watchers and stops gracefully
func (s *GRPCServer) Shutdown() {
	s.health.Shutdown()
	s.server.GracefulStop()
	s.logger.Info("gRPC server stopped")
}

func (s *GRPCServer) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(AnalyzerServiceName, status)
}
