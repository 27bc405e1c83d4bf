package gameserver

import (
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServiceName is the gRPC health service name reported for the game server.
const HealthServiceName = "fray.gameserver"

// HealthService is a gRPC server exposing only the standard health service.
type HealthService struct {
	Server *grpc.Server
	Health *health.Server
	addr   string
}

// NewHealthService creates a HealthService for addr. Both the overall status
// and HealthServiceName start NOT_SERVING.
func NewHealthService(addr string) *HealthService {
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	h := &HealthService{Server: srv, Health: hs, addr: addr}
	h.SetServing(false)
	return h
}

// SetServing flips both names between SERVING and NOT_SERVING.
func (h *HealthService) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.Health.SetServingStatus("", status)
	h.Health.SetServingStatus(HealthServiceName, status)
}

// Start listens on the configured address and serves until Stop.
func (h *HealthService) Start() error {
	lis, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", h.addr, err)
	}
	return h.Serve(lis)
}

// Serve serves on lis until Stop.
func (h *HealthService) Serve(lis net.Listener) error {
	return h.Server.Serve(lis)
}

// Stop marks the service NOT_SERVING and stops gracefully.
func (h *HealthService) Stop() {
	h.Health.Shutdown()
	h.Server.GracefulStop()
}
