package transport

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/adamgarcia4/goLearning/ndnagg/logger"
	"github.com/adamgarcia4/goLearning/ndnagg/orchestrator"
)

const (
	DefaultStatusAddr = "127.0.0.1:50061"

	// OverallService is the health service name of the whole experiment.
	OverallService = ""
	// StageServicePrefix is followed by the stage name, e.g. ndnagg.stage.routing-up
	StageServicePrefix = "ndnagg.stage."
)

// StageService returns the health service name of a stage.
func StageService(s orchestrator.Stage) string {
	return StageServicePrefix + s.String()
}

// StatusServer publishes stage progress through the standard gRPC health
// service. It is an orchestrator.Observer.
type StatusServer struct {
	addr   string
	srv    *grpc.Server
	lis    net.Listener
	health *health.Server
	mu     sync.Mutex
}

func NewStatusServer(addr string) (*StatusServer, error) {
	if addr == "" || !strings.Contains(addr, ":") {
		return nil, fmt.Errorf("invalid address: %s", addr)
	}

	return &StatusServer{
		addr:   addr,
		srv:    grpc.NewServer(),
		health: health.NewServer(),
	}, nil
}

func (s *StatusServer) setupTcp() (net.Listener, error) {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}
	return lis, nil
}

// Start binds synchronously, so a port in use is reported here, then serves
// in a background goroutine.
func (s *StatusServer) Start() error {
	lis, err := s.setupTcp()
	if err != nil {
		return fmt.Errorf("failed to setup TCP: %w", err)
	}

	s.mu.Lock()
	s.lis = lis
	s.mu.Unlock()

	healthpb.RegisterHealthServer(s.srv, s.health)
	s.health.SetServingStatus(OverallService, healthpb.HealthCheckResponse_NOT_SERVING)

	// Register reflection service for gRPC tools (grpcurl, grpcui, etc.)
	reflection.Register(s.srv)

	go func() {
		if err := s.srv.Serve(lis); err != nil {
			logger.Errorf("status server stopped: %v", err)
		}
	}()
	logger.Infof("Status server listening on %s", lis.Addr())
	return nil
}

// Addr returns the bound address once started.
func (s *StatusServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis == nil {
		return s.addr
	}
	return s.lis.Addr().String()
}

// Observe maps a stage event onto health statuses: running is UNKNOWN,
// done or skipped is SERVING, failed is NOT_SERVING. The overall service
// turns SERVING once the consumer is up.
func (s *StatusServer) Observe(ev orchestrator.StageEvent) {
	switch ev.Status {
	case orchestrator.StatusRunning:
		s.health.SetServingStatus(StageService(ev.Stage), healthpb.HealthCheckResponse_UNKNOWN)
	case orchestrator.StatusDone, orchestrator.StatusSkipped:
		s.health.SetServingStatus(StageService(ev.Stage), healthpb.HealthCheckResponse_SERVING)
		if ev.Stage == orchestrator.StageConsumerUp {
			s.health.SetServingStatus(OverallService, healthpb.HealthCheckResponse_SERVING)
		}
	case orchestrator.StatusFailed:
		s.health.SetServingStatus(StageService(ev.Stage), healthpb.HealthCheckResponse_NOT_SERVING)
		s.health.SetServingStatus(OverallService, healthpb.HealthCheckResponse_NOT_SERVING)
	}
}

// Stop marks every service NOT_SERVING and stops the server gracefully.
func (s *StatusServer) Stop() error {
	s.health.Shutdown()
	s.srv.GracefulStop()
	return nil
}

// StageStatus is one line of a status report.
type StageStatus struct {
	Service string
	Status  string
}

// PendingStatus is reported for stages that have not started.
const PendingStatus = "PENDING"

// QueryStatus asks a status server for the overall and per-stage status.
func QueryStatus(ctx context.Context, addr string) ([]StageStatus, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	defer conn.Close()

	client := healthpb.NewHealthClient(conn)
	services := []string{OverallService}
	for _, stage := range orchestrator.Stages() {
		services = append(services, StageService(stage))
	}

	report := make([]StageStatus, 0, len(services))
	for _, service := range services {
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
		switch {
		case status.Code(err) == codes.NotFound:
			report = append(report, StageStatus{Service: service, Status: PendingStatus})
		case err != nil:
			return nil, fmt.Errorf("check %q: %w", service, err)
		default:
			report = append(report, StageStatus{Service: service, Status: resp.GetStatus().String()})
		}
	}
	return report, nil
}
