package grpc

import (
	"context"
	"log/slog"
	"time"

	"storefront/internal/logger"
	"storefront/internal/service"

	"go.opentelemetry.io/otel"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// StoreService is the health service name reporting store reachability.
const StoreService = "storefront.Store"

// HealthGRPCHandler serves grpc.health.v1.Health backed by HealthService.
type HealthGRPCHandler struct {
	server   *health.Server
	service  *service.HealthService
	interval time.Duration
}

var GrpcHealthHandlerTracer = otel.Tracer("GrpcHealthHandler")

func NewHealthGRPCHandler(svc *service.HealthService, interval time.Duration) *HealthGRPCHandler {
	return &HealthGRPCHandler{
		server:   health.NewServer(),
		service:  svc,
		interval: interval,
	}
}

func (h *HealthGRPCHandler) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.server)
}

// Run refreshes the serving status every interval until ctx is done, then reports NOT_SERVING to watchers.
func (h *HealthGRPCHandler) Run(ctx context.Context) {
	h.Refresh(ctx)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
			h.Refresh(ctx)
		}
	}
}

func (h *HealthGRPCHandler) Refresh(ctx context.Context) {
	ctx, span := GrpcHealthHandlerTracer.Start(ctx, "GrpcHealthHandler.Refresh")
	defer span.End()

	status := h.service.Check(ctx)

	serving := healthpb.HealthCheckResponse_SERVING
	if !status.Healthy() {
		serving = healthpb.HealthCheckResponse_NOT_SERVING
		logger.Warn(ctx, "Store unhealthy", slog.String("store", status.Store), slog.String("cache", status.Cache))
	}

	h.server.SetServingStatus("", serving)
	h.server.SetServingStatus(StoreService, serving)
}
