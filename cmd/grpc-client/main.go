package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"

	"storefront/internal/config"
	grpcHandler "storefront/internal/handler/grpc"
	"storefront/internal/logger"
	middleware_grpc "storefront/internal/middleware/grpc"
	"storefront/internal/tracer"
	"storefront/internal/version"
)

// grpc-client polls the storefront health service until interrupted.
func main() {
	globalCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Instance()
	cfg := config.Instance()

	logger.Info(globalCtx, cfg.AppName,
		slog.String("version", version.Version),
		slog.String("commit", version.Commit),
		slog.String("buildTime", version.BuildTime),
	)

	shutdown, err := tracer.Instance(globalCtx)
	if err != nil {
		logger.Error(globalCtx, "Failed to initialize tracer", logger.Err(err))
	}
	if shutdown != nil {
		defer shutdown()
	}

	conn, err := grpc.NewClient(
		cfg.GrpcTarget,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(middleware_grpc.UnaryClientTracingInterceptor()),
	)
	if err != nil {
		logger.Error(globalCtx, "Failed to connect to gRPC server", logger.Err(err), slog.String("target", cfg.GrpcTarget))
		os.Exit(1)
	}
	defer func() {
		logger.Info(context.Background(), "Closing gRPC connection")
		_ = conn.Close()
	}()

	client := healthpb.NewHealthClient(conn)
	logger.Info(globalCtx, "gRPC health client started", slog.String("target", cfg.GrpcTarget), slog.Int64("delay_ms", cfg.ClientDelayMs))

	ticker := time.NewTicker(cfg.ClientDelay())
	defer ticker.Stop()

	for {
		checkHealth(globalCtx, client)

		select {
		case <-globalCtx.Done():
			logger.Info(context.Background(), "Shutting down gRPC client")
			return
		case <-ticker.C:
		}
	}
}

func checkHealth(globalCtx context.Context, client healthpb.HealthClient) {
	ctx, cancel := context.WithTimeout(globalCtx, 3*time.Second)
	defer cancel()

	var trailer metadata.MD
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: grpcHandler.StoreService}, grpc.Trailer(&trailer))

	traceID := "empty"
	if ids := trailer.Get("x-trace-id"); len(ids) > 0 {
		traceID = ids[0]
	}

	if err != nil {
		logger.Error(ctx, "Health check failed", logger.Err(err), slog.String("trace_id", traceID))
		return
	}
	logger.Info(ctx, "Health check", slog.String("status", resp.GetStatus().String()), slog.String("trace_id", traceID))
}
