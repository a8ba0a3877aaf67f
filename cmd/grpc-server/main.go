package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"storefront/internal/config"
	"storefront/internal/database"
	grpcHandler "storefront/internal/handler/grpc"
	"storefront/internal/logger"
	middleware_grpc "storefront/internal/middleware/grpc"
	"storefront/internal/service"
	"storefront/internal/tracer"
	"storefront/internal/version"
)

const healthInterval = 10 * time.Second

func main() {
	// Create cancellable context for graceful shutdown
	globalCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

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

	var storePinger service.Pinger
	if cfg.StoreDriver == config.StoreMongo {
		db, err := database.Instance(globalCtx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			logger.Error(globalCtx, "Failed to connect to MongoDB", logger.Err(err))
			os.Exit(1)
		}
		defer func() { _ = db.Disconnect(context.Background()) }()
		storePinger = db
	}

	healthHandler := grpcHandler.NewHealthGRPCHandler(service.NewHealthService(storePinger, nil), healthInterval)

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(middleware_grpc.UnaryTracingInterceptor()),
		grpc.StreamInterceptor(middleware_grpc.StreamTracingInterceptor()),
	)
	healthHandler.Register(grpcServer)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", ":"+cfg.GrpcPort)
	if err != nil {
		logger.Error(globalCtx, "failed to listen", logger.Err(err))
		os.Exit(1)
	}

	go healthHandler.Run(globalCtx)

	go func() {
		logger.Info(globalCtx, "gRPC server running", slog.String("port", cfg.GrpcPort))
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error(globalCtx, "failed to serve", logger.Err(err))
			cancel()
		}
	}()

	<-globalCtx.Done()

	logger.Info(context.Background(), "Shutting down gRPC server")
	grpcServer.GracefulStop()
	logger.Info(context.Background(), "gRPC server exited cleanly")
}
