package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/database"
	handler "storefront/internal/handler/http"
	"storefront/internal/logger"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/storage"
	"storefront/internal/tracer"
	"storefront/internal/version"
)

type stores struct {
	products repository.ProductRepository
	carousel repository.CarouselRepository
	pinger   service.Pinger
	close    func(context.Context)
}

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

	// Initialize telemetry (OpenTelemetry + Pyroscope)
	shutdown, err := tracer.Instance(globalCtx)
	if err != nil {
		logger.Error(globalCtx, "Failed to initialize tracer", logger.Err(err))
	}
	if shutdown != nil {
		defer shutdown()
	}

	policy, err := service.NewReferencePolicy(cfg.CarouselReferenceFormat, cfg.PublicBaseURL)
	if err != nil {
		logger.Error(globalCtx, "Invalid reference policy", logger.Err(err))
		os.Exit(1)
	}

	st, err := openStores(globalCtx, cfg, policy)
	if err != nil {
		logger.Error(globalCtx, "Failed to open store", logger.Err(err))
		os.Exit(1)
	}
	defer st.close(context.Background())

	productRepo := st.products
	var cachePinger service.Pinger
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedisCache(globalCtx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       int(cfg.RedisDB),
		})
		if err != nil {
			logger.Warn(globalCtx, "Redis unavailable, serving without cache", logger.Err(err))
		} else {
			defer redisCache.Close()
			productRepo = repository.NewCachedProductRepository(productRepo, redisCache, cfg.CacheTTL())
			cachePinger = redisCache
			logger.Info(globalCtx, "Product cache enabled", slog.String("addr", cfg.RedisAddr))
		}
	}

	uploader, err := storage.NewUploader(cfg.UploadDir)
	if err != nil {
		logger.Error(globalCtx, "Failed to prepare upload dir", logger.Err(err))
		os.Exit(1)
	}

	// Wiring
	productService := service.NewProductService(productRepo)
	carouselService := service.NewCarouselService(st.carousel, policy)
	healthService := service.NewHealthService(st.pinger, cachePinger)

	router := handler.NewRouter(handler.Handlers{
		Products: handler.NewProductHandler(productService, uploader, policy),
		Carousel: handler.NewCarouselHandler(carouselService),
		Uploads:  handler.NewUploadHandler(uploader, policy),
		Health:   handler.NewHealthHandler(healthService),
	}, []byte(cfg.JwtSecret))

	server := &http.Server{
		Addr:         ":" + cfg.AppPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info(globalCtx, "HTTP server running", slog.String("addr", server.Addr), slog.String("store", cfg.StoreDriver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(globalCtx, "Server failed", logger.Err(err))
			stop()
		}
	}()

	<-globalCtx.Done()
	logger.Info(context.Background(), "Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "Graceful shutdown failed", logger.Err(err))
	}
	logger.Info(shutdownCtx, "HTTP server exited cleanly")
}

func openStores(ctx context.Context, cfg *config.Config, policy *service.ReferencePolicy) (*stores, error) {
	if cfg.StoreDriver == config.StoreMemory {
		logger.Warn(ctx, "Using in-memory store, data is lost on restart")
		return &stores{
			products: repository.NewMemoryProductRepository(),
			carousel: repository.NewMemoryCarouselRepository(),
			close:    func(context.Context) {},
		}, nil
	}

	db, err := database.Instance(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		return nil, err
	}

	products := repository.NewMongoProductRepository(db.Database, cfg.StoreTimeout())
	if err := products.EnsureIndexes(ctx); err != nil {
		logger.Warn(ctx, "Failed to ensure product indexes", logger.Err(err))
	}

	carousel := repository.NewMongoCarouselRepository(db.Database, cfg.StoreTimeout())
	if _, err := carousel.AdoptLegacy(ctx, policy.Normalize); err != nil {
		logger.Warn(ctx, "Failed to adopt legacy carousel", logger.Err(err))
	}

	return &stores{
		products: products,
		carousel: carousel,
		pinger:   db,
		close: func(ctx context.Context) {
			if err := db.Disconnect(ctx); err != nil {
				logger.Error(ctx, "Failed to disconnect MongoDB", logger.Err(err))
			}
		},
	}, nil
}
