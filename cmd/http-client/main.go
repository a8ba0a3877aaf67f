package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/client"
	"storefront/internal/config"
	"storefront/internal/logger"
	"storefront/internal/tracer"
	"storefront/internal/utils"
	"storefront/internal/version"
)

// http-client polls the public read endpoints of the storefront API until interrupted.
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

	api := client.NewStorefrontClient(cfg.ApiBaseURL, "", 2*time.Second)
	logger.Info(globalCtx, "HTTP client started", slog.String("target", cfg.ApiBaseURL), slog.Int64("delay_ms", cfg.ClientDelayMs))

	ticker := time.NewTicker(cfg.ClientDelay())
	defer ticker.Stop()

	for {
		poll(globalCtx, api)

		select {
		case <-globalCtx.Done():
			logger.Info(context.Background(), "Shutting down HTTP client")
			return
		case <-ticker.C:
		}
	}
}

func poll(ctx context.Context, api *client.StorefrontClient) {
	products, err := api.ListProducts(ctx, "")
	if err != nil {
		logger.Error(ctx, "Failed to list products", logger.Err(err))
	} else {
		logger.Info(ctx, "Received products", slog.Int("count", len(products)))
	}

	images, err := api.CarouselImages(ctx)
	if err != nil {
		logger.Error(ctx, "Failed to list carousel", logger.Err(err))
		return
	}
	logger.Info(ctx, "Received carousel", slog.Int("count", len(images)), slog.String("images", utils.ToJSONString(images)))
}
