package service

import (
	"context"
	"time"

	"storefront/internal/logger"

	"go.opentelemetry.io/otel"
)

const (
	StatusUp       = "UP"
	StatusDown     = "DOWN"
	StatusDisabled = "DISABLED"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthService pings the store and, when configured, the cache. A nil pinger reports UP for the store
// (in-memory) and DISABLED for the cache.
type HealthService struct {
	store Pinger
	cache Pinger
}

type HealthStatus struct {
	Store string `json:"store"`
	Cache string `json:"cache"`
}

// Healthy reports whether the store is reachable. A failing cache only degrades reads.
func (h HealthStatus) Healthy() bool {
	return h.Store == StatusUp
}

var HealthServiceTracer = otel.Tracer("HealthService")

func NewHealthService(store, cache Pinger) *HealthService {
	return &HealthService{
		store: store,
		cache: cache,
	}
}

func (s *HealthService) Check(ctx context.Context) HealthStatus {
	ctx, span := HealthServiceTracer.Start(ctx, "HealthService.Check")
	defer span.End()
	logger.Debug(ctx, "HealthService.Check")

	status := HealthStatus{Store: StatusUp, Cache: StatusDisabled}

	if s.store != nil {
		status.Store = ping(ctx, s.store)
	}
	if s.cache != nil {
		status.Cache = ping(ctx, s.cache)
	}
	return status
}

func ping(ctx context.Context, p Pinger) string {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		logger.Warn(ctx, "Health check ping failed", logger.Err(err))
		return StatusDown
	}
	return StatusUp
}
