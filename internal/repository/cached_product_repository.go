package repository

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"storefront/internal/cache"
	"storefront/internal/logger"
	"storefront/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CachedProductRepository serves list reads from a cache and retires every cached list on writes.
// Writes bump a generation counter that is part of each list key, so a read that loaded before the
// write can only fill a key nobody reads any more. Cache errors are logged and never fail the request.
type CachedProductRepository struct {
	next  ProductRepository
	cache cache.Cache
	ttl   time.Duration
}

func NewCachedProductRepository(next ProductRepository, c cache.Cache, ttl time.Duration) *CachedProductRepository {
	return &CachedProductRepository{next: next, cache: c, ttl: ttl}
}

func (r *CachedProductRepository) Insert(ctx context.Context, product *model.Product) error {
	if err := r.next.Insert(ctx, product); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *CachedProductRepository) FindAll(ctx context.Context) ([]model.Product, error) {
	return r.readThrough(ctx, cache.ProductAllKey, func() ([]model.Product, error) {
		return r.next.FindAll(ctx)
	})
}

func (r *CachedProductRepository) FindByName(ctx context.Context, term string) ([]model.Product, error) {
	key := func(gen int64) string { return cache.ProductSearchKey(gen, strings.ToLower(term)) }
	return r.readThrough(ctx, key, func() ([]model.Product, error) {
		return r.next.FindByName(ctx, term)
	})
}

func (r *CachedProductRepository) FindNewReleases(ctx context.Context) ([]model.Product, error) {
	return r.readThrough(ctx, cache.ProductNewReleasesKey, func() ([]model.Product, error) {
		return r.next.FindNewReleases(ctx)
	})
}

func (r *CachedProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Product, error) {
	return r.next.FindByID(ctx, id)
}

func (r *CachedProductRepository) Update(ctx context.Context, id primitive.ObjectID, fields ProductUpdate) (*model.Product, error) {
	updated, err := r.next.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx)
	return updated, nil
}

func (r *CachedProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := r.next.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *CachedProductRepository) readThrough(ctx context.Context, keyFor func(gen int64) string, load func() ([]model.Product, error)) ([]model.Product, error) {
	span := trace.SpanFromContext(ctx)

	gen, err := r.generation(ctx)
	if err != nil {
		logger.Warn(ctx, "Product cache generation read failed", logger.Err(err))
		span.SetAttributes(attribute.String("cache.result", "bypass"))
		return load()
	}
	key := keyFor(gen)

	var cached []model.Product
	err = r.cache.Get(ctx, key, &cached)
	if err == nil {
		span.SetAttributes(attribute.String("cache.result", "hit"))
		if cached == nil {
			cached = []model.Product{}
		}
		return cached, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		logger.Warn(ctx, "Product cache read failed", slog.String("key", key), logger.Err(err))
	}
	span.SetAttributes(attribute.String("cache.result", "miss"))

	products, err := load()
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, key, products, r.ttl); err != nil {
		logger.Warn(ctx, "Product cache write failed", slog.String("key", key), logger.Err(err))
	}
	return products, nil
}

// generation returns the current list generation; a missing counter is generation 0.
func (r *CachedProductRepository) generation(ctx context.Context) (int64, error) {
	var gen int64
	err := r.cache.Get(ctx, cache.ProductGenerationKey, &gen)
	if errors.Is(err, cache.ErrMiss) {
		return 0, nil
	}
	return gen, err
}

func (r *CachedProductRepository) invalidate(ctx context.Context) {
	if _, err := r.cache.Incr(ctx, cache.ProductGenerationKey); err != nil {
		logger.Warn(ctx, "Product cache generation bump failed", logger.Err(err))
	}
	if err := r.cache.DeleteByPattern(ctx, cache.ProductListPattern); err != nil {
		logger.Warn(ctx, "Product cache invalidation failed", logger.Err(err))
	}
}
