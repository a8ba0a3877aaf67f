package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"storefront/internal/logger"
	"storefront/internal/model"
	"storefront/internal/repository"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

type CarouselService struct {
	repo     repository.CarouselRepository
	policy   *ReferencePolicy
	capacity int
}

var CarouselServiceTracer = otel.Tracer("CarouselService")

func NewCarouselService(repo repository.CarouselRepository, policy *ReferencePolicy) *CarouselService {
	return &CarouselService{
		repo:     repo,
		policy:   policy,
		capacity: model.CarouselCapacity,
	}
}

// AddImage appends reference, creating the carousel on first use.
func (s *CarouselService) AddImage(ctx context.Context, reference string) ([]string, error) {
	ctx, span := CarouselServiceTracer.Start(ctx, "CarouselService.AddImage")
	defer span.End()

	ref, err := s.policy.Normalize(reference)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("carousel.reference", ref))

	doc, err := s.repo.Append(ctx, ref, s.capacity)
	if errors.Is(err, repository.ErrCapacityExceeded) {
		return nil, fmt.Errorf("%w: maximum of %d images", ErrCapacityExceeded, s.capacity)
	}
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "Carousel image added", slog.String("reference", ref), slog.Int("count", len(doc.Images)))
	return images(doc), nil
}

// ListImages never fails on a missing carousel.
func (s *CarouselService) ListImages(ctx context.Context) ([]string, error) {
	ctx, span := CarouselServiceTracer.Start(ctx, "CarouselService.ListImages")
	defer span.End()

	doc, err := s.repo.Get(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return images(doc), nil
}

// RemoveImage drops the first entry equal to the normalized reference. A reference the policy cannot
// map is never stored, so it is reported as not found.
func (s *CarouselService) RemoveImage(ctx context.Context, reference string) ([]string, error) {
	ctx, span := CarouselServiceTracer.Start(ctx, "CarouselService.RemoveImage")
	defer span.End()

	ref, err := s.policy.Normalize(reference)
	if err != nil {
		return nil, fmt.Errorf("carousel image %q: %w", reference, ErrNotFound)
	}
	span.SetAttributes(attribute.String("carousel.reference", ref))

	doc, err := s.repo.Remove(ctx, ref)
	if err != nil {
		return nil, translate(err, "carousel image "+ref)
	}
	logger.Info(ctx, "Carousel image removed", slog.String("reference", ref), slog.Int("count", len(doc.Images)))
	return images(doc), nil
}

func (s *CarouselService) Reset(ctx context.Context) error {
	ctx, span := CarouselServiceTracer.Start(ctx, "CarouselService.Reset")
	defer span.End()

	if err := s.repo.Reset(ctx); err != nil {
		return err
	}
	logger.Info(ctx, "Carousel reset")
	return nil
}

func images(doc *model.Carousel) []string {
	if doc == nil || doc.Images == nil {
		return []string{}
	}
	return doc.Images
}
