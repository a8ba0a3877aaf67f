package repository

import (
	"context"
	"errors"
	"time"

	"storefront/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound         = errors.New("document not found")
	ErrCapacityExceeded = errors.New("collection capacity exceeded")
	ErrConflict         = errors.New("concurrent modification")
)

// ProductRepository defines data access for the products collection.
type ProductRepository interface {
	Insert(ctx context.Context, product *model.Product) error
	FindAll(ctx context.Context) ([]model.Product, error)
	// FindByName matches term as a literal, case-insensitive substring of the product name.
	FindByName(ctx context.Context, term string) ([]model.Product, error)
	FindNewReleases(ctx context.Context) ([]model.Product, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Product, error)
	Update(ctx context.Context, id primitive.ObjectID, fields ProductUpdate) (*model.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ProductUpdate is the set of fields written by an update. A nil IsNewRelease leaves the stored flag untouched.
type ProductUpdate struct {
	Name         string
	Description  string
	Price        string
	ImageURL     string
	IsNewRelease *bool
}

// CarouselRepository stores the singleton carousel. Append and Remove are atomic with respect to each other.
type CarouselRepository interface {
	Get(ctx context.Context) (*model.Carousel, error)
	// Append creates the singleton when missing and fails with ErrCapacityExceeded when it already holds capacity images.
	Append(ctx context.Context, reference string, capacity int) (*model.Carousel, error)
	// Remove drops the first entry equal to reference; ErrNotFound when the singleton or the entry is missing.
	Remove(ctx context.Context, reference string) (*model.Carousel, error)
	Reset(ctx context.Context) error
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func removeFirst(images []string, reference string) ([]string, bool) {
	for i, img := range images {
		if img == reference {
			out := make([]string, 0, len(images)-1)
			out = append(out, images[:i]...)
			return append(out, images[i+1:]...), true
		}
	}
	return images, false
}
