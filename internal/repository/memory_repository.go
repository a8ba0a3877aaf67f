package repository

import (
	"context"
	"strings"
	"sync"

	"storefront/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryProductRepository is an in-memory ProductRepository that keeps insertion order.
type MemoryProductRepository struct {
	mu       sync.RWMutex
	products []model.Product
}

func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{}
}

func (r *MemoryProductRepository) Insert(ctx context.Context, product *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product.ID = primitive.NewObjectID()
	r.products = append(r.products, *product)
	return nil
}

func (r *MemoryProductRepository) FindAll(ctx context.Context) ([]model.Product, error) {
	return r.filter(func(model.Product) bool { return true }), nil
}

func (r *MemoryProductRepository) FindByName(ctx context.Context, term string) ([]model.Product, error) {
	needle := strings.ToLower(term)
	return r.filter(func(p model.Product) bool {
		return strings.Contains(strings.ToLower(p.Name), needle)
	}), nil
}

func (r *MemoryProductRepository) FindNewReleases(ctx context.Context) ([]model.Product, error) {
	return r.filter(func(p model.Product) bool { return p.IsNewRelease }), nil
}

func (r *MemoryProductRepository) filter(keep func(model.Product) bool) []model.Product {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Product, 0, len(r.products))
	for _, p := range r.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func (r *MemoryProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	product := r.products[i]
	return &product, nil
}

func (r *MemoryProductRepository) Update(ctx context.Context, id primitive.ObjectID, fields ProductUpdate) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	p := &r.products[i]
	p.Name = fields.Name
	p.Description = fields.Description
	p.Price = fields.Price
	p.ImageURL = fields.ImageURL
	if fields.IsNewRelease != nil {
		p.IsNewRelease = *fields.IsNewRelease
	}
	updated := *p
	return &updated, nil
}

func (r *MemoryProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	r.products = append(r.products[:i], r.products[i+1:]...)
	return nil
}

// indexOf must be called with mu held.
func (r *MemoryProductRepository) indexOf(id primitive.ObjectID) int {
	for i := range r.products {
		if r.products[i].ID == id {
			return i
		}
	}
	return -1
}

// MemoryCarouselRepository keeps the singleton carousel in memory. One mutex covers every read-modify-write.
type MemoryCarouselRepository struct {
	mu  sync.Mutex
	doc *model.Carousel
}

func NewMemoryCarouselRepository() *MemoryCarouselRepository {
	return &MemoryCarouselRepository{}
}

func (r *MemoryCarouselRepository) Get(ctx context.Context) (*model.Carousel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.doc == nil {
		return nil, ErrNotFound
	}
	return r.snapshot(), nil
}

func (r *MemoryCarouselRepository) Append(ctx context.Context, reference string, capacity int) (*model.Carousel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.doc == nil {
		r.doc = &model.Carousel{ID: model.CarouselID, Images: []string{}}
	}
	if len(r.doc.Images) >= capacity {
		return nil, ErrCapacityExceeded
	}
	r.doc.Images = append(r.doc.Images, reference)
	r.doc.Version++
	return r.snapshot(), nil
}

func (r *MemoryCarouselRepository) Remove(ctx context.Context, reference string) (*model.Carousel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.doc == nil {
		return nil, ErrNotFound
	}
	images, found := removeFirst(r.doc.Images, reference)
	if !found {
		return nil, ErrNotFound
	}
	r.doc.Images = images
	r.doc.Version++
	return r.snapshot(), nil
}

func (r *MemoryCarouselRepository) Reset(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.doc == nil {
		r.doc = &model.Carousel{ID: model.CarouselID}
	}
	r.doc.Images = []string{}
	r.doc.Version++
	return nil
}

// snapshot must be called with mu held.
func (r *MemoryCarouselRepository) snapshot() *model.Carousel {
	images := make([]string, len(r.doc.Images))
	copy(images, r.doc.Images)
	return &model.Carousel{ID: r.doc.ID, Images: images, Version: r.doc.Version}
}
