package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"storefront/internal/logger"
	"storefront/internal/model"
	"storefront/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// CreateMode selects how strictly Create validates the price.
type CreateMode int

const (
	// CreateDirect requires a numeric price.
	CreateDirect CreateMode = iota
	// CreateViaUpload accepts a missing price and stores it as "".
	CreateViaUpload
)

func (m CreateMode) String() string {
	if m == CreateViaUpload {
		return "upload"
	}
	return "direct"
}

type ProductService struct {
	repo repository.ProductRepository
}

var ProductServiceTracer = otel.Tracer("ProductService")

func NewProductService(repo repository.ProductRepository) *ProductService {
	return &ProductService{repo: repo}
}

func (s *ProductService) Create(ctx context.Context, in model.ProductInput, mode CreateMode) (*model.Product, error) {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.Create")
	defer span.End()
	span.SetAttributes(attribute.String("product.create_mode", mode.String()))

	in = trimInput(in)
	if err := validateProduct(in, mode == CreateDirect); err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       string(in.Price),
		ImageURL:    in.ImageURL,
	}
	if in.IsNewRelease != nil {
		product.IsNewRelease = *in.IsNewRelease
	}

	if err := s.repo.Insert(ctx, product); err != nil {
		return nil, err
	}
	logger.Info(ctx, "Product created", slog.String("product.id", product.ID.Hex()))
	return product, nil
}

// List returns every product, or those whose name contains search case-insensitively.
func (s *ProductService) List(ctx context.Context, search string) ([]model.Product, error) {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.List")
	defer span.End()
	logger.Debug(ctx, "ProductService.List", slog.String("search", search))

	if search == "" {
		return s.repo.FindAll(ctx)
	}
	return s.repo.FindByName(ctx, search)
}

func (s *ProductService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.GetByID")
	defer span.End()

	objID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	product, err := s.repo.FindByID(ctx, objID)
	if err != nil {
		return nil, translate(err, "product "+id)
	}
	return product, nil
}

// Update overwrites name, description, price and imageUrl. isNewRelease is only written when sent.
func (s *ProductService) Update(ctx context.Context, id string, in model.ProductInput) (*model.Product, error) {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.Update")
	defer span.End()

	objID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	in = trimInput(in)
	if err := validateProduct(in, true); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, objID, repository.ProductUpdate{
		Name:         in.Name,
		Description:  in.Description,
		Price:        string(in.Price),
		ImageURL:     in.ImageURL,
		IsNewRelease: in.IsNewRelease,
	})
	if err != nil {
		return nil, translate(err, "product "+id)
	}
	logger.Info(ctx, "Product updated", slog.String("product.id", id))
	return updated, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.Delete")
	defer span.End()

	objID, err := parseID(id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, objID); err != nil {
		return translate(err, "product "+id)
	}
	logger.Info(ctx, "Product deleted", slog.String("product.id", id))
	return nil
}

// ListNewReleases fails with ErrNotFound when no product is flagged. Existing clients rely on the 404.
func (s *ProductService) ListNewReleases(ctx context.Context) ([]model.Product, error) {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.ListNewReleases")
	defer span.End()

	products, err := s.repo.FindNewReleases(ctx)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("new releases: %w", ErrNotFound)
	}
	return products, nil
}

func parseID(id string) (primitive.ObjectID, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return objID, nil
}

func translate(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}

func trimInput(in model.ProductInput) model.ProductInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	in.Price = model.PriceText(strings.TrimSpace(string(in.Price)))
	return in
}

func validateProduct(in model.ProductInput, priceRequired bool) error {
	details, err := collectFieldErrors(nil, validate.Struct(in), "")
	if err != nil {
		return err
	}
	if priceRequired {
		details, err = collectFieldErrors(details, validate.Var(string(in.Price), "required,price"), "price")
		if err != nil {
			return err
		}
	}
	if len(details) > 0 {
		return &ValidationError{Details: details}
	}
	return nil
}
