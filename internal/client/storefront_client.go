package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"storefront/internal/model"
)

// StorefrontClient is a typed client for the storefront HTTP API.
type StorefrontClient struct {
	http *HTTPClient
}

type carouselPayload struct {
	Message string   `json:"message"`
	Images  []string `json:"images"`
}

// NewStorefrontClient targets baseURL. token, when set, is sent as a bearer credential.
func NewStorefrontClient(baseURL, token string, timeout time.Duration) *StorefrontClient {
	c := NewHTTPClient(baseURL, timeout)
	if token != "" {
		c.SetDefaultHeader("Authorization", "Bearer "+token)
	}
	return &StorefrontClient{http: c}
}

func (c *StorefrontClient) ListProducts(ctx context.Context, search string) ([]model.Product, error) {
	opts := RequestOptions{Method: http.MethodGet, Path: "/products"}
	if search != "" {
		opts.QueryParams = map[string]string{"search": search}
	}
	var products []model.Product
	err := c.http.Do(ctx, opts, &products)
	return products, err
}

func (c *StorefrontClient) NewReleases(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := c.http.Do(ctx, RequestOptions{Method: http.MethodGet, Path: "/products/new-releases"}, &products)
	return products, err
}

func (c *StorefrontClient) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	if err := c.http.Do(ctx, RequestOptions{Method: http.MethodGet, Path: "/products/" + url.PathEscape(id)}, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *StorefrontClient) CreateProduct(ctx context.Context, in model.ProductInput) (*model.Product, error) {
	var product model.Product
	if err := c.http.Do(ctx, RequestOptions{Method: http.MethodPost, Path: "/products", Body: in}, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *StorefrontClient) UpdateProduct(ctx context.Context, id string, in model.ProductInput) (*model.Product, error) {
	var product model.Product
	if err := c.http.Do(ctx, RequestOptions{Method: http.MethodPut, Path: "/products/" + url.PathEscape(id), Body: in}, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *StorefrontClient) DeleteProduct(ctx context.Context, id string) error {
	return c.http.Do(ctx, RequestOptions{Method: http.MethodDelete, Path: "/products/" + url.PathEscape(id)}, nil)
}

// UploadImage posts content as the multipart "image" field and returns the stored reference.
func (c *StorefrontClient) UploadImage(ctx context.Context, filename string, content io.Reader) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", fmt.Errorf("copy upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	var out struct {
		ImageURL string `json:"imageUrl"`
	}
	err = c.http.Do(ctx, RequestOptions{
		Method:  http.MethodPost,
		Path:    "/upload",
		Headers: map[string]string{"Content-Type": w.FormDataContentType()},
		Body:    &body,
	}, &out)
	return out.ImageURL, err
}

func (c *StorefrontClient) CarouselImages(ctx context.Context) ([]string, error) {
	var out carouselPayload
	err := c.http.Do(ctx, RequestOptions{Method: http.MethodGet, Path: "/carousel"}, &out)
	return out.Images, err
}

func (c *StorefrontClient) AddCarouselImage(ctx context.Context, reference string) ([]string, error) {
	var out carouselPayload
	err := c.http.Do(ctx, RequestOptions{
		Method: http.MethodPost,
		Path:   "/carousel",
		Body:   map[string]string{"reference": reference},
	}, &out)
	return out.Images, err
}

func (c *StorefrontClient) RemoveCarouselImage(ctx context.Context, reference string) ([]string, error) {
	var out carouselPayload
	err := c.http.Do(ctx, RequestOptions{Method: http.MethodDelete, Path: "/carousel/" + url.PathEscape(reference)}, &out)
	return out.Images, err
}
