package http

import (
	"net/http"

	middleware_http "storefront/internal/middleware/http"

	"github.com/gorilla/mux"
)

// APIPrefix mirrors every API route under /api.
const APIPrefix = "/api"

type Handlers struct {
	Products *ProductHandler
	Carousel *CarouselHandler
	Uploads  *UploadHandler
	Health   *HealthHandler
}

// NewRouter registers the API on the root and under APIPrefix and wraps it with tracing.
// Write routes require a bearer token signed with jwtSecret.
func NewRouter(h Handlers, jwtSecret []byte) http.Handler {
	r := mux.NewRouter().UseEncodedPath()
	r.NotFoundHandler = NotFoundHandler()
	r.MethodNotAllowedHandler = MethodNotAllowedHandler()

	auth := middleware_http.AuthMiddleware(jwtSecret)
	protected := func(fn http.HandlerFunc) http.Handler {
		return auth(fn)
	}

	r.HandleFunc("/healthz", h.Health.Check).Methods(http.MethodGet)
	r.PathPrefix("/uploads/").Handler(h.Uploads.Files("/uploads/")).Methods(http.MethodGet, http.MethodHead)

	for _, prefix := range []string{"", APIPrefix} {
		products := r.PathPrefix(prefix + "/products").Subrouter()
		products.HandleFunc("", h.Products.List).Methods(http.MethodGet)
		products.Handle("", protected(h.Products.Create)).Methods(http.MethodPost)
		products.Handle("/upload", protected(h.Products.CreateWithUpload)).Methods(http.MethodPost)
		products.HandleFunc("/new-releases", h.Products.NewReleases).Methods(http.MethodGet)
		products.HandleFunc("/{id}", h.Products.GetByID).Methods(http.MethodGet)
		products.Handle("/{id}", protected(h.Products.Update)).Methods(http.MethodPut)
		products.Handle("/{id}", protected(h.Products.Delete)).Methods(http.MethodDelete)

		carousel := r.PathPrefix(prefix + "/carousel").Subrouter()
		carousel.HandleFunc("", h.Carousel.List).Methods(http.MethodGet)
		carousel.Handle("", protected(h.Carousel.Add)).Methods(http.MethodPost)
		carousel.Handle("", protected(h.Carousel.Reset)).Methods(http.MethodDelete)
		carousel.Handle("/{reference:.+}", protected(h.Carousel.Remove)).Methods(http.MethodDelete)

		r.Handle(prefix+"/upload", protected(h.Uploads.Upload)).Methods(http.MethodPost)
	}

	return middleware_http.TraceMiddleware()(r)
}
