package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/logger"
	"storefront/internal/model"
	"storefront/internal/service"
	"storefront/internal/storage"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel"
)

const productNotFound = "Product not found"

type ProductHandler struct {
	service  *service.ProductService
	uploader *storage.Uploader
	policy   *service.ReferencePolicy
}

var HttpProductHandlerTracer = otel.Tracer("HttpProductHandler")

func NewProductHandler(service *service.ProductService, uploader *storage.Uploader, policy *service.ReferencePolicy) *ProductHandler {
	return &ProductHandler{
		service:  service,
		uploader: uploader,
		policy:   policy,
	}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.List")
	defer span.End()
	logger.Debug(ctx, "HttpProductHandler.List")

	products, err := h.service.List(ctx, r.URL.Query().Get("search"))
	if err != nil {
		writeServiceError(ctx, w, err, productNotFound)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) NewReleases(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.NewReleases")
	defer span.End()
	logger.Debug(ctx, "HttpProductHandler.NewReleases")

	products, err := h.service.ListNewReleases(ctx)
	if err != nil {
		writeServiceError(ctx, w, err, "No new releases found")
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.GetByID")
	defer span.End()
	logger.Debug(ctx, "HttpProductHandler.GetByID")

	product, err := h.service.GetByID(ctx, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(ctx, w, err, productNotFound)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.Create")
	defer span.End()
	logger.Debug(ctx, "HttpProductHandler.Create")

	var in model.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	created, err := h.service.Create(ctx, in, service.CreateDirect)
	if err != nil {
		writeServiceError(ctx, w, err, productNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// CreateWithUpload stores the multipart "image" field and creates the product pointing at it.
// The stored file is removed again when the product is rejected.
func (h *ProductHandler) CreateWithUpload(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.CreateWithUpload")
	defer span.End()
	logger.Debug(ctx, "HttpProductHandler.CreateWithUpload")

	name, ok := h.saveUpload(ctx, w, r)
	if !ok {
		return
	}

	in := model.ProductInput{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Price:       model.PriceText(r.FormValue("price")),
		ImageURL:    h.policy.Render(name),
	}
	if raw := strings.TrimSpace(r.FormValue("isNewRelease")); raw != "" {
		flag, err := strconv.ParseBool(raw)
		if err != nil {
			h.discard(ctx, name)
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error:   "Validation failed",
				Details: []service.FieldError{{Field: "isNewRelease", Message: "Must be true or false"}},
			})
			return
		}
		in.IsNewRelease = &flag
	}

	created, err := h.service.Create(ctx, in, service.CreateViaUpload)
	if err != nil {
		h.discard(ctx, name)
		writeServiceError(ctx, w, err, productNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.Update")
	defer span.End()
	logger.Debug(ctx, "HttpProductHandler.Update")

	id := mux.Vars(r)["id"]
	var in model.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	updated, err := h.service.Update(ctx, id, in)
	if err != nil {
		writeServiceError(ctx, w, err, productNotFound)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpProductHandlerTracer.Start(r.Context(), "HttpProductHandler.Delete")
	defer span.End()
	logger.Debug(ctx, "HttpProductHandler.Delete")

	if err := h.service.Delete(ctx, mux.Vars(r)["id"]); err != nil {
		writeServiceError(ctx, w, err, productNotFound)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Product deleted successfully"})
}

// saveUpload parses the multipart body and stores its "image" file. It writes the error response itself.
func (h *ProductHandler) saveUpload(ctx context.Context, w http.ResponseWriter, r *http.Request) (string, bool) {
	name, err := receiveImage(ctx, w, r, h.uploader)
	if err != nil {
		writeServiceError(ctx, w, err, productNotFound)
		return "", false
	}
	return name, true
}

func (h *ProductHandler) discard(ctx context.Context, name string) {
	if err := h.uploader.Remove(name); err != nil {
		logger.Warn(ctx, "Failed to remove rejected upload", logger.Err(err))
	}
}

// receiveImage bounds the request body, parses the multipart form and saves its "image" field.
func receiveImage(ctx context.Context, w http.ResponseWriter, r *http.Request, uploader *storage.Uploader) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", storage.ErrTooLarge
		}
		return "", storage.ErrNoFile
	}

	_, fh, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return "", storage.ErrNoFile
	}
	if err != nil {
		return "", err
	}
	return uploader.Save(ctx, fh)
}

const (
	multipartOverhead = 1 << 20
	multipartMemory   = 8 << 20
)
