package http

import (
	"encoding/json"
	"net/http"
	"net/url"

	"storefront/internal/logger"
	"storefront/internal/service"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel"
)

const imageNotFound = "Image not found in carousel"

type CarouselHandler struct {
	service *service.CarouselService
}

// carouselRequest accepts the reference under any of the names older clients send.
type carouselRequest struct {
	Reference string `json:"reference"`
	FileName  string `json:"fileName"`
	ImageURL  string `json:"imageUrl"`
}

func (c carouselRequest) ref() string {
	switch {
	case c.Reference != "":
		return c.Reference
	case c.FileName != "":
		return c.FileName
	default:
		return c.ImageURL
	}
}

type carouselResponse struct {
	Message string   `json:"message,omitempty"`
	Images  []string `json:"images"`
}

var HttpCarouselHandlerTracer = otel.Tracer("HttpCarouselHandler")

func NewCarouselHandler(service *service.CarouselService) *CarouselHandler {
	return &CarouselHandler{service: service}
}

func (h *CarouselHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpCarouselHandlerTracer.Start(r.Context(), "HttpCarouselHandler.List")
	defer span.End()
	logger.Debug(ctx, "HttpCarouselHandler.List")

	images, err := h.service.ListImages(ctx)
	if err != nil {
		writeServiceError(ctx, w, err, imageNotFound)
		return
	}
	writeJSON(w, http.StatusOK, carouselResponse{Images: images})
}

func (h *CarouselHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpCarouselHandlerTracer.Start(r.Context(), "HttpCarouselHandler.Add")
	defer span.End()
	logger.Debug(ctx, "HttpCarouselHandler.Add")

	var req carouselRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	images, err := h.service.AddImage(ctx, req.ref())
	if err != nil {
		writeServiceError(ctx, w, err, imageNotFound)
		return
	}
	writeJSON(w, http.StatusOK, carouselResponse{Message: "Image added to carousel", Images: images})
}

// Remove takes the reference from the path. Encoded slashes are allowed so path and URL forms work.
func (h *CarouselHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpCarouselHandlerTracer.Start(r.Context(), "HttpCarouselHandler.Remove")
	defer span.End()
	logger.Debug(ctx, "HttpCarouselHandler.Remove")

	ref, err := url.PathUnescape(mux.Vars(r)["reference"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid image reference")
		return
	}

	images, err := h.service.RemoveImage(ctx, ref)
	if err != nil {
		writeServiceError(ctx, w, err, imageNotFound)
		return
	}
	writeJSON(w, http.StatusOK, carouselResponse{Message: "Image removed from carousel", Images: images})
}

func (h *CarouselHandler) Reset(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpCarouselHandlerTracer.Start(r.Context(), "HttpCarouselHandler.Reset")
	defer span.End()
	logger.Debug(ctx, "HttpCarouselHandler.Reset")

	if err := h.service.Reset(ctx); err != nil {
		writeServiceError(ctx, w, err, imageNotFound)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Carousel cleared"})
}
