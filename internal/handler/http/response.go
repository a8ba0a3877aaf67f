package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"storefront/internal/logger"
	"storefront/internal/service"
	"storefront/internal/storage"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type errorResponse struct {
	Error   string               `json:"error"`
	Details []service.FieldError `json:"details,omitempty"`
}

type messageResponse struct {
	Message string   `json:"message"`
	Images  []string `json:"images,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps err onto a status. notFound is the client message for ErrNotFound.
// Unexpected errors are logged and answered with a generic message.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error, notFound string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Validation failed", Details: verr.Details})
	case errors.Is(err, service.ErrInvalidID):
		writeError(w, http.StatusBadRequest, "Invalid ID format")
	case errors.Is(err, service.ErrCapacityExceeded):
		writeError(w, http.StatusBadRequest, "Carousel can hold a maximum of 5 images")
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, notFound)
	case errors.Is(err, storage.ErrNoFile):
		writeError(w, http.StatusBadRequest, "No file uploaded")
	case errors.Is(err, storage.ErrTooLarge), errors.Is(err, storage.ErrNotImage):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		span := trace.SpanFromContext(ctx)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error(ctx, "Request failed", logger.Err(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// NotFoundHandler answers unmatched routes.
func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
}

func MethodNotAllowedHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
}
