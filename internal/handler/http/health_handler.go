package http

import (
	"net/http"

	"storefront/internal/logger"
	"storefront/internal/service"

	"go.opentelemetry.io/otel"
)

type HealthHandler struct {
	service *service.HealthService
}

var HttpHealthHandlerTracer = otel.Tracer("HttpHealthHandler")

func NewHealthHandler(service *service.HealthService) *HealthHandler {
	return &HealthHandler{
		service: service,
	}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpHealthHandlerTracer.Start(r.Context(), "HttpHealthHandler.Check")
	defer span.End()
	logger.Debug(ctx, "HttpHealthHandler.Check")

	status := h.service.Check(ctx)

	overall, code := service.StatusUp, http.StatusOK
	if !status.Healthy() {
		overall, code = service.StatusDown, http.StatusInternalServerError
	}

	writeJSON(w, code, map[string]any{
		"status": overall,
		"data":   status,
	})
}
