package http

import (
	"net/http"

	"storefront/internal/logger"
	"storefront/internal/service"
	"storefront/internal/storage"

	"go.opentelemetry.io/otel"
)

type UploadHandler struct {
	uploader *storage.Uploader
	policy   *service.ReferencePolicy
}

var HttpUploadHandlerTracer = otel.Tracer("HttpUploadHandler")

func NewUploadHandler(uploader *storage.Uploader, policy *service.ReferencePolicy) *UploadHandler {
	return &UploadHandler{
		uploader: uploader,
		policy:   policy,
	}
}

func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpUploadHandlerTracer.Start(r.Context(), "HttpUploadHandler.Upload")
	defer span.End()
	logger.Debug(ctx, "HttpUploadHandler.Upload")

	name, err := receiveImage(ctx, w, r, h.uploader)
	if err != nil {
		writeServiceError(ctx, w, err, "File not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"imageUrl": h.policy.Render(name)})
}

// Files serves stored uploads under prefix.
func (h *UploadHandler) Files(prefix string) http.Handler {
	return http.StripPrefix(prefix, http.FileServer(http.Dir(h.uploader.Dir())))
}
