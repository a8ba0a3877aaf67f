package middleware_http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
)

var tracer = otel.Tracer("HttpMiddleware")

// ResponseWriter captures status, size and the first MaxBodyLogged bytes of the body.
type ResponseWriter struct {
	http.ResponseWriter
	statusCode  int
	size        int64
	wroteHeader bool
	buf         bytes.Buffer
}

func (rw *ResponseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.wroteHeader = true
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *ResponseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += int64(n)

	if rw.buf.Len() < logger.MaxBodyLogged {
		toCopy := logger.MaxBodyLogged - rw.buf.Len()
		if len(b) < toCopy {
			toCopy = len(b)
		}
		rw.buf.Write(b[:toCopy])
	}
	return n, err
}

// TraceMiddleware wraps HTTP handlers with OpenTelemetry tracing.
// It logs request and response, sets X-Trace-ID and turns a panic into a generic 500.
func TraceMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path)
			defer span.End()
			r = r.WithContext(ctx)

			attrs := logger.LogHTTPRequest(ctx, r, "incoming::request")
			logger.Info(ctx, "HTTP", attrs...)

			rw := &ResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			start := time.Now()

			rw.Header().Set("X-Trace-ID", span.SpanContext().TraceID().String())

			defer func() {
				if rec := recover(); rec != nil {
					err := errFromRecover(rec)
					span.RecordError(err)
					span.SetStatus(codes.Error, "panic occurred")
					logger.Error(ctx, "Recovered from panic", logger.Err(err))

					if !rw.wroteHeader {
						rw.Header().Set("Content-Type", "application/json")
						rw.WriteHeader(http.StatusInternalServerError)
						_ = json.NewEncoder(rw).Encode(map[string]string{"error": "Internal server error"})
					}
				}

				switch {
				case rw.statusCode >= 500:
					span.SetStatus(codes.Error, "internal server error")
				case rw.statusCode >= 400:
					span.SetStatus(codes.Error, "client error")
				default:
					span.SetStatus(codes.Ok, "")
				}

				attrs := logger.LogHTTPResponse(ctx, r, rw.Header(), rw.statusCode, &rw.buf, time.Since(start).Milliseconds(), "incoming::response")
				logger.Info(ctx, "HTTP", attrs...)
			}()

			next.ServeHTTP(rw, r)
		})
	}
}

func errFromRecover(rec any) error {
	if err, ok := rec.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", rec)
}
