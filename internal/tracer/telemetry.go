package tracer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"storefront/internal/config"
	"storefront/internal/logger"
	"storefront/internal/version"

	otelpyroscope "github.com/grafana/otel-profiling-go"
	"github.com/grafana/pyroscope-go"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

var (
	once         sync.Once
	shutdownFunc func()
	initErr      error
)

var pyroLogrus = func() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.JSONFormatter{})
	return l
}()

// Instance installs the global tracer provider and propagators once and starts the profiler when configured.
// The returned func flushes spans and stops the profiler.
func Instance(globalCtx context.Context) (func(), error) {
	once.Do(func() {
		shutdownFunc, initErr = setup(globalCtx, config.Instance())
	})
	return shutdownFunc, initErr
}

func setup(ctx context.Context, cfg *config.Config) (func(), error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.AppName),
			semconv.ServiceVersionKey.String(version.Version),
			attribute.String("env", cfg.Env),
		),
	)
	if err != nil {
		return func() {}, fmt.Errorf("create resource: %w", err)
	}

	opts := []trace.TracerProviderOption{trace.WithResource(res)}
	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return func() {}, err
	}
	if exporter != nil {
		opts = append(opts, trace.WithBatcher(exporter))
	}
	tp := trace.NewTracerProvider(opts...)

	var profiler *pyroscope.Profiler
	if cfg.RemoteProfilingHttpURI != "" {
		profiler, err = pyroscope.Start(pyroscope.Config{
			ApplicationName: cfg.AppName,
			ServerAddress:   cfg.RemoteProfilingHttpURI,
			Logger:          pyroLogrus,
			Tags:            map[string]string{"env": cfg.Env, "version": version.Version},
		})
		if err != nil {
			logger.Error(ctx, "Pyroscope failed to start", logger.Err(err))
		} else {
			logger.Info(ctx, "Pyroscope started successfully")
		}
	}

	if profiler != nil {
		otel.SetTracerProvider(otelpyroscope.NewTracerProvider(tp))
	} else {
		otel.SetTracerProvider(tp)
	}
	logger.Info(ctx, "OpenTelemetry tracer initialized", slog.Bool("exporting", exporter != nil))

	return func() {
		if err := tp.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Error(ctx, "Error shutting down tracer provider", logger.Err(err))
		}
		if profiler != nil {
			if err := profiler.Stop(); err != nil {
				logger.Error(ctx, "Error stopping profiler", logger.Err(err))
			}
		}
	}, nil
}

// newExporter picks OTLP when a collector is configured, stdout in development and nothing otherwise.
func newExporter(ctx context.Context, cfg *config.Config) (trace.SpanExporter, error) {
	switch {
	case cfg.RemoteTraceRpcURI != "":
		exp, err := otlptracegrpc.New(ctx,
			otlptracegrpc.WithInsecure(),
			otlptracegrpc.WithEndpoint(cfg.RemoteTraceRpcURI),
			otlptracegrpc.WithCompressor("gzip"),
		)
		if err != nil {
			return nil, fmt.Errorf("create otlp exporter: %w", err)
		}
		return exp, nil
	case cfg.Env == "development":
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("create stdout exporter: %w", err)
		}
		return exp, nil
	default:
		return nil, nil
	}
}
