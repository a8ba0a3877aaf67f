package middleware_grpc

import (
	"context"
	"log/slog"
	"time"

	"storefront/internal/logger"
	"storefront/internal/telemetry"

	"go.opentelemetry.io/otel"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

var tracer = otel.Tracer("GrpcMiddleware")

// UnaryTracingInterceptor continues the caller's trace, logs request and response and returns the trace id
// in the "x-trace-id" trailer.
func UnaryTracingInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp any, err error) {
		md, _ := metadata.FromIncomingContext(ctx)
		ctx = otel.GetTextMapPropagator().Extract(ctx, telemetry.MetadataTextMapCarrier(md.Copy()))

		ctx, span := tracer.Start(ctx, info.FullMethod, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		attrs := logger.LogGRPCRequest(ctx, info.FullMethod, md, req, "incoming::request")
		if p, ok := peer.FromContext(ctx); ok {
			attrs = append(attrs, slog.String("grpc.remote", p.Addr.String()))
		}
		logger.Info(ctx, "GRPC", attrs...)

		_ = grpc.SetTrailer(ctx, metadata.Pairs("x-trace-id", span.SpanContext().TraceID().String()))

		start := time.Now()
		resp, err = handler(ctx, req)

		code := status.Code(err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, code.String())
		}
		logger.Info(ctx, "GRPC", logger.LogGRPCResponse(ctx, info.FullMethod, md, code, resp, time.Since(start), "incoming::response")...)
		return resp, err
	}
}

// StreamTracingInterceptor opens a span around a server stream and logs when it ends.
func StreamTracingInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx := ss.Context()
		md, _ := metadata.FromIncomingContext(ctx)
		ctx = otel.GetTextMapPropagator().Extract(ctx, telemetry.MetadataTextMapCarrier(md.Copy()))

		ctx, span := tracer.Start(ctx, info.FullMethod, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()
		logger.Info(ctx, "GRPC stream opened", slog.String("grpc.method", info.FullMethod))

		err := handler(srv, &tracedStream{ServerStream: ss, ctx: ctx})
		logger.Info(ctx, "GRPC stream closed", slog.String("grpc.method", info.FullMethod), slog.String("grpc.code", status.Code(err).String()))
		return err
	}
}

type tracedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *tracedStream) Context() context.Context {
	return s.ctx
}

// UnaryClientTracingInterceptor starts a client span and injects its context into outgoing metadata.
func UnaryClientTracingInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx, span := tracer.Start(ctx, method, trace.WithSpanKind(trace.SpanKindClient))
		defer span.End()

		md, ok := metadata.FromOutgoingContext(ctx)
		if ok {
			md = md.Copy()
		} else {
			md = metadata.MD{}
		}
		otel.GetTextMapPropagator().Inject(ctx, telemetry.MetadataTextMapCarrier(md))
		ctx = metadata.NewOutgoingContext(ctx, md)

		logger.Info(ctx, "GRPC", logger.LogGRPCRequest(ctx, method, md, req, "outgoing::request")...)

		start := time.Now()
		err := invoker(ctx, method, req, reply, cc, opts...)
		code := status.Code(err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, code.String())
		}
		logger.Info(ctx, "GRPC", logger.LogGRPCResponse(ctx, method, md, code, reply, time.Since(start), "outgoing::response")...)
		return err
	}
}
