// Package tracing wires the retrieval pipeline's stages into OpenTelemetry
// spans, adapted from internal/observability/tracing/tracing.go for the
// per-stage instrumentation spec.md §3/§4.M's in-memory Trace event log
// complements rather than replaces.
package tracing

import (
	"context"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/semaj90/legal-rag-core/internal/tracing"

// Init configures a global TracerProvider with an OTLP HTTP exporter.
// Callers that don't have a reachable collector can ignore the error and
// proceed without tracing; Init is never required for correctness.
func Init(ctx context.Context, logger *zap.Logger, serviceName string) (func(context.Context) error, error) {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		endpoint = "http://localhost:4318"
	}
	exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint+"/v1/traces"))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			attribute.String("deployment.environment", os.Getenv("DEPLOY_ENV")),
		),
	)
	if err != nil {
		return nil, err
	}
	tp := trace.NewTracerProvider(
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(0.2))),
		trace.WithBatcher(exp,
			trace.WithMaxExportBatchSize(512),
			trace.WithBatchTimeout(5*time.Second),
		),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	logger.Info("tracing initialized", zap.String("service", serviceName), zap.String("exporter", endpoint))
	return tp.Shutdown, nil
}

// StartStage opens a span named for a pipeline stage (fan_out, fuse, gate,
// rerank, expand, compress) so operators can correlate OTel traces with the
// corresponding events in a response's in-memory Trace log. Safe to call
// even when Init was never invoked: the no-op global tracer just returns a
// span that records nothing.
func StartStage(ctx context.Context, stage string, attrs ...attribute.KeyValue) (context.Context, oteltrace.Span) {
	tracer := otel.Tracer(instrumentationName)
	opts := []oteltrace.SpanStartOption{oteltrace.WithAttributes(attrs...)}
	return tracer.Start(ctx, "rag."+stage, opts...)
}
