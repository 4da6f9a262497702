package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "flatci"

// TracingConfig selects the trace exporter.
type TracingConfig struct {
	ServiceVersion string
	OTLPEndpoint   string
	OTLPInsecure   bool
}

// Tracing holds the tracer and the function flushing pending spans.
type Tracing struct {
	Tracer   trace.Tracer
	Shutdown func(ctx context.Context) error
}

// InitTracing installs the global tracer provider. With no OTLP endpoint a
// no-op provider is used and nothing is exported.
func InitTracing(ctx context.Context, cfg TracingConfig) (Tracing, error) {
	if cfg.OTLPEndpoint == "" {
		tp := nooptrace.NewTracerProvider()
		otel.SetTracerProvider(tp)
		return Tracing{
			Tracer:   tp.Tracer(tracerName),
			Shutdown: func(context.Context) error { return nil },
		}, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if cfg.OTLPInsecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exp, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return Tracing{}, fmt.Errorf("create otlp trace exporter: %w", err)
	}

	attrs := []resource.Option{resource.WithAttributes(semconv.ServiceName(tracerName))}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, resource.WithAttributes(semconv.ServiceVersion(cfg.ServiceVersion)))
	}
	res, err := resource.New(ctx, attrs...)
	if err != nil {
		return Tracing{}, fmt.Errorf("build otel resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return Tracing{Tracer: tp.Tracer(tracerName), Shutdown: tp.Shutdown}, nil
}
