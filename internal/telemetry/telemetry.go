// Package telemetry builds the OpenTelemetry TracerProvider backing C8's
// phase-transition spans and C9's request spans. Exporter selection is
// configuration-driven (otlp/jaeger/zipkin/none), mirroring the teacher's
// pattern of keeping observability wiring out of business logic and behind
// a single Setup call from bootstrap.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	runtimeconfig "autotundra/internal/shared/config"
)

// Shutdown flushes and stops the TracerProvider; callers defer it from
// bootstrap.Run.
type Shutdown func(context.Context) error

// Setup builds a TracerProvider per cfg.Tracing.Exporter and installs it as
// the global provider. An exporter of "" or "none" yields a no-op tracer,
// so every call site can unconditionally instrument without a nil check.
func Setup(cfg runtimeconfig.Tracing) (trace.Tracer, Shutdown, error) {
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "autotundra"
	}

	switch cfg.Exporter {
	case "", "none":
		return otel.Tracer(serviceName), func(context.Context) error { return nil }, nil

	case "otlp":
		return buildProvider(serviceName, func(ctx context.Context) (sdktrace.SpanExporter, error) {
			opts := []otlptracehttp.Option{}
			if cfg.Endpoint != "" {
				opts = append(opts, otlptracehttp.WithEndpoint(cfg.Endpoint))
			}
			return otlptracehttp.New(ctx, opts...)
		})

	case "jaeger":
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = "http://localhost:14268/api/traces"
		}
		return buildProvider(serviceName, func(ctx context.Context) (sdktrace.SpanExporter, error) {
			return jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(endpoint)))
		})

	case "zipkin":
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = "http://localhost:9411/api/v2/spans"
		}
		return buildProvider(serviceName, func(ctx context.Context) (sdktrace.SpanExporter, error) {
			return zipkin.New(endpoint)
		})

	default:
		return nil, nil, fmt.Errorf("telemetry: unknown exporter %q", cfg.Exporter)
	}
}

func buildProvider(serviceName string, newExporter func(context.Context) (sdktrace.SpanExporter, error)) (trace.Tracer, Shutdown, error) {
	ctx := context.Background()
	exp, err := newExporter(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("telemetry: build exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return nil, nil, fmt.Errorf("telemetry: build resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Tracer(serviceName), tp.Shutdown, nil
}
