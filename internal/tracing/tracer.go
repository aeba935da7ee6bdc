// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package tracing

import (
	"context"

	"go.opentelemetry.io/contrib/propagators/jaeger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/canonical/organization-service/internal/logging"
)

const instrumentationName = "github.com/canonical/organization-service"

var _ TracingInterface = (*Tracer)(nil)

type Tracer struct {
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider

	logger logging.LoggerInterface
}

func sampler(ratio float64) sdktrace.Sampler {
	if ratio <= 0 || ratio >= 1 {
		return sdktrace.AlwaysSample()
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

func (t *Tracer) init(cfg *Config, e sdktrace.SpanExporter) {
	service := cfg.ServiceName
	if service == "" {
		service = defaultServiceName
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(e),
		sdktrace.WithSampler(sampler(cfg.SampleRatio)),
		sdktrace.WithResource(
			resource.NewSchemaless(
				attribute.String("service.name", service),
				attribute.String("service.version", cfg.ServiceVersion),
			),
		),
	)

	t.provider = tp
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			jaeger.Jaeger{},
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)
}

func (t *Tracer) Start(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, spanName, opts...)
}

// NewTracer sets the global tracer provider up. OTLP over gRPC wins over HTTP,
// and spans are written to stdout when neither endpoint is configured
func NewTracer(cfg *Config) *Tracer {
	t := new(Tracer)
	t.logger = cfg.Logger

	if !cfg.Enabled {
		t.tracer = noop.NewTracerProvider().Tracer(instrumentationName)
		return t
	}

	var err error
	var exporter sdktrace.SpanExporter

	switch {
	case cfg.OtelGRPCEndpoint != "":
		exporter, err = otlptracegrpc.New(
			context.TODO(),
			otlptracegrpc.WithEndpoint(cfg.OtelGRPCEndpoint),
			otlptracegrpc.WithInsecure(),
		)
	case cfg.OtelHTTPEndpoint != "":
		exporter, err = otlptracehttp.New(
			context.TODO(),
			otlptracehttp.WithEndpoint(cfg.OtelHTTPEndpoint),
			otlptracehttp.WithInsecure(),
		)
	default:
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	}

	if err != nil {
		t.logger.Errorf("unable to initialize tracing exporter, falling back to noop: %v", err)
		t.tracer = noop.NewTracerProvider().Tracer(instrumentationName)
		return t
	}

	t.init(cfg, exporter)
	t.tracer = otel.Tracer(instrumentationName)

	return t
}

// Shutdown flushes buffered spans; it is a no-op for noop tracers.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}

func NewNoopTracer() *Tracer {
	t := new(Tracer)
	t.tracer = noop.NewTracerProvider().Tracer(instrumentationName)
	t.logger = logging.NewNoopLogger()

	return t
}
