// Package telemetry provides the OpenTelemetry-backed implementation
// of the client's tracing port. It stays optional: components receive
// the core.Telemetry interface and default to a no-op when tracing is
// disabled.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/dani-agudelo/conexion-campesina-go/core"
)

// Provider implements core.Telemetry over an OpenTelemetry tracer.
type Provider struct {
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
	logger   core.Logger
}

// Options configures the telemetry provider.
type Options struct {
	// ServiceName identifies this client in exported spans.
	ServiceName string
	// Endpoint is an OTLP gRPC collector address. When set (and
	// Exporter is nil) spans ship there over an insecure channel.
	Endpoint string
	// Exporter overrides the span exporter; when nil, spans go to
	// the Endpoint collector, or to stdout in development-friendly
	// form when no Endpoint is configured either.
	Exporter sdktrace.SpanExporter
	// Logger receives provider lifecycle messages.
	Logger core.Logger
}

// New creates a telemetry provider and installs it as the global
// OpenTelemetry tracer provider.
func New(opts Options) (*Provider, error) {
	if opts.ServiceName == "" {
		opts.ServiceName = "conexion-campesina"
	}
	if opts.Logger == nil {
		opts.Logger = &core.NoOpLogger{}
	}

	exporter := opts.Exporter
	if exporter == nil {
		var err error
		if opts.Endpoint != "" {
			exporter, err = otlptracegrpc.New(context.Background(),
				otlptracegrpc.WithEndpoint(opts.Endpoint),
				otlptracegrpc.WithInsecure(),
			)
			if err != nil {
				return nil, fmt.Errorf("creating OTLP exporter: %w", err)
			}
		} else {
			exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
			if err != nil {
				return nil, fmt.Errorf("creating stdout exporter: %w", err)
			}
		}
	}

	res, err := sdkresource.Merge(
		sdkresource.Default(),
		sdkresource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(opts.ServiceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("building resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	opts.Logger.Info("Telemetry initialized", map[string]interface{}{
		"service":  opts.ServiceName,
		"endpoint": opts.Endpoint,
	})

	return &Provider{
		tracer:   tp.Tracer(opts.ServiceName),
		provider: tp,
		logger:   opts.Logger,
	}, nil
}

// StartSpan begins a span and returns a context carrying it.
func (p *Provider) StartSpan(ctx context.Context, name string) (context.Context, core.Span) {
	ctx, span := p.tracer.Start(ctx, name)
	return ctx, &otelSpan{span: span}
}

// RecordMetric logs a measurement. The client exports traces only;
// dedicated metric pipelines belong to the backend.
func (p *Provider) RecordMetric(name string, value float64, labels map[string]string) {
	fields := map[string]interface{}{
		"metric": name,
		"value":  value,
	}
	for k, v := range labels {
		fields[k] = v
	}
	p.logger.Debug("Metric recorded", fields)
}

// Shutdown flushes pending spans. Call it on process exit.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.provider.Shutdown(ctx)
}

// otelSpan adapts an OpenTelemetry span to the core.Span port.
type otelSpan struct {
	span trace.Span
}

func (s *otelSpan) End() {
	s.span.End()
}

func (s *otelSpan) SetAttribute(key string, value interface{}) {
	switch v := value.(type) {
	case string:
		s.span.SetAttributes(attribute.String(key, v))
	case int:
		s.span.SetAttributes(attribute.Int(key, v))
	case int64:
		s.span.SetAttributes(attribute.Int64(key, v))
	case float64:
		s.span.SetAttributes(attribute.Float64(key, v))
	case bool:
		s.span.SetAttributes(attribute.Bool(key, v))
	default:
		s.span.SetAttributes(attribute.String(key, fmt.Sprintf("%v", v)))
	}
}

func (s *otelSpan) RecordError(err error) {
	if err == nil {
		return
	}
	s.span.RecordError(err)
}
