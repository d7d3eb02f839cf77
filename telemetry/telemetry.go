// Package telemetry sets up OpenTelemetry tracing for the server.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const serviceName = "muhabbet"

// Config holds the configuration for telemetry
type Config struct {
	Enabled        bool
	Endpoint       string // OTLP/HTTP base URL, e.g. http://localhost:4318
	ServiceVersion string
}

// Provider owns the process tracer provider. A disabled provider hands out
// no-op tracers.
type Provider struct {
	tp      *sdktrace.TracerProvider
	enabled bool
}

// New creates the provider and, when enabled, installs it as the global
// tracer provider.
func New(ctx context.Context, cfg Config, logger zerolog.Logger) (*Provider, error) {
	if !cfg.Enabled {
		logger.Debug().Msg("telemetry disabled")
		return &Provider{}, nil
	}

	var opts []otlptracehttp.Option
	if cfg.Endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpointURL(cfg.Endpoint))
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := newResource(ctx, cfg.ServiceVersion)
	if err != nil {
		return nil, err
	}

	tp := newTracerProvider(res, sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info().Str("endpoint", cfg.Endpoint).Msg("telemetry enabled")
	return &Provider{tp: tp, enabled: true}, nil
}

func newResource(ctx context.Context, version string) (*resource.Resource, error) {
	if version == "" {
		version = "dev"
	}
	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build telemetry resource: %w", err)
	}
	return res, nil
}

func newTracerProvider(res *resource.Resource, opts ...sdktrace.TracerProviderOption) *sdktrace.TracerProvider {
	opts = append(opts, sdktrace.WithResource(res))
	return sdktrace.NewTracerProvider(opts...)
}

// Enabled reports whether spans are exported.
func (p *Provider) Enabled() bool {
	return p.enabled
}

// Tracer returns a named tracer from this provider.
func (p *Provider) Tracer(name string) trace.Tracer {
	if !p.enabled {
		return noop.NewTracerProvider().Tracer(name)
	}
	return p.tp.Tracer(name)
}

// Shutdown flushes pending spans and stops the exporter.
func (p *Provider) Shutdown(ctx context.Context) error {
	if !p.enabled {
		return nil
	}
	return p.tp.Shutdown(ctx)
}
