// Package observability wires tracing and the domain-level Prometheus
// collectors. Tracing is exported over OTLP/gRPC when enabled; outbound
// calls to WordPress and Gemini are traced through NewHTTPClient, and GORM
// queries through the plugin registered in repo.OpenSQLite.
package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"google.golang.org/grpc/credentials"

	"github.com/tbourn/wp-category-assistant/internal/config"
)

// Test seams.
var (
	newOTLPClient = otlptracegrpc.NewClient

	newOTLPExporterFn = func(ctx context.Context, client otlptrace.Client) (*otlptrace.Exporter, error) {
		return otlptrace.New(ctx, client)
	}

	newServiceResourceFn = func(ctx context.Context, serviceName, version string) (*resource.Resource, error) {
		return resource.New(
			ctx,
			resource.WithAttributes(
				semconv.ServiceName(serviceName),
				semconv.ServiceVersion(version),
			),
		)
	}
)

// SetupOTel installs a global tracer provider and W3C propagators and returns
// the provider's shutdown function. When tracing is disabled it returns a
// no-op shutdown and leaves the globals untouched.
func SetupOTel(ctx context.Context, cfg config.OTELConfig, version string) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	exp, err := newOTLPExporterFn(ctx, newOTLPClient(clientOptions(cfg)...))
	if err != nil {
		return nil, err
	}
	res, err := newServiceResourceFn(ctx, cfg.ServiceName, version)
	if err != nil {
		_ = exp.Shutdown(ctx)
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	return tp.Shutdown, nil
}

func clientOptions(cfg config.OTELConfig) []otlptracegrpc.Option {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if creds := transportCredentials(cfg); creds != nil {
		return append(opts, otlptracegrpc.WithTLSCredentials(creds))
	}
	return append(opts, otlptracegrpc.WithInsecure())
}

// transportCredentials returns the TLS credentials for the collector
// connection, or nil for a plaintext one.
func transportCredentials(cfg config.OTELConfig) credentials.TransportCredentials {
	if cfg.Insecure {
		return nil
	}
	return credentials.NewClientTLSFromCert(nil, "")
}
