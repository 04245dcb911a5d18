package otel

import (
	"context"
	"rental/config"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"google.golang.org/grpc/credentials/insecure"
)

type Otel interface {
	NewScope(ctx context.Context, scopeName, spanName string) (context.Context, Scope)
}

type provider struct {
	tracerProvider *trace.TracerProvider
}

func (p *provider) NewScope(ctx context.Context, scopeName, spanName string) (context.Context, Scope) {
	ctx, s := p.tracerProvider.Tracer(scopeName).Start(ctx, spanName)

	return ctx, NewScope(s)
}

// New installs the global tracer provider. Without an exporter endpoint spans are still
// created, so trace ids reach the logs, but nothing is shipped.
func New(cfg *config.Config) Otel {
	otelConfig := cfg.External.Otel

	options := []trace.TracerProviderOption{
		trace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(cfg.App.Name),
			semconv.DeploymentEnvironmentKey.String(cfg.Server.Env),
		)),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(otelConfig.SampleRatio))),
	}

	if exporter := newExporter(otelConfig.Endpoint, otelConfig.Insecure); exporter != nil {
		options = append(options, trace.WithBatcher(exporter))
	}

	tracerProvider := trace.NewTracerProvider(options...)

	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return &provider{tracerProvider: tracerProvider}
}

func newExporter(endpoint string, plaintext bool) trace.SpanExporter {
	if endpoint == "" {
		log.Warn().Msg("OTEL endpoint not configured, traces are not exported")

		return nil
	}

	options := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}
	if plaintext {
		options = append(options, otlptracegrpc.WithTLSCredentials(insecure.NewCredentials()))
	}

	exporter, err := otlptracegrpc.New(context.Background(), options...)
	if err != nil {
		log.Fatal().Err(err).Str("endpoint", endpoint).Msg("Failed to create OTLP exporter")
	}

	return exporter
}
