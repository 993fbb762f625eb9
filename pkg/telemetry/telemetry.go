// Package telemetry wires the standard OpenTelemetry environment
// contract into a global TracerProvider. Tracing is off unless
// OTEL_ENABLED=true; when on, the reduction service's per-job spans
// (gas used, rewrite histogram, final status) flow to the configured
// OTLP collector over gRPC or HTTP.
//
// Recognized environment variables:
//
//	OTEL_ENABLED                 - enable tracing (default: false)
//	OTEL_SERVICE_NAME            - service name (default: optinet)
//	OTEL_SERVICE_VERSION         - service version (default: unknown)
//	OTEL_EXPORTER_OTLP_ENDPOINT  - OTLP collector endpoint
//	OTEL_EXPORTER_OTLP_PROTOCOL  - grpc or http/protobuf (default: grpc)
//	OTEL_EXPORTER_OTLP_HEADERS   - k1=v1,k2=v2 headers (auth tokens etc.)
//	OTEL_EXPORTER_OTLP_INSECURE  - plaintext transport (default: false)
//	OTEL_TRACES_SAMPLER          - sampler name (default: always_on)
//	OTEL_TRACES_SAMPLER_ARG      - sampler argument (ratio)
//	OTEL_RESOURCE_ATTRIBUTES     - extra resource attributes, k=v pairs
package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/trace"
)

var (
	globalConfig *Config
	configOnce   sync.Once
)

// ShutdownFunc flushes and tears down the TracerProvider.
type ShutdownFunc func(ctx context.Context) error

func noopShutdown(context.Context) error { return nil }

// Init reads the environment, and if tracing is enabled installs a
// batching OTLP TracerProvider as the otel global. The returned
// ShutdownFunc must be called on exit to flush pending spans; when
// tracing is disabled it is a no-op and the default (no-op) provider
// stays in place.
func Init(ctx context.Context) (ShutdownFunc, error) {
	cfg := loadConfig()
	if !cfg.Enabled {
		return noopShutdown, nil
	}

	res, err := buildResource(ctx, cfg)
	if err != nil {
		return noopShutdown, err
	}

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return noopShutdown, err
	}

	tp := trace.NewTracerProvider(
		trace.WithResource(res),
		trace.WithBatcher(exporter),
		trace.WithSampler(newSampler(cfg)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Shutdown, nil
}

// Enabled reports whether OTEL_ENABLED switched tracing on.
func Enabled() bool {
	return loadConfig().Enabled
}

// GetConfig returns the environment-derived telemetry configuration.
func GetConfig() *Config {
	return loadConfig()
}

func loadConfig() *Config {
	configOnce.Do(func() {
		globalConfig = LoadFromEnv()
	})
	return globalConfig
}
