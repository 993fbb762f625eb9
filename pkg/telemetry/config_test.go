package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	// t.Setenv wipes nothing, so explicitly blank the variables that
	// might leak in from the host environment.
	for _, key := range []string{
		"OTEL_ENABLED", "OTEL_SERVICE_NAME", "OTEL_SERVICE_VERSION",
		"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_PROTOCOL",
		"OTEL_EXPORTER_OTLP_HEADERS", "OTEL_EXPORTER_OTLP_INSECURE",
		"OTEL_TRACES_SAMPLER", "OTEL_TRACES_SAMPLER_ARG",
		"OTEL_RESOURCE_ATTRIBUTES",
	} {
		t.Setenv(key, "")
	}

	cfg := LoadFromEnv()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "optinet", cfg.ServiceName)
	assert.Equal(t, "unknown", cfg.ServiceVersion)
	assert.Equal(t, "grpc", cfg.Protocol)
	assert.Empty(t, cfg.Headers)
	assert.False(t, cfg.Insecure)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "TRUE")
	t.Setenv("OTEL_SERVICE_NAME", "optinet-staging")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "https://collector:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "http/protobuf")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "true")
	t.Setenv("OTEL_TRACES_SAMPLER", "traceidratio")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.25")

	cfg := LoadFromEnv()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "optinet-staging", cfg.ServiceName)
	assert.Equal(t, "https://collector:4317", cfg.Endpoint)
	assert.Equal(t, "http/protobuf", cfg.Protocol)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, "traceidratio", cfg.Sampler)
	assert.Equal(t, "0.25", cfg.SamplerArg)
}

func TestParsePairs(t *testing.T) {
	pairs := parsePairs("Authorization=Bearer abc=def, team = runtime ,broken,=orphan")
	assert.Equal(t, "Bearer abc=def", pairs["Authorization"])
	assert.Equal(t, "runtime", pairs["team"])
	assert.Len(t, pairs, 2)

	assert.Empty(t, parsePairs(""))
}
