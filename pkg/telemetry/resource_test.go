package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildResourceCarriesServiceIdentity(t *testing.T) {
	res, err := buildResource(context.Background(), &Config{
		ServiceName:    "optinet",
		ServiceVersion: "1.2.3",
		ResourceAttrs:  map[string]string{"deployment.environment": "test"},
	})
	require.NoError(t, err)

	found := make(map[string]string)
	for _, attr := range res.Attributes() {
		found[string(attr.Key)] = attr.Value.Emit()
	}
	assert.Equal(t, "optinet", found["service.name"])
	assert.Equal(t, "1.2.3", found["service.version"])
	assert.Equal(t, "test", found["deployment.environment"])
}
