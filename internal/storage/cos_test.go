package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optinet/optinet/pkg/config"
)

func validCOSConfig() *COSConfig {
	return &COSConfig{
		Bucket:    "optinet-artifacts-1250000000",
		Region:    "ap-guangzhou",
		SecretID:  "test-id",
		SecretKey: "test-key",
	}
}

func TestNewCOSStoreRequiresSettings(t *testing.T) {
	cfg := validCOSConfig()
	cfg.Bucket = ""
	_, err := NewCOSStore(cfg)
	assert.Error(t, err)

	cfg = validCOSConfig()
	cfg.SecretKey = ""
	_, err = NewCOSStore(cfg)
	assert.Error(t, err)
}

func TestCOSStoreGetURLDefaults(t *testing.T) {
	store, err := NewCOSStore(validCOSConfig())
	require.NoError(t, err)

	url := store.GetURL("job-1/normal_form.lc")
	assert.Equal(t,
		"https://optinet-artifacts-1250000000.cos.ap-guangzhou.myqcloud.com/job-1/normal_form.lc",
		url)
}

func TestCOSStoreGetURLCustomDomainAndScheme(t *testing.T) {
	cfg := validCOSConfig()
	cfg.Domain = "example.internal"
	cfg.Scheme = "http"
	store, err := NewCOSStore(cfg)
	require.NoError(t, err)

	url := store.GetURL("k")
	assert.Equal(t, "http://optinet-artifacts-1250000000.cos.ap-guangzhou.example.internal/k", url)
}

func TestValidateConfig(t *testing.T) {
	assert.Error(t, ValidateConfig(nil))

	assert.NoError(t, ValidateConfig(&config.StorageConfig{Type: "local", LocalPath: "/tmp/a"}))
	assert.Error(t, ValidateConfig(&config.StorageConfig{Type: "local"}))

	assert.Error(t, ValidateConfig(&config.StorageConfig{Type: "cos", Bucket: "b"}))
	assert.NoError(t, ValidateConfig(&config.StorageConfig{
		Type: "cos", Bucket: "b", Region: "r", SecretID: "i", SecretKey: "k",
	}))

	assert.Error(t, ValidateConfig(&config.StorageConfig{Type: "s3"}))
}

func TestNewSelectsBackend(t *testing.T) {
	store, err := New(&config.StorageConfig{Type: "local", LocalPath: t.TempDir()})
	require.NoError(t, err)
	_, ok := store.(*LocalStore)
	assert.True(t, ok)

	store, err = New(&config.StorageConfig{
		Type: "cos", Bucket: "b", Region: "r", SecretID: "i", SecretKey: "k",
	})
	require.NoError(t, err)
	_, ok = store.(*COSStore)
	assert.True(t, ok)
}
