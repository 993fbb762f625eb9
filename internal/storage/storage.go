// Package storage archives job artifacts — submitted programs and
// their rendered normal forms — as opaque blobs keyed by job UUID,
// behind a backend-neutral interface with filesystem and Tencent COS
// implementations.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/optinet/optinet/pkg/config"
)

// ArtifactStore is the archival surface the reduction service writes
// through. Keys are slash-separated paths ("<job-uuid>/program.lc").
type ArtifactStore interface {
	// Upload stores the reader's content at key, replacing any
	// existing object.
	Upload(ctx context.Context, key string, reader io.Reader) error

	// UploadFile stores the file at localPath under key.
	UploadFile(ctx context.Context, key string, localPath string) error

	// Download opens the object at key for reading; the caller closes
	// the returned reader.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// DownloadFile copies the object at key into localPath.
	DownloadFile(ctx context.Context, key string, localPath string) error

	// Delete removes the object at key; deleting a missing object is
	// not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether an object is stored at key.
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL renders a retrievable location for key: a public URL for
	// remote backends, a filesystem path for the local one.
	GetURL(key string) string
}

// BackendType names a storage backend.
type BackendType string

const (
	BackendLocal BackendType = "local"
	BackendCOS   BackendType = "cos"
)

// New builds the ArtifactStore the configuration selects, defaulting
// to the local filesystem backend.
func New(cfg *config.StorageConfig) (ArtifactStore, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	switch BackendType(cfg.Type) {
	case BackendCOS:
		return NewCOSStore(&COSConfig{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
			Domain:    cfg.Domain,
			Scheme:    cfg.Scheme,
		})
	default:
		return NewLocalStore(cfg.LocalPath)
	}
}

// ValidateConfig rejects configurations whose selected backend is
// missing required settings. An empty Type means local.
func ValidateConfig(cfg *config.StorageConfig) error {
	if cfg == nil {
		return fmt.Errorf("storage config is nil")
	}

	backend := BackendType(cfg.Type)
	if backend == "" {
		backend = BackendLocal
	}

	switch backend {
	case BackendLocal:
		if cfg.LocalPath == "" {
			return fmt.Errorf("local storage path is required")
		}
	case BackendCOS:
		if cfg.Bucket == "" {
			return fmt.Errorf("COS bucket is required")
		}
		if cfg.Region == "" {
			return fmt.Errorf("COS region is required")
		}
		if cfg.SecretID == "" || cfg.SecretKey == "" {
			return fmt.Errorf("COS credentials are required")
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}

	return nil
}
