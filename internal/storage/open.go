package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrMissingCredential is returned when the selected backend has no credential configured.
var ErrMissingCredential = errors.New("storage credential not configured")

const (
	BackendAzure = "azure"
	BackendS3    = "s3"
	BackendMinIO = "minio"
	BackendLocal = "local"
)

// Options selects and configures a backend. Only the fields of the selected
// backend are consulted.
type Options struct {
	Backend               string
	AzureConnectionString string
	MinIO                 MinIOConfig
	LocalRoot             string
}

// Open builds the ObjectStore for opts.Backend.
func Open(ctx context.Context, opts Options) (ObjectStore, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case BackendAzure, "":
		if strings.TrimSpace(opts.AzureConnectionString) == "" {
			return nil, fmt.Errorf("azure: %w", ErrMissingCredential)
		}
		return NewAzure(opts.AzureConnectionString)
	case BackendS3:
		return NewS3(ctx)
	case BackendMinIO:
		if opts.MinIO.AccessKey == "" || opts.MinIO.SecretKey == "" {
			return nil, fmt.Errorf("minio: %w", ErrMissingCredential)
		}
		return NewMinIO(opts.MinIO)
	case BackendLocal:
		if opts.LocalRoot == "" {
			return nil, errors.New("local: root directory is required")
		}
		return NewLocal(opts.LocalRoot)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", opts.Backend)
	}
}
