// Package storage provides blob storage for uploaded file content.
// A System stores opaque byte blobs by slash-separated key; backends exist
// for the local filesystem, S3-compatible object stores, and WebDAV servers.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/JaimeStill/document-manager/pkg/lifecycle"
)

// Object describes a stored blob returned by List.
type Object struct {
	Key        string
	Size       int64
	ModifiedAt time.Time
}

// System defines the blob storage operations shared by every backend.
type System interface {
	// Store saves data at key, overwriting any existing blob.
	// Returns ErrInvalidKey if the key is empty or escapes the storage root.
	Store(ctx context.Context, key string, data []byte) error

	// Retrieve returns the blob stored at key, or ErrNotFound.
	Retrieve(ctx context.Context, key string) ([]byte, error)

	// Delete removes the blob at key. Deleting a missing key returns nil.
	Delete(ctx context.Context, key string) error

	// Exists reports whether a blob is stored at key.
	Exists(ctx context.Context, key string) (bool, error)

	// List returns every blob whose key begins with prefix.
	List(ctx context.Context, prefix string) ([]Object, error)

	// Start registers lifecycle hooks with the coordinator.
	Start(lc *lifecycle.Coordinator) error
}

// New creates the System selected by cfg.Backend.
func New(ctx context.Context, cfg *Config, logger *slog.Logger) (System, error) {
	switch cfg.Backend {
	case BackendFilesystem:
		return NewFilesystem(cfg.BasePath, logger)
	case BackendS3:
		return NewS3(ctx, &cfg.S3, logger)
	case BackendWebDAV:
		return NewWebDAV(&cfg.WebDAV, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}

// CleanKey normalizes a storage key and rejects empty, absolute, or
// parent-relative keys.
func CleanKey(key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}

	if strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}

	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidKey
	}

	return cleaned, nil
}
