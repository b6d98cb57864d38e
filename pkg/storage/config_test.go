package storage_test

import (
	"testing"

	"github.com/JaimeStill/document-manager/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Finalize_Defaults(t *testing.T) {
	cfg := &storage.Config{}
	require.NoError(t, cfg.Finalize(nil))

	assert.Equal(t, storage.BackendFilesystem, cfg.Backend)
	assert.Equal(t, ".data/blobs", cfg.BasePath)
	assert.Equal(t, "100MB", cfg.MaxUploadSize)
	assert.Equal(t, int64(100_000_000), cfg.MaxUploadSizeBytes())
	assert.Equal(t, "us-east-1", cfg.S3.Region)
}

func TestConfig_Finalize_EnvOverrides(t *testing.T) {
	t.Setenv("TEST_STORAGE_BACKEND", "s3")
	t.Setenv("TEST_STORAGE_BUCKET", "documents")
	t.Setenv("TEST_STORAGE_PATH_STYLE", "true")
	t.Setenv("TEST_STORAGE_MAX", "5MB")

	cfg := &storage.Config{}
	env := &storage.Env{
		Backend:        "TEST_STORAGE_BACKEND",
		S3Bucket:       "TEST_STORAGE_BUCKET",
		S3UsePathStyle: "TEST_STORAGE_PATH_STYLE",
		MaxUploadSize:  "TEST_STORAGE_MAX",
	}
	require.NoError(t, cfg.Finalize(env))

	assert.Equal(t, storage.BackendS3, cfg.Backend)
	assert.Equal(t, "documents", cfg.S3.Bucket)
	assert.True(t, cfg.S3.UsePathStyle)
	assert.Equal(t, int64(5_000_000), cfg.MaxUploadSizeBytes())
}

func TestConfig_Finalize_Invalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  storage.Config
	}{
		{"unknown backend", storage.Config{Backend: "ftp"}},
		{"s3 without bucket", storage.Config{Backend: storage.BackendS3}},
		{"s3 partial credentials", storage.Config{Backend: storage.BackendS3, S3: storage.S3Config{Bucket: "b", AccessKeyID: "id"}}},
		{"webdav without url", storage.Config{Backend: storage.BackendWebDAV}},
		{"bad upload size", storage.Config{MaxUploadSize: "lots"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.cfg.Finalize(nil))
		})
	}
}

func TestConfig_Merge(t *testing.T) {
	base := storage.Config{BasePath: ".data/blobs", MaxUploadSize: "100MB"}
	base.Merge(&storage.Config{
		Backend:       storage.BackendWebDAV,
		MaxUploadSize: "10MB",
		WebDAV:        storage.WebDAVConfig{URL: "https://dav.example.com", User: "docs"},
	})

	assert.Equal(t, storage.BackendWebDAV, base.Backend)
	assert.Equal(t, ".data/blobs", base.BasePath)
	assert.Equal(t, "10MB", base.MaxUploadSize)
	assert.Equal(t, int64(10_000_000), base.MaxUploadSizeBytes())
	assert.Equal(t, "https://dav.example.com", base.WebDAV.URL)
	assert.Equal(t, "docs", base.WebDAV.User)
}
