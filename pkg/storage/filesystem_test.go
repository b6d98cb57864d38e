package storage_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"testing"

	"github.com/JaimeStill/document-manager/pkg/lifecycle"
	"github.com/JaimeStill/document-manager/pkg/storage"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func memStore(t *testing.T) (storage.System, afero.Fs) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	return storage.NewFilesystemFs(fsys, "mem", testLogger()), fsys
}

func TestFilesystem_StoreRetrieve(t *testing.T) {
	ctx := context.Background()
	store, fsys := memStore(t)

	key := "files/0b6f/report.pdf"
	require.NoError(t, store.Store(ctx, key, []byte("%PDF-1.7")))

	data, err := store.Retrieve(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(data))

	tmpExists, err := afero.Exists(fsys, key+".tmp")
	require.NoError(t, err)
	assert.False(t, tmpExists, "temp file left behind")
}

func TestFilesystem_StoreOverwrites(t *testing.T) {
	ctx := context.Background()
	store, _ := memStore(t)

	require.NoError(t, store.Store(ctx, "files/a/notes.txt", []byte("v1")))
	require.NoError(t, store.Store(ctx, "files/a/notes.txt", []byte("v2")))

	data, err := store.Retrieve(ctx, "files/a/notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}

func TestFilesystem_RetrieveMissing(t *testing.T) {
	store, _ := memStore(t)

	_, err := store.Retrieve(context.Background(), "files/missing/file.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFilesystem_DeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, fsys := memStore(t)

	require.NoError(t, store.Store(ctx, "files/abc/scan.png", []byte("png")))
	require.NoError(t, store.Delete(ctx, "files/abc/scan.png"))

	exists, err := store.Exists(ctx, "files/abc/scan.png")
	require.NoError(t, err)
	assert.False(t, exists)

	dirExists, err := afero.DirExists(fsys, "files/abc")
	require.NoError(t, err)
	assert.False(t, dirExists, "empty parent directory should be removed")

	assert.NoError(t, store.Delete(ctx, "files/abc/scan.png"))
}

func TestFilesystem_DeleteKeepsNonEmptyDirectory(t *testing.T) {
	ctx := context.Background()
	store, fsys := memStore(t)

	require.NoError(t, store.Store(ctx, "files/abc/one.txt", []byte("1")))
	require.NoError(t, store.Store(ctx, "files/abc/two.txt", []byte("2")))
	require.NoError(t, store.Delete(ctx, "files/abc/one.txt"))

	dirExists, err := afero.DirExists(fsys, "files/abc")
	require.NoError(t, err)
	assert.True(t, dirExists)
}

func TestFilesystem_Exists(t *testing.T) {
	ctx := context.Background()
	store, _ := memStore(t)

	require.NoError(t, store.Store(ctx, "files/x/a.txt", []byte("a")))

	exists, err := store.Exists(ctx, "files/x/a.txt")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.Exists(ctx, "files/x")
	require.NoError(t, err)
	assert.False(t, exists, "directories are not blobs")

	exists, err = store.Exists(ctx, "files/y/b.txt")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFilesystem_List(t *testing.T) {
	ctx := context.Background()
	store, _ := memStore(t)

	require.NoError(t, store.Store(ctx, "files/1/a.txt", []byte("a")))
	require.NoError(t, store.Store(ctx, "files/2/b.txt", []byte("bb")))
	require.NoError(t, store.Store(ctx, "exports/c.txt", []byte("c")))

	objects, err := store.List(ctx, "files")
	require.NoError(t, err)

	keys := make([]string, len(objects))
	for i, o := range objects {
		keys[i] = o.Key
	}
	sort.Strings(keys)

	assert.Equal(t, []string{"files/1/a.txt", "files/2/b.txt"}, keys)
}

func TestFilesystem_ListMissingPrefix(t *testing.T) {
	store, _ := memStore(t)

	objects, err := store.List(context.Background(), "files")
	require.NoError(t, err)
	assert.Empty(t, objects)
}

func TestFilesystem_InvalidKeys(t *testing.T) {
	ctx := context.Background()
	store, _ := memStore(t)

	for _, key := range []string{"", "/etc/passwd", "../secret", "files/../../secret", "..", `files\a`} {
		t.Run(key, func(t *testing.T) {
			assert.ErrorIs(t, store.Store(ctx, key, []byte("x")), storage.ErrInvalidKey)

			_, err := store.Retrieve(ctx, key)
			assert.ErrorIs(t, err, storage.ErrInvalidKey)

			assert.ErrorIs(t, store.Delete(ctx, key), storage.ErrInvalidKey)

			_, err = store.Exists(ctx, key)
			assert.ErrorIs(t, err, storage.ErrInvalidKey)
		})
	}
}

func TestCleanKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"files/a/b.txt", "files/a/b.txt"},
		{"files//a/./b.txt", "files/a/b.txt"},
		{"files/a/../b.txt", "files/b.txt"},
	}

	for _, tt := range tests {
		got, err := storage.CleanKey(tt.key)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestNewFilesystem_OnDisk(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "blobs")

	store, err := storage.NewFilesystem(base, testLogger())
	require.NoError(t, err)

	lc := lifecycle.New()
	require.NoError(t, store.Start(lc))
	lc.WaitForStartup()

	assert.DirExists(t, base)

	ctx := context.Background()
	require.NoError(t, store.Store(ctx, "files/id/doc.txt", []byte("hello")))
	assert.FileExists(t, filepath.Join(base, "files", "id", "doc.txt"))
}

func TestNewFilesystem_EmptyBasePath(t *testing.T) {
	_, err := storage.NewFilesystem("", testLogger())
	assert.Error(t, err)
}

func TestErrors_Messages(t *testing.T) {
	assert.EqualError(t, storage.ErrNotFound, "storage: key not found")
	assert.EqualError(t, storage.ErrPermissionDenied, "storage: permission denied")
	assert.EqualError(t, storage.ErrInvalidKey, "storage: invalid key")
}
