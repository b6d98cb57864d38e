package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/JaimeStill/document-manager/pkg/lifecycle"
	"github.com/spf13/afero"
)

// filesystem implements System on an afero filesystem rooted at the storage
// base path. Keys map directly to relative file paths.
type filesystem struct {
	fs       afero.Fs
	basePath string
	logger   *slog.Logger
}

// NewFilesystem creates filesystem storage rooted at basePath on the host.
// Directory creation is deferred to Start.
func NewFilesystem(basePath string, logger *slog.Logger) (System, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base_path required")
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve base_path: %w", err)
	}

	return NewFilesystemFs(afero.NewBasePathFs(afero.NewOsFs(), absPath), absPath, logger), nil
}

// NewFilesystemFs creates filesystem storage over an existing afero.Fs whose
// root is the storage root. label is used for logging only.
func NewFilesystemFs(fsys afero.Fs, label string, logger *slog.Logger) System {
	return &filesystem{
		fs:       fsys,
		basePath: label,
		logger:   logger.With("system", "storage", "backend", BackendFilesystem),
	}
}

func (f *filesystem) Start(lc *lifecycle.Coordinator) error {
	f.logger.Info("starting storage system", "base_path", f.basePath)

	lc.OnStartup(func() {
		if err := f.fs.MkdirAll(".", 0755); err != nil {
			f.logger.Error("storage initialization failed", "error", err)
			return
		}
		f.logger.Info("storage directory initialized")
	})

	return nil
}

func (f *filesystem) Store(ctx context.Context, key string, data []byte) error {
	p, err := CleanKey(key)
	if err != nil {
		return err
	}

	if err := f.fs.MkdirAll(path.Dir(p), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp := p + ".tmp"
	if err := afero.WriteFile(f.fs, tmp, data, 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := f.fs.Rename(tmp, p); err != nil {
		f.fs.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}

func (f *filesystem) Retrieve(ctx context.Context, key string) ([]byte, error) {
	p, err := CleanKey(key)
	if err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(f.fs, p)
	if err != nil {
		return nil, mapFsError(err, "read file")
	}

	return data, nil
}

func (f *filesystem) Delete(ctx context.Context, key string) error {
	p, err := CleanKey(key)
	if err != nil {
		return err
	}

	if err := f.fs.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err) {
			return nil
		}
		return mapFsError(err, "remove file")
	}

	dir := path.Dir(p)
	if dir == "." {
		return nil
	}

	entries, err := afero.ReadDir(f.fs, dir)
	if err != nil {
		f.logger.Warn("failed to read directory for cleanup", "dir", dir, "error", err)
		return nil
	}

	if len(entries) == 0 {
		if err := f.fs.Remove(dir); err != nil && !os.IsNotExist(err) {
			f.logger.Warn("failed to remove empty directory", "dir", dir, "error", err)
		}
	}

	return nil
}

func (f *filesystem) Exists(ctx context.Context, key string) (bool, error) {
	p, err := CleanKey(key)
	if err != nil {
		return false, err
	}

	info, err := f.fs.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err) {
			return false, nil
		}
		return false, mapFsError(err, "stat file")
	}

	return !info.IsDir(), nil
}

func (f *filesystem) List(ctx context.Context, prefix string) ([]Object, error) {
	root := "."
	if prefix != "" {
		cleaned, err := CleanKey(prefix)
		if err != nil {
			return nil, err
		}
		root = cleaned
	}

	objects := make([]Object, 0)
	err := afero.Walk(f.fs, root, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if info.IsDir() || strings.HasSuffix(p, ".tmp") {
			return nil
		}

		objects = append(objects, Object{
			Key:        filepath.ToSlash(p),
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", root, err)
	}

	return objects, nil
}

func mapFsError(err error, op string) error {
	if errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err) {
		return ErrNotFound
	}
	if errors.Is(err, fs.ErrPermission) || os.IsPermission(err) {
		return ErrPermissionDenied
	}
	return fmt.Errorf("%s: %w", op, err)
}
