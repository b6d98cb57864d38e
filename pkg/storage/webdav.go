package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/JaimeStill/document-manager/pkg/lifecycle"
	"github.com/studio-b12/gowebdav"
)

// DAVClient is the subset of the gowebdav client used by the webdav backend.
type DAVClient interface {
	Connect() error
	Write(path string, data []byte, perm os.FileMode) error
	Read(path string) ([]byte, error)
	Remove(path string) error
	Stat(path string) (os.FileInfo, error)
	ReadDir(path string) ([]os.FileInfo, error)
	MkdirAll(path string, perm os.FileMode) error
}

type webdavStore struct {
	client DAVClient
	root   string
	logger *slog.Logger
}

// NewWebDAV creates storage on a WebDAV server.
func NewWebDAV(cfg *WebDAVConfig, logger *slog.Logger) (System, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("webdav.url required")
	}

	client := gowebdav.NewClient(cfg.URL, cfg.User, cfg.Password)
	return NewWebDAVClient(client, cfg.Root, logger), nil
}

// NewWebDAVClient creates WebDAV storage over an existing client with keys
// stored below root.
func NewWebDAVClient(client DAVClient, root string, logger *slog.Logger) System {
	if root == "" {
		root = "/"
	}
	return &webdavStore{
		client: client,
		root:   path.Clean("/" + root),
		logger: logger.With("system", "storage", "backend", BackendWebDAV),
	}
}

func (w *webdavStore) Start(lc *lifecycle.Coordinator) error {
	w.logger.Info("starting storage system", "root", w.root)

	lc.OnStartup(func() {
		if err := w.client.Connect(); err != nil {
			w.logger.Error("webdav connection failed", "error", err)
			return
		}
		if err := w.client.MkdirAll(w.root, 0755); err != nil {
			w.logger.Error("storage initialization failed", "error", err)
			return
		}
		w.logger.Info("storage root initialized")
	})

	return nil
}

func (w *webdavStore) Store(ctx context.Context, key string, data []byte) error {
	p, err := w.remotePath(key)
	if err != nil {
		return err
	}

	if err := w.client.MkdirAll(path.Dir(p), 0755); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	if err := w.client.Write(p, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}

	return nil
}

func (w *webdavStore) Retrieve(ctx context.Context, key string) ([]byte, error) {
	p, err := w.remotePath(key)
	if err != nil {
		return nil, err
	}

	data, err := w.client.Read(p)
	if err != nil {
		if gowebdav.IsErrNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	return data, nil
}

func (w *webdavStore) Delete(ctx context.Context, key string) error {
	p, err := w.remotePath(key)
	if err != nil {
		return err
	}

	if err := w.client.Remove(p); err != nil && !gowebdav.IsErrNotFound(err) {
		return fmt.Errorf("remove %s: %w", key, err)
	}

	return nil
}

func (w *webdavStore) Exists(ctx context.Context, key string) (bool, error) {
	p, err := w.remotePath(key)
	if err != nil {
		return false, err
	}

	info, err := w.client.Stat(p)
	if err != nil {
		if gowebdav.IsErrNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", key, err)
	}

	return !info.IsDir(), nil
}

func (w *webdavStore) List(ctx context.Context, prefix string) ([]Object, error) {
	start := w.root
	if prefix != "" {
		p, err := w.remotePath(prefix)
		if err != nil {
			return nil, err
		}
		start = p
	}

	objects := make([]Object, 0)
	if err := w.walk(ctx, start, &objects); err != nil {
		if gowebdav.IsErrNotFound(err) {
			return objects, nil
		}
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}

	return objects, nil
}

func (w *webdavStore) walk(ctx context.Context, dir string, objects *[]Object) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := w.client.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		p := path.Join(dir, entry.Name())
		if entry.IsDir() {
			if err := w.walk(ctx, p, objects); err != nil {
				return err
			}
			continue
		}

		*objects = append(*objects, Object{
			Key:        strings.TrimPrefix(strings.TrimPrefix(p, w.root), "/"),
			Size:       entry.Size(),
			ModifiedAt: entry.ModTime(),
		})
	}

	return nil
}

func (w *webdavStore) remotePath(key string) (string, error) {
	cleaned, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	return path.Join(w.root, cleaned), nil
}
