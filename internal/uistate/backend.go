package uistate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/tabzpay/progress-sub002/internal/storage"
)

// ErrNotExist is returned by a Backend when nothing is stored under a key.
var ErrNotExist = errors.New("ui state not found")

// Backend persists the durable preference blob.
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// FileBackend keeps one JSON file per key in a client-local directory.
type FileBackend struct {
	dir string
}

func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{dir: dir}
}

func (b *FileBackend) Load(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(b.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotExist
	}
	return data, err
}

// Save replaces the file atomically.
func (b *FileBackend) Save(_ context.Context, key string, data []byte) error {
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp, err := os.CreateTemp(b.dir, key+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), b.path(key))
}

func (b *FileBackend) path(key string) string {
	return filepath.Join(b.dir, key+".json")
}

// ObjectBackend keeps blobs in an object store bucket under a prefix.
type ObjectBackend struct {
	store  storage.DocumentStore
	prefix string
}

func NewObjectBackend(store storage.DocumentStore, prefix string) *ObjectBackend {
	return &ObjectBackend{store: store, prefix: prefix}
}

func (b *ObjectBackend) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := b.store.Read(ctx, b.objectKey(key))
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, ErrNotExist
	}
	return data, err
}

func (b *ObjectBackend) Save(ctx context.Context, key string, data []byte) error {
	return b.store.Write(ctx, b.objectKey(key), data)
}

func (b *ObjectBackend) objectKey(key string) string {
	return b.prefix + key + ".json"
}

// Scoped namespaces every key with a user id, so server-side backends keep
// one blob per user under the same fixed key.
func Scoped(backend Backend, userID int) Backend {
	return scoped{backend: backend, prefix: "user-" + strconv.Itoa(userID) + "-"}
}

type scoped struct {
	backend Backend
	prefix  string
}

func (s scoped) Load(ctx context.Context, key string) ([]byte, error) {
	return s.backend.Load(ctx, s.prefix+key)
}

func (s scoped) Save(ctx context.Context, key string, data []byte) error {
	return s.backend.Save(ctx, s.prefix+key, data)
}
