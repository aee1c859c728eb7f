// Package storage keeps small JSON documents (UI preferences) in an object
// store bucket: MinIO or Google Cloud Storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/tabzpay/progress-sub002/config"
)

const (
	DriverLocal = "local"
	DriverMinio = "minio"
	DriverGCS   = "gcs"

	contentTypeJSON = "application/json"
	cacheControl    = "no-store"
)

// MaxDocumentSize caps what Read accepts from the bucket.
const MaxDocumentSize = 64 << 10

var (
	// ErrObjectNotFound is returned by Read when the key does not exist.
	ErrObjectNotFound = errors.New("object not found")
	ErrTooLarge       = fmt.Errorf("object larger than %d bytes", MaxDocumentSize)
)

// DocumentStore reads and writes whole JSON documents in one bucket.
type DocumentStore interface {
	EnsureBucket(ctx context.Context) error
	Write(ctx context.Context, key string, data []byte) error
	Read(ctx context.Context, key string) ([]byte, error)
	Bucket() string
}

// Open connects to the object store selected by cfg.Driver and makes sure
// its bucket exists. The local driver has no object store and yields nil.
func Open(ctx context.Context, cfg config.StorageConfig) (DocumentStore, error) {
	var (
		store DocumentStore
		err   error
	)
	switch cfg.Driver {
	case "", DriverLocal:
		return nil, nil
	case DriverMinio:
		store, err = NewMinioStore(cfg.Minio)
	case DriverGCS:
		store, err = NewGCSStore(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Driver, err)
	}

	if err := store.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", store.Bucket(), err)
	}
	return store, nil
}

// readDocument drains r, refusing anything over MaxDocumentSize.
func readDocument(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxDocumentSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxDocumentSize {
		return nil, ErrTooLarge
	}
	return data, nil
}
