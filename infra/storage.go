package infra

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/tnqbao/gau-feed-service/config"
)

var (
	ErrObjectNotFound    = errors.New("object not found in storage")
	ErrInvalidStorageKey = errors.New("invalid storage key")
)

// ObjectStorage stores image bytes under keys of the form "<feed_id>/<name>".
type ObjectStorage interface {
	// EnsureLocation prepares the feed-scoped location. It is idempotent.
	EnsureLocation(ctx context.Context, feedID string) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

func InitObjectStorage(ctx context.Context, cfg *config.EnvConfig) (ObjectStorage, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverMinio:
		client, err := InitMinioClient(cfg)
		if err != nil {
			return nil, err
		}
		if err := client.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return client, nil
	case config.StorageDriverLocal, "":
		return NewLocalStorage(cfg.Storage.UploadDir)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}
