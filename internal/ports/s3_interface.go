package ports

import (
	"context"
	"io"

	"github.com/lightwaver/gallerix/internal/model"
)

// ObjectStore : blob storage organized into named containers.
// GetObject returns an error wrapping model.ErrNotFound when the key is absent.
type ObjectStore interface {
	GetObject(ctx context.Context, container, key string) (*model.StoredObject, error)
	PutObject(ctx context.Context, container, key string, body io.Reader, contentType string) error
	ListObjects(ctx context.Context, container, prefix string) ([]model.ObjectInfo, error)
	// ListKeys is ListObjects without content types, so it needs no per-object metadata calls.
	ListKeys(ctx context.Context, container, prefix string) ([]model.ObjectInfo, error)
	HeadObject(ctx context.Context, container, key string) (*model.ObjectInfo, error)
	DeleteObject(ctx context.Context, container, key string) error
}
