package ports

import (
	"context"
)

// CacheRepository : Redis layer in front of config documents
type CacheRepository interface {
	GetDocument(ctx context.Context, name string) ([]byte, bool, error)
	SetDocument(ctx context.Context, name string, data []byte) error
	DeleteDocument(ctx context.Context, name string) error
}
