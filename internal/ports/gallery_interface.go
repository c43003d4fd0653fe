package ports

import (
	"context"
	"io"

	"github.com/lightwaver/gallerix/internal/model"
)

type GalleryService interface {
	ResolveForView(ctx context.Context, name string, principal *model.Principal, authErr error) (*model.Gallery, error)
	ListForPrincipal(ctx context.Context, principal *model.Principal, token string) ([]model.GallerySummary, bool, error)
	ListPublic(ctx context.Context) ([]model.GallerySummary, error)
	Create(ctx context.Context, principal *model.Principal, gallery model.Gallery) (*model.Gallery, error)
	ListItems(ctx context.Context, gallery, token string) ([]model.MediaItem, error)
	BuildCoverURL(ctx context.Context, gallery, token string) (string, error)
	AuthorizeUpload(ctx context.Context, name string, principal *model.Principal, authErr error) (*model.Gallery, error)
	Upload(ctx context.Context, gallery *model.Gallery, filename, contentType string, body io.Reader) error
}
