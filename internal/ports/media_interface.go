package ports

import (
	"context"

	"github.com/lightwaver/gallerix/internal/model"
)

// MediaRequest : one /image or /thumb request after credential resolution
type MediaRequest struct {
	Gallery   string
	Filename  string
	Kind      model.RenditionKind
	Principal *model.Principal
	// AuthErr is the verification failure of a presented credential, if any.
	AuthErr error
}

type MediaService interface {
	Original(ctx context.Context, req MediaRequest) (*model.MediaContent, error)
	Rendition(ctx context.Context, req MediaRequest) (*model.MediaContent, error)
}
