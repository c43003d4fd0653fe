package ports

import (
	"context"

	"github.com/lightwaver/gallerix/internal/model"
)

// ConfigStore : typed access to users.json, roles.json and galleries.json
type ConfigStore interface {
	Users(ctx context.Context) ([]model.User, error)
	SaveUsers(ctx context.Context, users []model.User) error
	UpdateUsers(ctx context.Context, fn func([]model.User) ([]model.User, error)) error
	UserByName(ctx context.Context, username string) (*model.User, error)
	Roles(ctx context.Context) (*model.RolesDocument, error)
	SaveRoles(ctx context.Context, roles *model.RolesDocument) error
	Galleries(ctx context.Context) ([]model.Gallery, error)
	SaveGalleries(ctx context.Context, galleries []model.Gallery) error
	UpdateGalleries(ctx context.Context, fn func([]model.Gallery) ([]model.Gallery, error)) error
	GalleryByName(ctx context.Context, name string) (*model.Gallery, error)
}
