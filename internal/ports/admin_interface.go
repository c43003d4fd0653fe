package ports

import (
	"context"

	"github.com/lightwaver/gallerix/internal/model"
)

type AdminService interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	UpsertUser(ctx context.Context, username, password string, roles []string) (*model.User, error)
	DeleteUser(ctx context.Context, username string) error
	GetRoles(ctx context.Context) (*model.RolesDocument, error)
	SetRoles(ctx context.Context, roles *model.RolesDocument) error
	ListGalleries(ctx context.Context) ([]model.Gallery, error)
	UpsertGallery(ctx context.Context, gallery model.Gallery) (*model.Gallery, error)
	DeleteGallery(ctx context.Context, name string) error
}
