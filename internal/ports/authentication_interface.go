package ports

import (
	"context"

	"github.com/lightwaver/gallerix/internal/model"
)

type AuthenticationService interface {
	Login(ctx context.Context, username, password string) (*model.LoginResult, error)
}
