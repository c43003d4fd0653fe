package ports

import "github.com/lightwaver/gallerix/internal/model"

type JWTServiceInterface interface {
	Issue(username string, roles []string) (string, error)
	Verify(token string) (*model.Principal, error)
}
