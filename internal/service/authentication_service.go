package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/lightwaver/gallerix/internal/model"
	"github.com/lightwaver/gallerix/internal/ports"
	"github.com/lightwaver/gallerix/internal/security"
)

type AuthenticationService struct {
	configStore         ports.ConfigStore
	jwtServiceInterface ports.JWTServiceInterface
}

var _ ports.AuthenticationService = (*AuthenticationService)(nil)

func NewAuthenticationService(configStore ports.ConfigStore, jwtService ports.JWTServiceInterface) *AuthenticationService {
	return &AuthenticationService{
		configStore:         configStore,
		jwtServiceInterface: jwtService,
	}
}

// Login checks the password and issues a session token. Unknown users and
// wrong passwords fail the same way and take the same time.
func (s *AuthenticationService) Login(ctx context.Context, username, password string) (*model.LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", model.ErrBadRequest)
	}

	user, err := s.configStore.UserByName(ctx, username)
	if errors.Is(err, model.ErrNotFound) {
		security.DummyCompare(password)
		log.Printf("[AuthService] login failed for %q", username)
		return nil, model.ErrInvalidCredential
	}
	if err != nil {
		return nil, err
	}

	if !security.CheckPassword(password, user.PasswordHash) {
		log.Printf("[AuthService] login failed for %q", username)
		return nil, model.ErrInvalidCredential
	}

	roles := user.Roles
	if roles == nil {
		roles = []string{}
	}
	token, err := s.jwtServiceInterface.Issue(user.Username, roles)
	if err != nil {
		return nil, fmt.Errorf("[AuthService] issue token: %w", err)
	}

	return &model.LoginResult{
		Token: token,
		User:  &model.Principal{Username: user.Username, Roles: roles},
	}, nil
}
