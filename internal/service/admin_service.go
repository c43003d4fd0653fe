package service

import (
	"context"
	"fmt"
	"log"
	"slices"
	"strings"
	"unicode"

	"github.com/lightwaver/gallerix/config"
	"github.com/lightwaver/gallerix/internal/model"
	"github.com/lightwaver/gallerix/internal/ports"
	"github.com/lightwaver/gallerix/internal/security"
)

// AdminService edits the config documents on behalf of admins.
type AdminService struct {
	configStore ports.ConfigStore
}

var _ ports.AdminService = (*AdminService)(nil)

func NewAdminService(configStore ports.ConfigStore) *AdminService {
	return &AdminService{configStore: configStore}
}

func (s *AdminService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.configStore.Users(ctx)
}

// UpsertUser creates or updates a user matched case-insensitively. The password
// is required for new users; on update an empty password keeps the stored hash
// and nil roles keep the stored roles.
func (s *AdminService) UpsertUser(ctx context.Context, username, password string, roles []string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if err := validateUsername(username); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrBadRequest, err)
	}
	if password != "" {
		if err := validatePassword(password); err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrBadRequest, err)
		}
	}

	var saved model.User
	err := s.configStore.UpdateUsers(ctx, func(users []model.User) ([]model.User, error) {
		idx := slices.IndexFunc(users, func(u model.User) bool { return model.SameUsername(u.Username, username) })

		var user model.User
		if idx >= 0 {
			user = users[idx]
		} else {
			if password == "" {
				return nil, fmt.Errorf("%w: password is required for a new user", model.ErrBadRequest)
			}
			user = model.User{Username: username, Roles: []string{}}
		}

		if roles != nil {
			user.Roles = normalizeRoles(roles)
		}
		if password != "" {
			hash, err := security.HashPassword(password)
			if err != nil {
				return nil, err
			}
			user.PasswordHash = hash
		}

		saved = user
		if idx >= 0 {
			users[idx] = user
			return users, nil
		}
		return append(users, user), nil
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (s *AdminService) DeleteUser(ctx context.Context, username string) error {
	return s.configStore.UpdateUsers(ctx, func(users []model.User) ([]model.User, error) {
		kept := slices.DeleteFunc(users, func(u model.User) bool { return model.SameUsername(u.Username, username) })
		if len(kept) == len(users) {
			return nil, fmt.Errorf("%w: user %q", model.ErrNotFound, username)
		}
		return kept, nil
	})
}

func (s *AdminService) GetRoles(ctx context.Context) (*model.RolesDocument, error) {
	return s.configStore.Roles(ctx)
}

func (s *AdminService) SetRoles(ctx context.Context, roles *model.RolesDocument) error {
	if roles == nil {
		return fmt.Errorf("%w: roles document is required", model.ErrBadRequest)
	}
	return s.configStore.SaveRoles(ctx, roles)
}

func (s *AdminService) ListGalleries(ctx context.Context) ([]model.Gallery, error) {
	return s.configStore.Galleries(ctx)
}

// UpsertGallery replaces the definition with the same name or appends a new one.
func (s *AdminService) UpsertGallery(ctx context.Context, gallery model.Gallery) (*model.Gallery, error) {
	gallery.Name = strings.TrimSpace(gallery.Name)
	if !validGalleryName(gallery.Name) {
		return nil, fmt.Errorf("%w: invalid gallery name", model.ErrBadRequest)
	}

	err := s.configStore.UpdateGalleries(ctx, func(galleries []model.Gallery) ([]model.Gallery, error) {
		for i := range galleries {
			if galleries[i].Name == gallery.Name {
				galleries[i] = gallery
				return galleries, nil
			}
		}
		return append(galleries, gallery), nil
	})
	if err != nil {
		return nil, err
	}
	return &gallery, nil
}

// DeleteGallery removes the definition only; media objects stay in the data container.
func (s *AdminService) DeleteGallery(ctx context.Context, name string) error {
	return s.configStore.UpdateGalleries(ctx, func(galleries []model.Gallery) ([]model.Gallery, error) {
		kept := slices.DeleteFunc(galleries, func(g model.Gallery) bool { return g.Name == name })
		if len(kept) == len(galleries) {
			return nil, fmt.Errorf("%w: gallery %q", model.ErrNotFound, name)
		}
		return kept, nil
	})
}

// Bootstrap seeds an admin user when users.json is empty and credentials are configured.
func (s *AdminService) Bootstrap(ctx context.Context, cfg *config.AdminConfig) error {
	if cfg == nil || cfg.Username == "" || cfg.Password == "" {
		return nil
	}

	existing, err := s.configStore.Users(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	return s.configStore.UpdateUsers(ctx, func(users []model.User) ([]model.User, error) {
		if len(users) > 0 {
			return users, nil
		}
		hash, err := security.HashPassword(cfg.Password)
		if err != nil {
			return nil, err
		}
		log.Printf("[AdminService] no users found, seeding admin %q", cfg.Username)
		return []model.User{{
			Username:     cfg.Username,
			PasswordHash: hash,
			Roles:        []string{security.AdminRole},
		}}, nil
	})
}

func normalizeRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	for _, role := range roles {
		role = strings.TrimSpace(role)
		if role != "" && !slices.Contains(out, role) {
			out = append(out, role)
		}
	}
	return out
}

func validateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if len(username) > 64 {
		return fmt.Errorf("username must be at most 64 characters")
	}
	for _, c := range username {
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) && !strings.ContainsRune("._-@", c) {
			return fmt.Errorf("username may contain letters, digits and . _ - @ only")
		}
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	var letterCount, digitCount int
	for _, c := range password {
		switch {
		case unicode.IsLetter(c):
			letterCount++
		case unicode.IsDigit(c):
			digitCount++
		}
	}

	if letterCount == 0 {
		return fmt.Errorf("password must contain a letter")
	}
	if digitCount == 0 {
		return fmt.Errorf("password must contain a digit")
	}
	return nil
}
