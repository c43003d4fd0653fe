package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/lightwaver/gallerix/internal/model"
	"github.com/lightwaver/gallerix/internal/ports"
	"github.com/lightwaver/gallerix/internal/util"
)

const (
	UsersDocument     = "users.json"
	RolesDocument     = "roles.json"
	GalleriesDocument = "galleries.json"
)

// ConfigRepository reads and writes the JSON documents of the config container.
type ConfigRepository struct {
	// mu serializes read-modify-write cycles of this process
	mu        sync.Mutex
	store     ports.ObjectStore
	cache     ports.CacheRepository
	container string
}

var _ ports.ConfigStore = (*ConfigRepository)(nil)

// NewConfigRepository : cache may be nil
func NewConfigRepository(store ports.ObjectStore, cache ports.CacheRepository, container string) *ConfigRepository {
	return &ConfigRepository{store: store, cache: cache, container: container}
}

// GetDocument decodes the named document into v. A missing or empty document
// leaves v untouched and reports false.
func (r *ConfigRepository) GetDocument(ctx context.Context, name string, v any) (bool, error) {
	if r.cache != nil {
		data, ok, err := r.cache.GetDocument(ctx, name)
		if err != nil {
			log.Printf("[ConfigRepo] cache read %s: %v", name, err)
		} else if ok {
			if err := json.Unmarshal(data, v); err == nil {
				return true, nil
			}
			log.Printf("[ConfigRepo] dropping undecodable cache entry %s", name)
		}
	}

	obj, err := r.store.GetObject(ctx, r.container, name)
	if errors.Is(err, model.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, util.LogError(fmt.Sprintf("[ConfigRepo] read %s", name), err)
	}
	defer obj.Body.Close()

	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return false, util.LogError(fmt.Sprintf("[ConfigRepo] read %s", name), err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, util.LogError(fmt.Sprintf("[ConfigRepo] invalid JSON in %s", name), err)
	}

	if r.cache != nil {
		if err := r.cache.SetDocument(ctx, name, data); err != nil {
			log.Printf("[ConfigRepo] cache write %s: %v", name, err)
		}
	}
	return true, nil
}

// PutDocument writes v as indented JSON and invalidates the cached copy.
func (r *ConfigRepository) PutDocument(ctx context.Context, name string, v any) error {
	data, err := encodeDocument(v)
	if err != nil {
		return util.LogError(fmt.Sprintf("[ConfigRepo] encode %s", name), err)
	}

	if err := r.store.PutObject(ctx, r.container, name, bytes.NewReader(data), "application/json"); err != nil {
		return util.LogError(fmt.Sprintf("[ConfigRepo] write %s", name), err)
	}

	if r.cache != nil {
		if err := r.cache.DeleteDocument(ctx, name); err != nil {
			log.Printf("[ConfigRepo] cache invalidate %s: %v", name, err)
		}
	}
	return nil
}

func encodeDocument(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *ConfigRepository) Users(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if _, err := r.GetDocument(ctx, UsersDocument, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

func (r *ConfigRepository) SaveUsers(ctx context.Context, users []model.User) error {
	if users == nil {
		users = []model.User{}
	}
	return r.PutDocument(ctx, UsersDocument, users)
}

// UserByName matches usernames case-insensitively.
func (r *ConfigRepository) UserByName(ctx context.Context, username string) (*model.User, error) {
	users, err := r.Users(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if model.SameUsername(users[i].Username, username) {
			return &users[i], nil
		}
	}
	return nil, fmt.Errorf("%w: user %q", model.ErrNotFound, username)
}

// UpdateUsers applies fn to the current users and saves the result.
// Nothing is written when fn fails.
func (r *ConfigRepository) UpdateUsers(ctx context.Context, fn func([]model.User) ([]model.User, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.Users(ctx)
	if err != nil {
		return err
	}
	updated, err := fn(users)
	if err != nil {
		return err
	}
	return r.SaveUsers(ctx, updated)
}

func (r *ConfigRepository) Roles(ctx context.Context) (*model.RolesDocument, error) {
	roles := &model.RolesDocument{}
	if _, err := r.GetDocument(ctx, RolesDocument, roles); err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *ConfigRepository) SaveRoles(ctx context.Context, roles *model.RolesDocument) error {
	if roles == nil {
		roles = &model.RolesDocument{}
	}
	return r.PutDocument(ctx, RolesDocument, roles)
}

func (r *ConfigRepository) Galleries(ctx context.Context) ([]model.Gallery, error) {
	var galleries []model.Gallery
	if _, err := r.GetDocument(ctx, GalleriesDocument, &galleries); err != nil {
		return nil, err
	}
	if galleries == nil {
		galleries = []model.Gallery{}
	}
	return galleries, nil
}

func (r *ConfigRepository) SaveGalleries(ctx context.Context, galleries []model.Gallery) error {
	if galleries == nil {
		galleries = []model.Gallery{}
	}
	return r.PutDocument(ctx, GalleriesDocument, galleries)
}

// UpdateGalleries applies fn to the current galleries and saves the result.
func (r *ConfigRepository) UpdateGalleries(ctx context.Context, fn func([]model.Gallery) ([]model.Gallery, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	galleries, err := r.Galleries(ctx)
	if err != nil {
		return err
	}
	updated, err := fn(galleries)
	if err != nil {
		return err
	}
	return r.SaveGalleries(ctx, updated)
}

func (r *ConfigRepository) GalleryByName(ctx context.Context, name string) (*model.Gallery, error) {
	galleries, err := r.Galleries(ctx)
	if err != nil {
		return nil, err
	}
	for i := range galleries {
		if galleries[i].Name == name {
			return &galleries[i], nil
		}
	}
	return nil, fmt.Errorf("%w: gallery %q", model.ErrNotFound, name)
}
