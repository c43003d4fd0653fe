package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/url"
	"path"
	"slices"
	"strings"

	"github.com/lightwaver/gallerix/config"
	"github.com/lightwaver/gallerix/internal/model"
	"github.com/lightwaver/gallerix/internal/ports"
	"github.com/lightwaver/gallerix/internal/rendition"
	"github.com/lightwaver/gallerix/internal/security"
	"github.com/lightwaver/gallerix/internal/util"
	"golang.org/x/sync/errgroup"
)

// coverConcurrency bounds the per-gallery listings a directory view runs in parallel.
const coverConcurrency = 4

type GalleryService struct {
	store       ports.ObjectStore
	configStore ports.ConfigStore
	containers  config.ContainersConfig
}

var _ ports.GalleryService = (*GalleryService)(nil)

func NewGalleryService(store ports.ObjectStore, configStore ports.ConfigStore, containers *config.ContainersConfig) *GalleryService {
	return &GalleryService{
		store:       store,
		configStore: configStore,
		containers:  *containers,
	}
}

// resolveViewable looks the gallery up and checks the view permission. Public
// galleries need no principal. Only the config container is touched.
func resolveViewable(ctx context.Context, configStore ports.ConfigStore, name string, principal *model.Principal, authErr error) (*model.Gallery, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: gallery is required", model.ErrBadRequest)
	}

	gallery, err := configStore.GalleryByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if security.IsPublic(gallery) {
		return gallery, nil
	}
	if err := requirePrincipal(principal, authErr); err != nil {
		return nil, err
	}
	if !security.Can(principal, model.PermissionView, gallery, model.RoleRequirements{}) {
		return nil, fmt.Errorf("%w: view %s", model.ErrForbidden, name)
	}
	return gallery, nil
}

// requirePrincipal prefers the verification failure over a plain "missing credential".
func requirePrincipal(principal *model.Principal, authErr error) error {
	if principal != nil {
		return nil
	}
	if authErr != nil {
		return authErr
	}
	return model.ErrUnauthenticated
}

func (s *GalleryService) ResolveForView(ctx context.Context, name string, principal *model.Principal, authErr error) (*model.Gallery, error) {
	return resolveViewable(ctx, s.configStore, name, principal, authErr)
}

// ListItems lists the direct children of the gallery prefix. Rendition URLs
// carry token so that <img> requests authenticate without headers.
func (s *GalleryService) ListItems(ctx context.Context, gallery, token string) ([]model.MediaItem, error) {
	prefix := strings.TrimRight(gallery, "/") + "/"

	objects, err := s.store.ListObjects(ctx, s.containers.Data, prefix)
	if err != nil {
		return nil, util.LogError(fmt.Sprintf("[GalleryService] list %s", gallery), err)
	}

	items := make([]model.MediaItem, 0, len(objects))
	for _, obj := range objects {
		name := strings.TrimPrefix(obj.Key, prefix)
		if name == "" || strings.Contains(name, "/") {
			continue
		}

		item := model.MediaItem{
			Name:        name,
			Type:        classify(obj.ContentType),
			Size:        obj.ContentLength,
			ContentType: obj.ContentType,
			URL:         mediaURL("/image", gallery, name, "", token),
		}
		if item.Type == model.ItemTypeImage {
			item.ThumbURL = mediaURL("/thumb", gallery, name, "", token)
			item.PreviewURL = mediaURL("/thumb", gallery, name, model.RenditionPreview, token)
		}
		items = append(items, item)
	}
	return items, nil
}

func classify(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "video/"):
		return model.ItemTypeVideo
	case contentType == "application/pdf":
		return model.ItemTypePDF
	default:
		return model.ItemTypeImage
	}
}

// mediaURL builds /image and /thumb links with parameters in g, f, s, t order.
func mediaURL(endpoint, gallery, file string, kind model.RenditionKind, token string) string {
	var b strings.Builder
	b.WriteString(endpoint)
	b.WriteString("?g=")
	b.WriteString(url.QueryEscape(gallery))
	b.WriteString("&f=")
	b.WriteString(url.QueryEscape(file))
	if kind == model.RenditionPreview {
		b.WriteString("&s=preview")
	}
	if token != "" {
		b.WriteString("&" + security.QueryTokenParam + "=")
		b.WriteString(url.QueryEscape(token))
	}
	return b.String()
}

// BuildCoverURL is the preview URL of the first image in listing order, or "".
// Content types are fetched one object at a time and only until an image is found.
func (s *GalleryService) BuildCoverURL(ctx context.Context, gallery, token string) (string, error) {
	prefix := strings.TrimRight(gallery, "/") + "/"

	keys, err := s.store.ListKeys(ctx, s.containers.Data, prefix)
	if err != nil {
		return "", util.LogError(fmt.Sprintf("[GalleryService] list %s", gallery), err)
	}

	for _, obj := range keys {
		name := strings.TrimPrefix(obj.Key, prefix)
		if name == "" || strings.Contains(name, "/") {
			continue
		}
		head, err := s.store.HeadObject(ctx, s.containers.Data, obj.Key)
		if errors.Is(err, model.ErrNotFound) {
			continue
		}
		if err != nil {
			return "", err
		}
		if classify(head.ContentType) == model.ItemTypeImage {
			return mediaURL("/thumb", gallery, name, model.RenditionPreview, token), nil
		}
	}
	return "", nil
}

// ListForPrincipal returns the galleries whose view roles the principal holds
// and whether it may create new ones.
func (s *GalleryService) ListForPrincipal(ctx context.Context, principal *model.Principal, token string) ([]model.GallerySummary, bool, error) {
	galleries, err := s.configStore.Galleries(ctx)
	if err != nil {
		return nil, false, err
	}
	roles, err := s.configStore.Roles(ctx)
	if err != nil {
		return nil, false, err
	}

	var visible []model.Gallery
	for i := range galleries {
		if security.Can(principal, model.PermissionView, &galleries[i], roles.Global) {
			visible = append(visible, galleries[i])
		}
	}

	summaries, err := s.summarize(ctx, visible, token)
	if err != nil {
		return nil, false, err
	}
	return summaries, security.Can(principal, model.PermissionCreateGallery, nil, roles.Global), nil
}

func (s *GalleryService) ListPublic(ctx context.Context) ([]model.GallerySummary, error) {
	galleries, err := s.configStore.Galleries(ctx)
	if err != nil {
		return nil, err
	}

	var public []model.Gallery
	for i := range galleries {
		if security.IsPublic(&galleries[i]) {
			public = append(public, galleries[i])
		}
	}
	return s.summarize(ctx, public, "")
}

// summarize resolves cover URLs concurrently. A gallery whose listing fails
// is shown without a cover.
func (s *GalleryService) summarize(ctx context.Context, galleries []model.Gallery, token string) ([]model.GallerySummary, error) {
	summaries := make([]model.GallerySummary, len(galleries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(coverConcurrency)
	for i := range galleries {
		summaries[i] = model.GallerySummary{
			Name:        galleries[i].Name,
			Title:       galleries[i].DisplayTitle(),
			Description: galleries[i].Description,
		}
		g.Go(func() error {
			cover, err := s.BuildCoverURL(gctx, galleries[i].Name, token)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				log.Printf("[GalleryService] cover for %s: %v", galleries[i].Name, err)
				return nil
			}
			summaries[i].CoverURL = cover
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summaries, nil
}

// Create adds a gallery owned by the creator's roles.
func (s *GalleryService) Create(ctx context.Context, principal *model.Principal, gallery model.Gallery) (*model.Gallery, error) {
	if principal == nil {
		return nil, model.ErrUnauthenticated
	}
	roles, err := s.configStore.Roles(ctx)
	if err != nil {
		return nil, err
	}
	if !security.Can(principal, model.PermissionCreateGallery, nil, roles.Global) {
		return nil, fmt.Errorf("%w: createGallery", model.ErrForbidden)
	}

	gallery.Name = strings.TrimSpace(gallery.Name)
	if !validGalleryName(gallery.Name) {
		return nil, fmt.Errorf("%w: invalid gallery name", model.ErrBadRequest)
	}

	owners := slices.Clone(principal.Roles)
	gallery.Roles = model.RoleRequirements{
		View:   owners,
		Upload: slices.Clone(owners),
		Admin:  slices.Clone(owners),
	}

	err = s.configStore.UpdateGalleries(ctx, func(galleries []model.Gallery) ([]model.Gallery, error) {
		for _, existing := range galleries {
			if existing.Name == gallery.Name {
				return nil, fmt.Errorf("%w: gallery %s", model.ErrConflict, gallery.Name)
			}
		}
		return append(galleries, gallery), nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[GalleryService] %s created gallery %s", principal.Username, gallery.Name)
	return &gallery, nil
}

func validGalleryName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, "/\\")
}

// AuthorizeUpload checks the upload permission. The principal is optional on
// the route, so a missing one is reported here.
func (s *GalleryService) AuthorizeUpload(ctx context.Context, name string, principal *model.Principal, authErr error) (*model.Gallery, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: gallery is required", model.ErrBadRequest)
	}
	gallery, err := s.configStore.GalleryByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := requirePrincipal(principal, authErr); err != nil {
		return nil, err
	}
	if !security.Can(principal, model.PermissionUpload, gallery, model.RoleRequirements{}) {
		return nil, fmt.Errorf("%w: upload to %s", model.ErrForbidden, name)
	}
	return gallery, nil
}

// Upload streams body to the data container, then purges the renditions of
// the replaced original so they are derived again on the next request.
func (s *GalleryService) Upload(ctx context.Context, gallery *model.Gallery, filename, contentType string, body io.Reader) error {
	if !model.ValidFilename(filename) {
		return fmt.Errorf("%w: invalid filename", model.ErrBadRequest)
	}

	contentType = resolveContentType(filename, contentType)
	key := model.ObjectKey(gallery.Name, filename)
	if err := s.store.PutObject(ctx, s.containers.Data, key, body, contentType); err != nil {
		return err
	}

	for _, renditionKey := range rendition.Keys(key) {
		if err := s.store.DeleteObject(ctx, s.containers.Thumbs, renditionKey); err != nil && !errors.Is(err, model.ErrNotFound) {
			log.Printf("[GalleryService] purge rendition %s: %v", renditionKey, err)
		}
	}
	return nil
}

// resolveContentType falls back to the extension when the client sent nothing useful.
func resolveContentType(filename, contentType string) string {
	if contentType != "" && contentType != "application/octet-stream" {
		return contentType
	}
	if byExt := mime.TypeByExtension(strings.ToLower(path.Ext(filename))); byExt != "" {
		return byExt
	}
	if contentType == "" {
		return "application/octet-stream"
	}
	return contentType
}
