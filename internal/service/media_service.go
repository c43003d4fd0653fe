package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/lightwaver/gallerix/config"
	"github.com/lightwaver/gallerix/internal/metrics"
	"github.com/lightwaver/gallerix/internal/model"
	"github.com/lightwaver/gallerix/internal/ports"
	"github.com/lightwaver/gallerix/internal/rendition"
	"github.com/lightwaver/gallerix/internal/util"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"
)

const (
	RenditionCacheControl = "private, max-age=86400"
	OriginalCacheControl  = "private, max-age=0, no-cache"
)

// MediaService serves originals and derives thumbnails and previews on demand,
// using the thumbs container as the rendition cache.
type MediaService struct {
	store       ports.ObjectStore
	configStore ports.ConfigStore
	containers  config.ContainersConfig
	media       config.MediaConfig
	// flight is nil when single-flight is disabled.
	flight *singleflight.Group
}

var _ ports.MediaService = (*MediaService)(nil)

func NewMediaService(store ports.ObjectStore, configStore ports.ConfigStore, containers *config.ContainersConfig, media *config.MediaConfig) *MediaService {
	s := &MediaService{
		store:       store,
		configStore: configStore,
		containers:  *containers,
		media:       *media,
	}
	if media.SingleFlight {
		s.flight = &singleflight.Group{}
	}
	return s
}

type derived struct {
	data        []byte
	contentType string
	source      string
}

func validateMediaRequest(req ports.MediaRequest) error {
	if req.Gallery == "" || req.Filename == "" {
		return fmt.Errorf("%w: g and f are required", model.ErrBadRequest)
	}
	if !model.ValidFilename(req.Filename) {
		return fmt.Errorf("%w: invalid filename", model.ErrBadRequest)
	}
	return nil
}

// Original streams the original object after the gallery view check.
func (s *MediaService) Original(ctx context.Context, req ports.MediaRequest) (*model.MediaContent, error) {
	if err := validateMediaRequest(req); err != nil {
		return nil, err
	}
	if _, err := resolveViewable(ctx, s.configStore, req.Gallery, req.Principal, req.AuthErr); err != nil {
		return nil, err
	}

	obj, err := s.store.GetObject(ctx, s.containers.Data, model.ObjectKey(req.Gallery, req.Filename))
	if err != nil {
		return nil, err
	}

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &model.MediaContent{
		Body:          obj.Body,
		ContentType:   contentType,
		ContentLength: obj.ContentLength,
		CacheControl:  OriginalCacheControl,
	}, nil
}

// Rendition serves the requested rendition from the thumbs container,
// migrating a legacy preview or deriving it from the original on a miss.
func (s *MediaService) Rendition(ctx context.Context, req ports.MediaRequest) (*model.MediaContent, error) {
	if err := validateMediaRequest(req); err != nil {
		return nil, err
	}
	if _, err := resolveViewable(ctx, s.configStore, req.Gallery, req.Principal, req.AuthErr); err != nil {
		return nil, err
	}

	kind := req.Kind
	if kind != model.RenditionPreview {
		kind = model.RenditionThumb
	}
	originalKey := model.ObjectKey(req.Gallery, req.Filename)
	key := rendition.CanonicalKey(originalKey, kind)

	cached, found, err := s.lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	if found {
		metrics.ObserveRendition(string(kind), metrics.SourceCache)
		return &model.MediaContent{
			Body:          cached.Body,
			ContentType:   renditionContentType(cached.ContentType),
			ContentLength: cached.ContentLength,
			CacheControl:  RenditionCacheControl,
		}, nil
	}

	if kind == model.RenditionPreview {
		legacy, found, err := s.lookup(ctx, rendition.LegacyPreviewKey(originalKey))
		if err != nil {
			return nil, err
		}
		if found {
			out, err := s.migrateLegacy(ctx, legacy, key)
			if err != nil {
				return nil, err
			}
			metrics.ObserveRendition(string(kind), out.source)
			return out.content(), nil
		}
	}

	out, err := s.generate(ctx, originalKey, key, kind)
	if err != nil {
		return nil, err
	}
	metrics.ObserveRendition(string(kind), out.source)
	return out.content(), nil
}

// lookup fetches key from the thumbs container. A missing key is (nil, false, nil).
func (s *MediaService) lookup(ctx context.Context, key string) (*model.StoredObject, bool, error) {
	obj, err := s.store.GetObject(ctx, s.containers.Thumbs, key)
	if errors.Is(err, model.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, util.LogError(fmt.Sprintf("[MediaService] lookup %s", key), err)
	}
	return obj, true, nil
}

// migrateLegacy copies a legacy preview to its canonical key. The legacy key is never written.
func (s *MediaService) migrateLegacy(ctx context.Context, legacy *model.StoredObject, key string) (*derived, error) {
	defer legacy.Body.Close()

	data, err := io.ReadAll(legacy.Body)
	if err != nil {
		return nil, util.LogError(fmt.Sprintf("[MediaService] read legacy preview %s", legacy.Key), err)
	}
	contentType := renditionContentType(legacy.ContentType)

	if err := s.store.PutObject(ctx, s.containers.Thumbs, key, bytes.NewReader(data), contentType); err != nil {
		return nil, util.LogError(fmt.Sprintf("[MediaService] migrate %s to %s", legacy.Key, key), err)
	}
	log.Printf("[MediaService] migrated legacy preview %s to %s", legacy.Key, key)

	return &derived{data: data, contentType: contentType, source: metrics.SourceLegacy}, nil
}

// generate derives the rendition, collapsing concurrent requests for the same
// key when single-flight is on. A caller that gives up does not cancel the
// shared generation.
func (s *MediaService) generate(ctx context.Context, originalKey, key string, kind model.RenditionKind) (*derived, error) {
	if s.flight == nil {
		return s.derive(ctx, originalKey, key, kind)
	}

	detached := context.WithoutCancel(ctx)
	ch := s.flight.DoChan(key, func() (interface{}, error) {
		return s.derive(detached, originalKey, key, kind)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*derived), nil
	}
}

func (s *MediaService) derive(ctx context.Context, originalKey, key string, kind model.RenditionKind) (*derived, error) {
	original, err := s.store.GetObject(ctx, s.containers.Data, originalKey)
	if err != nil {
		return nil, err
	}
	defer original.Body.Close()

	contentType := renditionContentType(original.ContentType)
	if !strings.HasPrefix(contentType, "image/") {
		return &derived{data: rendition.Placeholder(), contentType: rendition.ContentTypePNG, source: metrics.SourcePlaceholder}, nil
	}

	src, err := io.ReadAll(original.Body)
	if err != nil {
		return nil, util.LogError(fmt.Sprintf("[MediaService] read original %s", originalKey), err)
	}

	timer := prometheus.NewTimer(metrics.GenerateSeconds)
	out, err := rendition.Render(src, rendition.Options{
		MaxSize:   s.maxSize(kind),
		Quality:   config.ClampQuality(s.media.Quality),
		MaxPixels: s.media.MaxSourcePixels,
	})
	timer.ObserveDuration()
	if err != nil {
		return nil, util.LogError(fmt.Sprintf("[MediaService] render %s", originalKey), err)
	}

	if err := s.store.PutObject(ctx, s.containers.Thumbs, key, bytes.NewReader(out.Data), out.ContentType); err != nil {
		return nil, util.LogError(fmt.Sprintf("[MediaService] store rendition %s", key), err)
	}

	return &derived{data: out.Data, contentType: out.ContentType, source: metrics.SourceGenerated}, nil
}

func (s *MediaService) maxSize(kind model.RenditionKind) int {
	if kind == model.RenditionPreview {
		return config.ClampRenditionSize(s.media.PreviewMaxSize)
	}
	return config.ClampRenditionSize(s.media.ThumbMaxSize)
}

// renditionContentType treats a missing content type as JPEG.
func renditionContentType(contentType string) string {
	if contentType == "" {
		return rendition.ContentTypeJPEG
	}
	return contentType
}

// content hands every caller its own reader over the shared bytes.
func (d *derived) content() *model.MediaContent {
	return &model.MediaContent{
		Body:          io.NopCloser(bytes.NewReader(d.data)),
		ContentType:   d.contentType,
		ContentLength: int64(len(d.data)),
		CacheControl:  RenditionCacheControl,
	}
}
