package service_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/lightwaver/gallerix/config"
	"github.com/lightwaver/gallerix/internal/metrics"
	"github.com/lightwaver/gallerix/internal/model"
	"github.com/lightwaver/gallerix/internal/ports"
	"github.com/lightwaver/gallerix/internal/rendition"
	"github.com/lightwaver/gallerix/internal/service"
	"github.com/lightwaver/gallerix/internal/storetest"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMediaService(f *fixture, singleFlight bool) *service.MediaService {
	media := config.MediaConfig{ThumbMaxSize: 360, PreviewMaxSize: 1200, Quality: 82, SingleFlight: singleFlight}
	return service.NewMediaService(f.store, f.configRepo, &testContainers, &media)
}

func TestRendition_PublicGalleryNeedsNoCredential(t *testing.T) {
	f := newFixture(t)
	f.store.Seed("data", "open/beach.jpg", "image/jpeg", jpegBytes(t, 720, 480))
	svc := newMediaService(f, false)

	content, err := svc.Rendition(context.Background(), ports.MediaRequest{Gallery: "open", Filename: "beach.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", content.ContentType)
	assert.Equal(t, service.RenditionCacheControl, content.CacheControl)

	data := readAll(t, content)
	assert.EqualValues(t, len(data), content.ContentLength)
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 360, cfg.Width)
	assert.Equal(t, 240, cfg.Height)
}

func TestRendition_AuthorizationBeforeStorage(t *testing.T) {
	f := newFixture(t)
	f.store.Seed("data", "family/a.jpg", "image/jpeg", jpegBytes(t, 10, 10))
	svc := newMediaService(f, false)
	ctx := context.Background()

	_, err := svc.Rendition(ctx, ports.MediaRequest{Gallery: "family", Filename: "a.jpg"})
	assert.ErrorIs(t, err, model.ErrUnauthenticated)

	_, err = svc.Rendition(ctx, ports.MediaRequest{Gallery: "family", Filename: "a.jpg", AuthErr: model.ErrInvalidToken})
	assert.ErrorIs(t, err, model.ErrInvalidToken)

	_, err = svc.Rendition(ctx, ports.MediaRequest{Gallery: "family", Filename: "a.jpg", Principal: friendUser})
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = svc.Original(ctx, ports.MediaRequest{Gallery: "family", Filename: "a.jpg", Principal: friendUser})
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = svc.Rendition(ctx, ports.MediaRequest{Gallery: "missing", Filename: "a.jpg", Principal: familyUser})
	assert.ErrorIs(t, err, model.ErrNotFound)

	assert.Zero(t, f.store.ContainerCalls("data"))
	assert.Zero(t, f.store.ContainerCalls("thumbs"))
}

func TestRendition_BadRequest(t *testing.T) {
	f := newFixture(t)
	svc := newMediaService(f, false)

	_, err := svc.Rendition(context.Background(), ports.MediaRequest{Gallery: "open"})
	assert.ErrorIs(t, err, model.ErrBadRequest)

	_, err = svc.Rendition(context.Background(), ports.MediaRequest{Gallery: "open", Filename: "../family/a.jpg"})
	assert.ErrorIs(t, err, model.ErrBadRequest)
}

func TestRendition_SecondRequestServedFromCache(t *testing.T) {
	f := newFixture(t)
	f.store.Seed("data", "family/a.png", "image/png", pngBytes(t, 800, 400))
	svc := newMediaService(f, false)
	req := ports.MediaRequest{Gallery: "family", Filename: "a.png", Principal: familyUser}
	ctx := context.Background()

	generatedBefore := testutil.ToFloat64(metrics.RenditionRequests.WithLabelValues("thumb", metrics.SourceGenerated))
	cachedBefore := testutil.ToFloat64(metrics.RenditionRequests.WithLabelValues("thumb", metrics.SourceCache))

	first, err := svc.Rendition(ctx, req)
	require.NoError(t, err)
	firstData := readAll(t, first)
	assert.Equal(t, "image/png", first.ContentType)

	stored, contentType, ok := f.store.Object("thumbs", "family/a.png")
	require.True(t, ok)
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, firstData, stored)

	f.store.ResetCalls()
	second, err := svc.Rendition(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, firstData, readAll(t, second))
	assert.Zero(t, f.store.ContainerCalls("data"), "cache hit must not read the original")
	assert.Empty(t, f.store.Calls(storetest.OpPut))

	assert.Equal(t, generatedBefore+1, testutil.ToFloat64(metrics.RenditionRequests.WithLabelValues("thumb", metrics.SourceGenerated)))
	assert.Equal(t, cachedBefore+1, testutil.ToFloat64(metrics.RenditionRequests.WithLabelValues("thumb", metrics.SourceCache)))
}

func TestRendition_PreviewUsesItsOwnKeyAndSize(t *testing.T) {
	f := newFixture(t)
	f.store.Seed("data", "family/big.jpg", "image/jpeg", jpegBytes(t, 2400, 1600))
	svc := newMediaService(f, false)

	content, err := svc.Rendition(context.Background(), ports.MediaRequest{
		Gallery: "family", Filename: "big.jpg", Kind: model.RenditionPreview, Principal: familyUser,
	})
	require.NoError(t, err)
	cfg, _, err := image.DecodeConfig(bytes.NewReader(readAll(t, content)))
	require.NoError(t, err)
	assert.Equal(t, 1200, cfg.Width)
	assert.Equal(t, 800, cfg.Height)

	_, _, ok := f.store.Object("thumbs", "family/big_preview.jpg")
	assert.True(t, ok)
	_, _, ok = f.store.Object("thumbs", "family/big.jpg")
	assert.False(t, ok)
}

func TestRendition_GIFStaysGIF(t *testing.T) {
	f := newFixture(t)
	f.store.Seed("data", "open/anim.gif", "image/gif", gifBytes(t, 40, 20))
	svc := newMediaService(f, false)

	content, err := svc.Rendition(context.Background(), ports.MediaRequest{Gallery: "open", Filename: "anim.gif"})
	require.NoError(t, err)
	assert.Equal(t, "image/gif", content.ContentType)
	_, format, err := image.DecodeConfig(bytes.NewReader(readAll(t, content)))
	require.NoError(t, err)
	assert.Equal(t, "gif", format)
}

func TestRendition_LegacyPreviewMigratedForward(t *testing.T) {
	f := newFixture(t)
	legacy := []byte("legacy-preview-bytes")
	f.store.Seed("thumbs", "preview/family/file.jpg", "image/jpeg", legacy)
	f.store.Seed("data", "family/file.jpg", "image/jpeg", jpegBytes(t, 50, 50))
	svc := newMediaService(f, false)
	req := ports.MediaRequest{Gallery: "family", Filename: "file.jpg", Kind: model.RenditionPreview, Principal: familyUser}
	ctx := context.Background()

	first, err := svc.Rendition(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, legacy, readAll(t, first))
	assert.Zero(t, f.store.ContainerCalls("data"), "migration must not derive")

	canonical, contentType, ok := f.store.Object("thumbs", "family/file_preview.jpg")
	require.True(t, ok)
	assert.Equal(t, legacy, canonical)
	assert.Equal(t, "image/jpeg", contentType)

	f.store.ResetCalls()
	second, err := svc.Rendition(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, legacy, readAll(t, second))
	gets := f.store.Calls(storetest.OpGet)
	require.NotEmpty(t, gets)
	assert.Equal(t, "family/file_preview.jpg", gets[len(gets)-1].Key)
	assert.Zero(t, f.store.ContainerCalls("data"))
	assert.Empty(t, f.store.Calls(storetest.OpPut))
}

func TestRendition_LegacyKeyIgnoredForThumbs(t *testing.T) {
	f := newFixture(t)
	f.store.Seed("thumbs", "preview/family/file.jpg", "image/jpeg", []byte("legacy"))
	f.store.Seed("data", "family/file.jpg", "image/jpeg", jpegBytes(t, 50, 50))
	svc := newMediaService(f, false)

	content, err := svc.Rendition(context.Background(), ports.MediaRequest{Gallery: "family", Filename: "file.jpg", Principal: familyUser})
	require.NoError(t, err)
	assert.NotEqual(t, []byte("legacy"), readAll(t, content))
}

func TestRendition_NonImagePlaceholder(t *testing.T) {
	f := newFixture(t)
	f.store.Seed("data", "family/doc.pdf", "application/pdf", []byte("%PDF-1.7"))
	svc := newMediaService(f, false)

	content, err := svc.Rendition(context.Background(), ports.MediaRequest{Gallery: "family", Filename: "doc.pdf", Principal: familyUser})
	require.NoError(t, err)
	assert.Equal(t, "image/png", content.ContentType)

	data := readAll(t, content)
	assert.Equal(t, rendition.Placeholder(), data)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 1, 1), img.Bounds())

	assert.Empty(t, f.store.Calls(storetest.OpPut), "placeholder is not cached")
}

func TestRendition_PlaceholderNeverMasksAuthorization(t *testing.T) {
	f := newFixture(t)
	f.store.Seed("data", "family/doc.pdf", "application/pdf", []byte("%PDF-1.7"))
	svc := newMediaService(f, false)

	_, err := svc.Rendition(context.Background(), ports.MediaRequest{Gallery: "family", Filename: "doc.pdf"})
	assert.ErrorIs(t, err, model.ErrUnauthenticated)
}

func TestRendition_MissingOriginal(t *testing.T) {
	f := newFixture(t)
	svc := newMediaService(f, false)

	_, err := svc.Rendition(context.Background(), ports.MediaRequest{Gallery: "family", Filename: "nope.jpg", Principal: familyUser})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRendition_UndecodableImage(t *testing.T) {
	f := newFixture(t)
	f.store.Seed("data", "family/broken.jpg", "image/jpeg", []byte("definitely not a jpeg"))
	svc := newMediaService(f, false)

	_, err := svc.Rendition(context.Background(), ports.MediaRequest{Gallery: "family", Filename: "broken.jpg", Principal: familyUser})
	assert.ErrorIs(t, err, model.ErrUnsupportedFormat)
	_, _, ok := f.store.Object("thumbs", "family/broken.jpg")
	assert.False(t, ok)
}

func TestRendition_OversizedSourceIsRejected(t *testing.T) {
	f := newFixture(t)
	data := pngBytes(t, 1, 1)
	binary.BigEndian.PutUint32(data[16:20], 40000)
	binary.BigEndian.PutUint32(data[20:24], 40000)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	f.store.Seed("data", "family/huge.png", "image/png", data)
	svc := newMediaService(f, false)

	_, err := svc.Rendition(context.Background(), ports.MediaRequest{Gallery: "family", Filename: "huge.png", Principal: familyUser})
	assert.ErrorIs(t, err, model.ErrUnsupportedFormat)
	_, _, ok := f.store.Object("thumbs", "family/huge.png")
	assert.False(t, ok)
}

func TestRendition_StorageErrors(t *testing.T) {
	f := newFixture(t)
	f.store.Seed("data", "family/a.jpg", "image/jpeg", jpegBytes(t, 20, 20))
	svc := newMediaService(f, false)
	req := ports.MediaRequest{Gallery: "family", Filename: "a.jpg", Principal: familyUser}
	boom := errors.New("connection reset")

	f.store.Fail(storetest.OpGet, "thumbs", "family/a.jpg", boom)
	_, err := svc.Rendition(context.Background(), req)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, f.store.ContainerCalls("data"))

	f.store.Fail(storetest.OpGet, "thumbs", "family/a.jpg", nil)
	f.store.Fail(storetest.OpPut, "thumbs", "family/a.jpg", boom)
	_, err = svc.Rendition(context.Background(), req)
	assert.ErrorIs(t, err, boom, "a failed write-back is not served")
	_, _, ok := f.store.Object("thumbs", "family/a.jpg")
	assert.False(t, ok)
}

func TestRendition_SingleFlightCollapsesConcurrentGenerations(t *testing.T) {
	f := newFixture(t)
	f.store.Seed("data", "family/a.jpg", "image/jpeg", jpegBytes(t, 400, 400))
	svc := newMediaService(f, true)

	release := make(chan struct{})
	f.store.BeforeGet = func(container, key string) {
		if container == "data" {
			<-release
		}
	}

	const callers = 5
	results := make([][]byte, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			content, err := svc.Rendition(context.Background(), ports.MediaRequest{Gallery: "family", Filename: "a.jpg", Principal: familyUser})
			errs[i] = err
			if err == nil {
				results[i] = readAll(t, content)
			}
		}()
	}

	assert.Eventually(t, func() bool {
		return countCalls(f.store, storetest.OpGet, "thumbs") >= callers
	}, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0], results[i])
	}
	assert.Len(t, f.store.Calls(storetest.OpPut), 1)

	assert.Equal(t, 1, countCalls(f.store, storetest.OpGet, "data"))
}

func TestOriginal_Streams(t *testing.T) {
	f := newFixture(t)
	f.store.Seed("data", "open/clip.mp4", "video/mp4", []byte("video-bytes"))
	f.store.Seed("data", "open/raw", "", []byte("raw"))
	svc := newMediaService(f, false)

	content, err := svc.Original(context.Background(), ports.MediaRequest{Gallery: "open", Filename: "clip.mp4"})
	require.NoError(t, err)
	assert.Equal(t, "video/mp4", content.ContentType)
	assert.Equal(t, service.OriginalCacheControl, content.CacheControl)
	assert.Equal(t, []byte("video-bytes"), readAll(t, content))

	content, err = svc.Original(context.Background(), ports.MediaRequest{Gallery: "open", Filename: "raw"})
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", content.ContentType)
	readAll(t, content)

	_, err = svc.Original(context.Background(), ports.MediaRequest{Gallery: "open", Filename: "missing"})
	assert.ErrorIs(t, err, model.ErrNotFound)
}
