package service_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"testing"

	"github.com/lightwaver/gallerix/config"
	"github.com/lightwaver/gallerix/internal/model"
	"github.com/lightwaver/gallerix/internal/repository"
	"github.com/lightwaver/gallerix/internal/storetest"
	"github.com/stretchr/testify/require"
)

var testContainers = config.ContainersConfig{Config: "config", Data: "data", Thumbs: "thumbs"}

var (
	familyUser = &model.Principal{Username: "fam", Roles: []string{"family"}}
	friendUser = &model.Principal{Username: "friend", Roles: []string{"friends"}}
)

type fixture struct {
	store      *storetest.Store
	configRepo *repository.ConfigRepository
}

// newFixture seeds three galleries: "family" (private), "open" (public) and "friends".
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := storetest.New()
	repo := repository.NewConfigRepository(store, nil, testContainers.Config)

	require.NoError(t, repo.SaveGalleries(ctx, []model.Gallery{
		{Name: "family", Title: "Family", Roles: model.RoleRequirements{View: []string{"family"}, Upload: []string{"family"}}},
		{Name: "open", Roles: model.RoleRequirements{View: []string{"public", "family"}, Upload: []string{"family"}}},
		{Name: "friends", Description: "friends only", Roles: model.RoleRequirements{View: []string{"friends"}}},
	}))
	require.NoError(t, repo.SaveRoles(ctx, &model.RolesDocument{Global: model.RoleRequirements{CreateGallery: []string{"family"}}}))
	store.ResetCalls()

	return &fixture{store: store, configRepo: repo}
}

func readAll(t *testing.T, content *model.MediaContent) []byte {
	t.Helper()
	defer content.Body.Close()
	data, err := io.ReadAll(content.Body)
	require.NoError(t, err)
	return data
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := w / 2; x < w; x++ {
		for y := 0; y < h; y++ {
			img.SetNRGBA(x, y, color.NRGBA{G: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func gifBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewPaletted(image.Rect(0, 0, w, h), color.Palette{color.Transparent, color.White})
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, img, nil))
	return buf.Bytes()
}

func countCalls(store *storetest.Store, op, container string) int {
	n := 0
	for _, c := range store.Calls(op) {
		if c.Container == container {
			n++
		}
	}
	return n
}
