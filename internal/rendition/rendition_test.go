package rendition_test

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/lightwaver/gallerix/internal/model"
	"github.com/lightwaver/gallerix/internal/rendition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalKey(t *testing.T) {
	cases := []struct {
		key  string
		kind model.RenditionKind
		want string
	}{
		{"gal/file.jpg", model.RenditionThumb, "gal/file.jpg"},
		{"gal/file.jpg", model.RenditionPreview, "gal/file_preview.jpg"},
		{"gal/file", model.RenditionPreview, "gal/file_preview"},
		{"gal.v2/file", model.RenditionPreview, "gal.v2/file_preview"},
		{"gal/archive.tar.gz", model.RenditionPreview, "gal/archive.tar_preview.gz"},
		{"gal/.hidden", model.RenditionPreview, "gal/.hidden_preview"},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, rendition.CanonicalKey(c.key, c.kind), c.key)
	}
}

func TestLegacyPreviewKey(t *testing.T) {
	assert.Equal(t, "preview/gallery/file.jpg", rendition.LegacyPreviewKey("gallery/file.jpg"))
	assert.Equal(t, []string{"g/a.png", "g/a_preview.png", "preview/g/a.png"}, rendition.Keys("g/a.png"))
}

func TestScaleDimensions(t *testing.T) {
	w, h := rendition.ScaleDimensions(100, 50, 360)
	assert.Equal(t, 100, w)
	assert.Equal(t, 50, h)

	w, h = rendition.ScaleDimensions(3000, 2000, 360)
	assert.Equal(t, 360, w)
	assert.Equal(t, 240, h)

	w, h = rendition.ScaleDimensions(2000, 3000, 360)
	assert.Equal(t, 240, w)
	assert.Equal(t, 360, h)

	w, h = rendition.ScaleDimensions(5000, 1, 360)
	assert.Equal(t, 360, w)
	assert.Equal(t, 1, h)
}

func TestPNGCompressionLevel(t *testing.T) {
	assert.Equal(t, 2, rendition.PNGCompressionLevel(82))
	assert.Equal(t, 0, rendition.PNGCompressionLevel(100))
	assert.Equal(t, 9, rendition.PNGCompressionLevel(1))
	assert.Equal(t, 5, rendition.PNGCompressionLevel(50))
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRender_PNGKeepsTransparency(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 400, 200))
	for y := 0; y < 200; y++ {
		for x := 200; x < 400; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}

	res, err := rendition.Render(encodePNG(t, src), rendition.Options{MaxSize: 360, Quality: 82})
	require.NoError(t, err)
	assert.Equal(t, rendition.ContentTypePNG, res.ContentType)
	assert.Equal(t, 360, res.Width)
	assert.Equal(t, 180, res.Height)

	out, err := png.Decode(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 360, 180), out.Bounds())

	_, _, _, a := out.At(10, 90).RGBA()
	assert.Zero(t, a, "transparent area must stay transparent")
	_, _, _, a = out.At(350, 90).RGBA()
	assert.Equal(t, uint32(0xffff), a)
}

func TestRender_JPEG(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 720, 480))
	for y := 0; y < 480; y++ {
		for x := 0; x < 720; x++ {
			src.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, src, nil))

	res, err := rendition.Render(buf.Bytes(), rendition.Options{MaxSize: 360, Quality: 82})
	require.NoError(t, err)
	assert.Equal(t, rendition.ContentTypeJPEG, res.ContentType)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 360, cfg.Width)
	assert.Equal(t, 240, cfg.Height)
}

func TestRender_GIFKeepsTransparency(t *testing.T) {
	pal := color.Palette{color.Transparent, color.RGBA{R: 255, A: 255}}
	src := image.NewPaletted(image.Rect(0, 0, 20, 20), pal)
	for y := 0; y < 20; y++ {
		for x := 10; x < 20; x++ {
			src.SetColorIndex(x, y, 1)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, src, nil))

	res, err := rendition.Render(buf.Bytes(), rendition.Options{MaxSize: 360, Quality: 82})
	require.NoError(t, err)
	assert.Equal(t, rendition.ContentTypeGIF, res.ContentType)
	assert.Equal(t, 20, res.Width, "never upscales")

	out, err := gif.Decode(bytes.NewReader(res.Data))
	require.NoError(t, err)
	_, _, _, a := out.At(2, 10).RGBA()
	assert.Zero(t, a)
	r, _, _, a := out.At(17, 10).RGBA()
	assert.Equal(t, uint32(0xffff), a)
	assert.Equal(t, uint32(0xffff), r)
}

func TestRender_UnsupportedFormat(t *testing.T) {
	_, err := rendition.Render([]byte("%PDF-1.4 not an image"), rendition.Options{MaxSize: 360, Quality: 82})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrUnsupportedFormat)
}

func TestRender_Deterministic(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 800, 600))
	for i := range src.Pix {
		src.Pix[i] = uint8(i * 7)
	}
	data := encodePNG(t, src)

	first, err := rendition.Render(data, rendition.Options{MaxSize: 360, Quality: 82})
	require.NoError(t, err)
	second, err := rendition.Render(data, rendition.Options{MaxSize: 360, Quality: 82})
	require.NoError(t, err)
	assert.Equal(t, first.Data, second.Data)
}

func TestPlaceholder(t *testing.T) {
	img, err := png.Decode(bytes.NewReader(rendition.Placeholder()))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 1, 1), img.Bounds())

	_, _, _, a := img.At(0, 0).RGBA()
	assert.Zero(t, a)
}

func TestPlaceholder_ReturnsCopy(t *testing.T) {
	first := rendition.Placeholder()
	first[0] = 0
	assert.NotEqual(t, first, rendition.Placeholder())
}

// oversizedPNG rewrites the IHDR of a tiny PNG so its header declares width x height.
func oversizedPNG(t *testing.T, width, height uint32) []byte {
	t.Helper()
	data := encodePNG(t, image.NewNRGBA(image.Rect(0, 0, 1, 1)))
	require.Equal(t, "IHDR", string(data[12:16]))

	binary.BigEndian.PutUint32(data[16:20], width)
	binary.BigEndian.PutUint32(data[20:24], height)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func TestRender_RejectsOversizedSource(t *testing.T) {
	data := oversizedPNG(t, 40000, 40000)
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 40000, cfg.Width)

	_, err = rendition.Render(data, rendition.Options{MaxSize: 360, Quality: 82})
	assert.ErrorIs(t, err, model.ErrUnsupportedFormat)

	_, err = rendition.Render(encodePNG(t, image.NewNRGBA(image.Rect(0, 0, 20, 20))), rendition.Options{MaxSize: 360, Quality: 82, MaxPixels: 100})
	assert.ErrorIs(t, err, model.ErrUnsupportedFormat)
}
