package rendition

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/lightwaver/gallerix/internal/model"
	"golang.org/x/image/draw"
)

const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeGIF  = "image/gif"
)

// DefaultMaxPixels bounds the decoded size of a source image when Options.MaxPixels is unset.
const DefaultMaxPixels = 50_000_000

// Options controls one rendering.
type Options struct {
	MaxSize int
	Quality int
	// MaxPixels rejects sources whose header declares more pixels.
	MaxPixels int
}

// Result is an encoded rendition.
type Result struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// Render decodes src, scales it to fit opts.MaxSize and re-encodes it in the
// same family: PNG stays PNG, GIF stays GIF, anything else becomes JPEG.
// Undecodable or oversized input fails with model.ErrUnsupportedFormat.
func Render(src []byte, opts Options) (*Result, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrUnsupportedFormat, err)
	}
	maxPixels := opts.MaxPixels
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", model.ErrUnsupportedFormat, cfg.Width, cfg.Height, maxPixels)
	}

	img, format, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrUnsupportedFormat, err)
	}

	bounds := img.Bounds()
	dstW, dstH := ScaleDimensions(bounds.Dx(), bounds.Dy(), opts.MaxSize)
	keepAlpha := format == "png" || format == "gif"

	var dst draw.Image
	if keepAlpha {
		// zero value is fully transparent
		dst = image.NewNRGBA(image.Rect(0, 0, dstW, dstH))
	} else {
		dst = image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	var contentType string
	switch format {
	case "png":
		contentType = ContentTypePNG
		enc := png.Encoder{CompressionLevel: zlibToPNGLevel(PNGCompressionLevel(opts.Quality))}
		err = enc.Encode(&buf, dst)
	case "gif":
		contentType = ContentTypeGIF
		err = gif.Encode(&buf, toPaletted(dst), nil)
	default:
		contentType = ContentTypeJPEG
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: opts.Quality})
	}
	if err != nil {
		return nil, fmt.Errorf("%w: encode %s: %v", model.ErrGenerationFailure, contentType, err)
	}

	return &Result{
		Data:        buf.Bytes(),
		ContentType: contentType,
		Width:       dstW,
		Height:      dstH,
	}, nil
}

// zlibToPNGLevel buckets a 0..9 zlib level onto the levels image/png exposes.
func zlibToPNGLevel(level int) png.CompressionLevel {
	switch {
	case level == 0:
		return png.NoCompression
	case level <= 3:
		return png.BestSpeed
	case level <= 6:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}

var webSafe = color.Palette(palette.WebSafe)

// gifPalette reserves index 0 for transparency.
var gifPalette = append(color.Palette{color.NRGBA{}}, webSafe...)

func toPaletted(img image.Image) *image.Paletted {
	b := img.Bounds()
	out := image.NewPaletted(b, gifPalette)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if c.A < 0x80 {
				out.SetColorIndex(x, y, 0)
				continue
			}
			c.A = 0xff
			out.SetColorIndex(x, y, uint8(1+webSafe.Index(c)))
		}
	}
	return out
}
