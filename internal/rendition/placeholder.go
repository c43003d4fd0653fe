package rendition

import (
	"bytes"
	"image"
	"image/png"
	"sync"
)

// placeholderPNG is a 1x1 fully transparent PNG served in place of renditions
// for non-image originals.
var placeholderPNG = sync.OnceValue(func() []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 1, 1))); err != nil {
		panic(err)
	}
	return buf.Bytes()
})

// Placeholder returns a copy of the placeholder image bytes.
func Placeholder() []byte {
	return bytes.Clone(placeholderPNG())
}
