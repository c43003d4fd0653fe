package rendition

import (
	"math"
)

// ScaleDimensions fits srcW x srcH into a maxSize square without upscaling.
// Each axis is at least one pixel.
func ScaleDimensions(srcW, srcH, maxSize int) (int, int) {
	w := float64(max(1, srcW))
	h := float64(max(1, srcH))
	m := float64(maxSize)

	scale := math.Min(math.Min(m/w, m/h), 1.0)

	dstW := max(1, int(math.Round(w*scale)))
	dstH := max(1, int(math.Round(h*scale)))
	return dstW, dstH
}

// PNGCompressionLevel maps a 1..100 quality onto zlib levels 0..9; higher quality compresses less.
func PNGCompressionLevel(quality int) int {
	level := int(math.Round(float64(100-quality) / 10))
	return min(max(level, 0), 9)
}
