// Package rendition derives thumbnails and previews from original images and
// names them in the thumbnail container.
package rendition

import (
	"path"
	"strings"

	"github.com/lightwaver/gallerix/internal/model"
)

const (
	previewSuffix = "_preview"
	legacyPrefix  = "preview/"
)

// CanonicalKey is where a rendition of originalKey lives in the thumbnail container.
// Thumbnails reuse the original key; previews insert "_preview" before the
// filename extension, or append it when the filename has none.
func CanonicalKey(originalKey string, kind model.RenditionKind) string {
	if kind != model.RenditionPreview {
		return originalKey
	}

	dir, file := path.Split(originalKey)
	ext := path.Ext(file)
	if ext == "" || ext == file {
		return originalKey + previewSuffix
	}
	return dir + strings.TrimSuffix(file, ext) + previewSuffix + ext
}

// LegacyPreviewKey is the pre-migration location of a preview. It is only ever read.
func LegacyPreviewKey(originalKey string) string {
	return legacyPrefix + originalKey
}

// Keys lists every rendition key derived from originalKey, legacy included.
func Keys(originalKey string) []string {
	return []string{
		CanonicalKey(originalKey, model.RenditionThumb),
		CanonicalKey(originalKey, model.RenditionPreview),
		LegacyPreviewKey(originalKey),
	}
}
