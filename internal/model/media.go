package model

import (
	"io"
	"path"
	"strings"
)

// RenditionKind selects which derived copy of an original is requested.
type RenditionKind string

const (
	RenditionThumb   RenditionKind = "thumb"
	RenditionPreview RenditionKind = "preview"
)

// ParseRenditionKind maps the size selector to a kind; anything but "preview" is a thumbnail.
func ParseRenditionKind(s string) RenditionKind {
	if s == string(RenditionPreview) {
		return RenditionPreview
	}
	return RenditionThumb
}

// Item types reported by the gallery listing.
const (
	ItemTypeImage = "image"
	ItemTypeVideo = "video"
	ItemTypePDF   = "pdf"
)

// ObjectKey is the storage key of an original: gallery/filename.
func ObjectKey(gallery, filename string) string {
	return strings.TrimRight(gallery, "/") + "/" + filename
}

// ValidFilename reports whether name is usable as a single path segment.
func ValidFilename(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/\\") && path.Base(name) == name
}

// ObjectInfo describes an object returned by a listing.
type ObjectInfo struct {
	Key           string
	ContentType   string
	ContentLength int64
}

// StoredObject is a fetched object. Callers must close Body.
type StoredObject struct {
	Key           string
	ContentType   string
	ContentLength int64
	Body          io.ReadCloser
}

// MediaContent is what the media endpoints stream back to the client.
type MediaContent struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
	CacheControl  string
}

// MediaItem is one entry of a gallery listing.
type MediaItem struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
	URL         string `json:"url"`
	ThumbURL    string `json:"thumbUrl,omitempty"`
	PreviewURL  string `json:"previewUrl,omitempty"`
}

// GallerySummary is how a gallery appears in directory views.
type GallerySummary struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CoverURL    string `json:"cover,omitempty"`
}
