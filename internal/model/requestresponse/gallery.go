package requestresponse

import "github.com/lightwaver/gallerix/internal/model"

// GalleriesResponse : galleries visible to the caller
type GalleriesResponse struct {
	Galleries []model.GallerySummary `json:"galleries"`
	CanCreate bool                   `json:"canCreate"`
}

// PublicGalleriesResponse : galleries readable without a credential
type PublicGalleriesResponse struct {
	Galleries []model.GallerySummary `json:"galleries"`
}

// CreateGalleryRequest : body of POST /api/galleries
type CreateGalleryRequest struct {
	Name        string `json:"name" example:"holidays-2024"`
	Title       string `json:"title" example:"Holidays 2024"`
	Description string `json:"description" example:"Summer trip"`
}

// GalleryRef : name and title of a gallery
type GalleryRef struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// ItemsResponse : listing of a gallery
type ItemsResponse struct {
	Gallery GalleryRef        `json:"gallery"`
	Items   []model.MediaItem `json:"items"`
}

// UploadResponse : successful upload
type UploadResponse struct {
	OK   bool   `json:"ok" example:"true"`
	Name string `json:"name" example:"beach.jpg"`
}
