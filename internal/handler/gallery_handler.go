package handler

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lightwaver/gallerix/config"
	"github.com/lightwaver/gallerix/internal/model"
	"github.com/lightwaver/gallerix/internal/model/requestresponse"
	"github.com/lightwaver/gallerix/internal/ports"
	"github.com/lightwaver/gallerix/internal/security"
	"github.com/lightwaver/gallerix/internal/util"
)

// uploadField is the multipart field carrying the file.
const uploadField = "file"

type GalleryHandler struct {
	ports.GalleryService
	upload config.UploadConfig
}

func NewGalleryHandler(galleryService ports.GalleryService, upload *config.UploadConfig) *GalleryHandler {
	return &GalleryHandler{galleryService, *upload}
}

// ListGalleries godoc
// @Summary Galleries of the current user
// @Description Galleries whose view roles the caller holds, with cover URLs, and whether the caller may create galleries.
// @Tags Galleries
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} requestresponse.GalleriesResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/galleries [get]
func (h *GalleryHandler) ListGalleries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, _ := security.PrincipalFromContext(ctx)

	galleries, canCreate, err := h.GalleryService.ListForPrincipal(ctx, principal, security.TokenFromContext(ctx))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if galleries == nil {
		galleries = []model.GallerySummary{}
	}
	util.WriteJSON(w, http.StatusOK, requestresponse.GalleriesResponse{Galleries: galleries, CanCreate: canCreate})
}

// ListPublicGalleries godoc
// @Summary Public galleries
// @Tags Galleries
// @Produce json
// @Success 200 {object} requestresponse.PublicGalleriesResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/public-galleries [get]
func (h *GalleryHandler) ListPublicGalleries(w http.ResponseWriter, r *http.Request) {
	galleries, err := h.GalleryService.ListPublic(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if galleries == nil {
		galleries = []model.GallerySummary{}
	}
	util.WriteJSON(w, http.StatusOK, requestresponse.PublicGalleriesResponse{Galleries: galleries})
}

// CreateGallery godoc
// @Summary Create a gallery
// @Description The new gallery's view, upload and admin roles are the creator's roles.
// @Tags Galleries
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body requestresponse.CreateGalleryRequest true "Gallery"
// @Success 201 {object} model.Gallery
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Failure 409 {object} requestresponse.ErrorResponse "Name already taken"
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/galleries [post]
func (h *GalleryHandler) CreateGallery(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.CreateGalleryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	principal, _ := security.PrincipalFromContext(r.Context())

	created, err := h.GalleryService.Create(r.Context(), principal, model.Gallery{
		Name:        req.Name,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusCreated, created)
}

// ListItems godoc
// @Summary Gallery items
// @Description Direct children of the gallery with media URLs. Public galleries need no credential.
// @Tags Galleries
// @Produce json
// @Security ApiKeyAuth
// @Param name path string true "Gallery name"
// @Success 200 {object} requestresponse.ItemsResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/galleries/{name}/items [get]
func (h *GalleryHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, _ := security.PrincipalFromContext(ctx)

	gallery, err := h.GalleryService.ResolveForView(ctx, chi.URLParam(r, "name"), principal, security.AuthErrorFromContext(ctx))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	items, err := h.GalleryService.ListItems(ctx, gallery.Name, security.TokenFromContext(ctx))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, requestresponse.ItemsResponse{
		Gallery: requestresponse.GalleryRef{Name: gallery.Name, Title: gallery.DisplayTitle()},
		Items:   items,
	})
}

// Upload godoc
// @Summary Upload a file
// @Description Streams the multipart field "file" into the gallery. Existing thumbnails and previews of that file are discarded.
// @Tags Galleries
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param name path string true "Gallery name"
// @Param file formData file true "Media file"
// @Success 201 {object} requestresponse.UploadResponse
// @Failure 400 {object} requestresponse.ErrorResponse "Missing file, partial upload or size limit exceeded"
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/galleries/{name}/upload [post]
func (h *GalleryHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, _ := security.PrincipalFromContext(ctx)

	gallery, err := h.GalleryService.AuthorizeUpload(ctx, chi.URLParam(r, "name"), principal, security.AuthErrorFromContext(ctx))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.upload.MaxBytes)
	reader, err := r.MultipartReader()
	if err != nil {
		util.HandleError(w, "expected a multipart/form-data body", http.StatusBadRequest)
		return
	}

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			writeServiceError(w, r, fmt.Errorf("%w: send the file in the %q field", model.ErrUploadMissingFile, uploadField))
			return
		}
		if err != nil {
			writeServiceError(w, r, h.uploadReadError(err))
			return
		}
		if part.FormName() != uploadField || part.FileName() == "" {
			part.Close()
			continue
		}

		filename := part.FileName()
		body := &trackingReader{r: part}
		err = h.GalleryService.Upload(ctx, gallery, filename, part.Header.Get("Content-Type"), body)
		part.Close()
		if err != nil {
			if body.err != nil {
				err = h.uploadReadError(body.err)
			}
			writeServiceError(w, r, err)
			return
		}

		log.Printf("[GalleryHandler] uploaded %s/%s", gallery.Name, filename)
		util.WriteJSON(w, http.StatusCreated, requestresponse.UploadResponse{OK: true, Name: filename})
		return
	}
}

// uploadReadError turns a failure reading the request body into an upload error.
func (h *GalleryHandler) uploadReadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("%w: the limit is %s", model.ErrUploadTooLarge, formatBytes(h.upload.MaxBytes))
	}
	return fmt.Errorf("%w (limit %s)", model.ErrUploadPartial, formatBytes(h.upload.MaxBytes))
}

// trackingReader remembers the first read error so it can be told apart from a storage failure.
type trackingReader struct {
	r   io.Reader
	err error
}

func (t *trackingReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) && t.err == nil {
		t.err = err
	}
	return n, err
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
