package handler

import (
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/lightwaver/gallerix/internal/model"
	"github.com/lightwaver/gallerix/internal/ports"
	"github.com/lightwaver/gallerix/internal/security"
)

// MediaHandler serves /image and /thumb. Both read the credential from the
// session cookie, the t query parameter or the Authorization header.
type MediaHandler struct {
	ports.MediaService
	verifier   security.TokenVerifier
	cookieName string
}

func NewMediaHandler(mediaService ports.MediaService, verifier security.TokenVerifier, cookieName string) *MediaHandler {
	return &MediaHandler{
		MediaService: mediaService,
		verifier:     verifier,
		cookieName:   cookieName,
	}
}

// mediaRequest resolves the credential without rejecting: public galleries
// need none, and the service decides once the gallery is known.
func (h *MediaHandler) mediaRequest(r *http.Request) ports.MediaRequest {
	q := r.URL.Query()
	req := ports.MediaRequest{
		Gallery:  q.Get("g"),
		Filename: q.Get("f"),
		Kind:     model.ParseRenditionKind(q.Get("s")),
	}

	if token, ok := security.ExtractCredential(r, h.cookieName); ok {
		req.Principal, req.AuthErr = h.verifier.Verify(token)
	}
	return req
}

// Image godoc
// @Summary Original media
// @Description Streams the original object. Public galleries need no credential.
// @Tags Media
// @Produce octet-stream
// @Param g query string true "Gallery name"
// @Param f query string true "File name"
// @Param t query string false "Session token"
// @Success 200 {file} binary
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /image [get]
func (h *MediaHandler) Image(w http.ResponseWriter, r *http.Request) {
	content, err := h.MediaService.Original(r.Context(), h.mediaRequest(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMedia(w, r, content)
}

// Thumb godoc
// @Summary Thumbnail or preview
// @Description Serves a cached rendition, migrates a legacy preview or derives one from the original.
// @Description Non-image originals get a 1x1 transparent PNG.
// @Tags Media
// @Produce png,jpeg,gif
// @Param g query string true "Gallery name"
// @Param f query string true "File name"
// @Param s query string false "thumb (default) or preview"
// @Param t query string false "Session token"
// @Success 200 {file} binary
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /thumb [get]
func (h *MediaHandler) Thumb(w http.ResponseWriter, r *http.Request) {
	content, err := h.MediaService.Rendition(r.Context(), h.mediaRequest(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMedia(w, r, content)
}

func writeMedia(w http.ResponseWriter, r *http.Request, content *model.MediaContent) {
	defer content.Body.Close()

	header := w.Header()
	header.Set("Content-Type", content.ContentType)
	header.Set("Cache-Control", content.CacheControl)
	header.Set("X-Content-Type-Options", "nosniff")
	if content.ContentLength > 0 {
		header.Set("Content-Length", strconv.FormatInt(content.ContentLength, 10))
	}
	w.WriteHeader(http.StatusOK)

	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, content.Body); err != nil {
		log.Printf("[MediaHandler] stream %s: %v", r.URL.Path, err)
	}
}
