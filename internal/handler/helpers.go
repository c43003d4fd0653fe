package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/lightwaver/gallerix/internal/model"
	"github.com/lightwaver/gallerix/internal/security"
	"github.com/lightwaver/gallerix/internal/util"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

// writeServiceError maps service errors onto status codes. Only 4xx messages
// reach the client; everything else is logged and answered generically.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidCredential):
		util.HandleError(w, "invalid credentials", http.StatusUnauthorized)
	case security.IsAuthError(err):
		util.HandleError(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, model.ErrForbidden):
		util.HandleError(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, model.ErrNotFound):
		util.HandleError(w, "not found", http.StatusNotFound)
	case errors.Is(err, model.ErrConflict):
		util.HandleError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, model.ErrBadRequest),
		errors.Is(err, model.ErrUploadTooLarge),
		errors.Is(err, model.ErrUploadPartial),
		errors.Is(err, model.ErrUploadMissingFile):
		util.HandleError(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("[Handler] %s %s: %v", r.Method, r.URL.Path, err)
		util.HandleError(w, "internal server error", http.StatusInternalServerError)
	}
}

// decodeJSON reads a bounded JSON body into v and answers 400 itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		util.HandleError(w, fmt.Sprintf("invalid JSON body: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}
