package model

import "errors"

var (
	ErrBadRequest        = errors.New("bad request")
	ErrUnauthenticated   = errors.New("missing credential")
	ErrInvalidToken      = errors.New("invalid token")
	ErrInvalidCredential = errors.New("invalid credentials")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("already exists")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrGenerationFailure = errors.New("rendition generation failed")

	ErrUploadTooLarge    = errors.New("upload exceeds size limit")
	ErrUploadPartial     = errors.New("upload was only partially received")
	ErrUploadMissingFile = errors.New("missing file field")
)
