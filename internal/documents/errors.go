package documents

import (
	"errors"
	"net/http"
)

// Domain errors for document operations.
var (
	ErrNotFound      = errors.New("document not found")
	ErrDuplicate     = errors.New("document already exists")
	ErrFileTooLarge  = errors.New("file exceeds maximum upload size")
	ErrInvalidFile   = errors.New("invalid file")
	ErrNotText       = errors.New("document content is not text")
	ErrInvalidStatus = errors.New("document is not in a valid status for this operation")
)

// MapHTTPStatus resolves a document error to its HTTP status code.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrFileTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	if errors.Is(err, ErrInvalidFile) || errors.Is(err, ErrNotText) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrInvalidStatus) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
