package audits

import (
	"errors"
	"net/http"
)

// Domain errors for audit operations.
var (
	ErrNotFound  = errors.New("audit not found")
	ErrDuplicate = errors.New("audit already exists")
	ErrEmptyText = errors.New("document text is empty")
	ErrNoBundle  = errors.New("audit bundle not available")
)

// MapHTTPStatus maps audit domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNoBundle) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrEmptyText) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
