package policies

import (
	"errors"
	"net/http"
)

// Domain errors for policy operations.
var (
	ErrNotFound  = errors.New("policy not found")
	ErrDuplicate = errors.New("policy id already exists")
)

// MapHTTPStatus maps policy domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
