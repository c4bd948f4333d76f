package memorybank

import (
	"errors"
	"net/http"
)

// Domain errors for Memory Bank operations.
var (
	ErrNotFound          = errors.New("memory bank entity not found")
	ErrDuplicate         = errors.New("memory bank entity already exists")
	ErrEmbeddingVersion  = errors.New("embedding version mismatch")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrEmptyQuery        = errors.New("search query must not be empty")
)

// MapHTTPStatus maps Memory Bank domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrEmbeddingVersion) ||
		errors.Is(err, ErrDimensionMismatch) ||
		errors.Is(err, ErrEmptyQuery) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
