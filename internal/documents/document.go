// Package documents implements the document domain: upload and registration
// of the files submitted for compliance auditing, metadata management, and
// blob storage integration.
package documents

import (
	"time"

	"github.com/google/uuid"
)

// Document statuses. A document is registered on upload, auditing while a
// job is in flight, and audited once at least one job has reached a
// terminal state.
const (
	StatusRegistered = "registered"
	StatusAuditing   = "auditing"
	StatusAudited    = "audited"
)

// Document represents a registered document with its metadata and blob
// storage reference. UploaderHash is an opaque identifier for the submitting
// party; raw identities are never stored.
type Document struct {
	ID           uuid.UUID `json:"id"`
	Filename     string    `json:"filename"`
	ContentType  string    `json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	PageCount    *int      `json:"page_count"`
	Department   string    `json:"department"`
	UploaderHash string    `json:"uploader_hash"`
	StorageKey   string    `json:"storage_key"`
	Status       string    `json:"status"`
	UploadedAt   time.Time `json:"uploaded_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateCommand is the input for registering an uploaded document. Data is
// the raw file content; a nil PageCount is stored as NULL for non-PDF
// uploads.
type CreateCommand struct {
	Data         []byte
	Filename     string
	ContentType  string
	Department   string
	UploaderHash string
	PageCount    *int
}
