package entity

import "time"

type StorageBackend string

const (
	StorageBackendLocal StorageBackend = "local"
	StorageBackendB2    StorageBackend = "b2"
)

// Payment belongs to exactly one booking. Rows are only ever inserted; an
// update to a booking replaces its whole payment set.
type Payment struct {
	ID             int64          `json:"id,omitempty"`
	Date           time.Time      `json:"date" validate:"required"`
	Amount         int64          `json:"amount" validate:"gt=0"`
	Note           string         `json:"note" validate:"max=500"`
	ProofFilename  *string        `json:"proof_filename,omitempty"`
	ProofURL       *string        `json:"proof_url,omitempty" validate:"omitempty,url"`
	StorageBackend StorageBackend `json:"storage_backend" validate:"omitempty,oneof=local b2"`
}

// Backend returns the storage backend, defaulting to local.
func (p Payment) Backend() StorageBackend {
	if p.StorageBackend == "" {
		return StorageBackendLocal
	}
	return p.StorageBackend
}
