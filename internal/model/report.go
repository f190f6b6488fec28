package model

import "time"

// Report is an opaque reference to a file stored by the upload subsystem.
// The core never touches file bytes; it only tracks which project milestones
// a report satisfies. One report can satisfy the same milestone for several
// sister projects.
type Report struct {
	ID           int       `json:"id"`
	StorageKey   string    `json:"storage_key"`
	Path         string    `json:"path"`
	Hash         string    `json:"hash"`
	UploadedByID int       `json:"uploaded_by_id"`
	UploadedAt   time.Time `json:"uploaded_at"`
}
