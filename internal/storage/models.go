package storage

import "fmt"

// NoteRecord represents a note row in the database.
type NoteRecord struct {
	ID          string  // Externally supplied identifier, stable across uploads
	Content     string  // Note text, mirrored into notes_fts
	CreatedAt   *string // Original timestamp as supplied by the manifest
	UpdatedAt   *string // Never written by ingestion
	ContentHash *string
	Summary     *string
	Tags        *string
}

// AttachmentRecord represents an attachment row in the database.
type AttachmentRecord struct {
	ID       int64
	NoteID   string  // Foreign key to notes.id
	FileName string
	FileType *string // MIME type, may be unknown
	FilePath string  // Location on disk inside the upload's extraction directory
}

// Stats holds row counts for the store.
type Stats struct {
	Notes       int
	Attachments int
}

// StoreError is returned when a database operation fails.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
