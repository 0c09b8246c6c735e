// Package ingest turns uploaded archives into stored, searchable notes.
package ingest

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_ingest.go -package=mocks huginn/internal/ingest Extractor,Mirror

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"huginn/internal/archive"
	"huginn/internal/contextutil"
	"huginn/internal/manifest"
	"huginn/internal/storage"
)

// Extractor unpacks an archive payload and locates its manifest.
type Extractor interface {
	Extract(ctx context.Context, r io.Reader) (*archive.Extraction, error)
}

// Mirror keeps a copy of raw upload payloads.
type Mirror interface {
	Put(ctx context.Context, key string, data []byte) error
}

// Summary describes a completed ingestion.
type Summary struct {
	UploadID           string
	NotesInserted      int
	AttachmentsAdded   int
	AttachmentsSkipped int
	ExtractDir         string
}

// Pipeline orchestrates extraction, manifest parsing and storage of one upload.
type Pipeline struct {
	extractor Extractor
	notes     storage.NoteStore
	mirror    Mirror
	timeout   time.Duration
	now       func() time.Time
}

// NewPipeline creates a new ingestion pipeline. mirror may be nil.
// A timeout <= 0 leaves the caller's deadline untouched.
func NewPipeline(extractor Extractor, notes storage.NoteStore, mirror Mirror, timeout time.Duration) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		notes:     notes,
		mirror:    mirror,
		timeout:   timeout,
		now:       time.Now,
	}
}

// Ingest extracts payload, parses its manifest and stores every note with its
// attachments in a single transaction. Any failure leaves the store untouched.
//
// archive.ErrManifestMissing, *archive.DecodeError, *manifest.ParseError and
// *storage.StoreError are returned wrapped so callers can match them.
func (p *Pipeline) Ingest(ctx context.Context, payload io.Reader) (*Summary, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	summary := &Summary{UploadID: uuid.New().String()}
	logger := contextutil.LoggerFromContext(ctx).With("upload_id", summary.UploadID)

	if p.mirror != nil {
		data, err := io.ReadAll(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to read upload: %w", err)
		}
		key := UploadKey(p.now(), summary.UploadID)
		if err := p.mirror.Put(ctx, key, data); err != nil {
			logger.WarnContext(ctx, "failed to mirror upload", "key", key, "error", err)
		} else {
			logger.DebugContext(ctx, "mirrored upload", "key", key, "bytes", len(data))
		}
		payload = bytes.NewReader(data)
	}

	ext, err := p.extractor.Extract(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to extract archive: %w", err)
	}
	summary.ExtractDir = ext.Dir
	logger.DebugContext(ctx, "extracted archive", "dir", ext.Dir, "files", len(ext.Files), "bytes", ext.Bytes)

	notes, err := manifest.ParseFile(ext.ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	err = p.notes.WithTx(ctx, func(tx storage.NoteStore) error {
		added, skipped := 0, 0
		for _, note := range notes {
			if err := ctx.Err(); err != nil {
				return err
			}

			record := &storage.NoteRecord{
				ID:        note.ID,
				Content:   note.Text,
				CreatedAt: note.Timestamp,
			}
			if err := tx.UpsertNote(ctx, record); err != nil {
				return fmt.Errorf("failed to upsert note %s: %w", note.ID, err)
			}

			for _, att := range note.Attachments {
				inserted, err := tx.AddAttachment(ctx, &storage.AttachmentRecord{
					NoteID:   note.ID,
					FileName: att.FileName,
					FileType: att.FileType,
					FilePath: filepath.Join(ext.Dir, att.FilePath),
				})
				if err != nil {
					return fmt.Errorf("failed to add attachment %s to note %s: %w", att.FileName, note.ID, err)
				}
				if inserted {
					added++
				} else {
					skipped++
				}
			}
		}
		summary.AttachmentsAdded = added
		summary.AttachmentsSkipped = skipped
		return nil
	})
	if err != nil {
		return nil, err
	}

	summary.NotesInserted = len(notes)
	logger.InfoContext(ctx, "ingested upload",
		"notes", summary.NotesInserted,
		"attachments_added", summary.AttachmentsAdded,
		"attachments_skipped", summary.AttachmentsSkipped,
	)
	return summary, nil
}

// UploadKey returns the object key used to mirror an upload received at t.
func UploadKey(t time.Time, uploadID string) string {
	return fmt.Sprintf("uploads/%s/%s", t.UTC().Format("2006-01-02"), uploadID)
}
