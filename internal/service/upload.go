package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_upload_service.go -package=mocks huginn/internal/service UploadService
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_ingester.go -package=mocks huginn/internal/service Ingester

import (
	"context"
	"errors"
	"io"

	"huginn/internal/archive"
	"huginn/internal/contextutil"
	"huginn/internal/ingest"
	"huginn/internal/manifest"
)

// Upload result statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// MessageManifestMissing is reported when an archive carries no manifest.
const MessageManifestMissing = "No notes.json found"

// Ingester runs the ingestion pipeline for one payload.
type Ingester interface {
	Ingest(ctx context.Context, payload io.Reader) (*ingest.Summary, error)
}

// UploadResult represents the outcome of an upload in the domain layer.
type UploadResult struct {
	Status             string
	Message            string
	UploadID           string
	NotesInserted      int
	AttachmentsAdded   int
	AttachmentsSkipped int
}

// UploadService accepts note archives.
type UploadService interface {
	// Upload ingests an archive payload. A missing manifest is reported in the
	// result with StatusError and a nil error; other failures are returned.
	Upload(ctx context.Context, payload io.Reader) (UploadResult, error)
}

type uploadService struct {
	ingester Ingester
}

// NewUploadService creates a new UploadService.
func NewUploadService(ingester Ingester) UploadService {
	return &uploadService{ingester: ingester}
}

// Upload ingests payload and classifies failures.
func (s *uploadService) Upload(ctx context.Context, payload io.Reader) (UploadResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	summary, err := s.ingester.Ingest(ctx, payload)
	if err != nil {
		var decodeErr *archive.DecodeError
		var parseErr *manifest.ParseError

		switch {
		case errors.Is(err, archive.ErrManifestMissing):
			logger.WarnContext(ctx, "upload has no manifest")
			return UploadResult{Status: StatusError, Message: MessageManifestMissing}, nil
		case errors.As(err, &decodeErr), errors.As(err, &parseErr):
			logger.WarnContext(ctx, "rejected upload", "error", err)
			return UploadResult{}, markError(ErrInvalidInput, err)
		case errors.Is(err, context.DeadlineExceeded):
			logger.ErrorContext(ctx, "upload timed out", "error", err)
			return UploadResult{}, markError(ErrTimeout, err)
		default:
			logger.ErrorContext(ctx, "failed to ingest upload", "error", err)
			return UploadResult{}, WrapError(err, "failed to ingest upload")
		}
	}

	return UploadResult{
		Status:             StatusOK,
		UploadID:           summary.UploadID,
		NotesInserted:      summary.NotesInserted,
		AttachmentsAdded:   summary.AttachmentsAdded,
		AttachmentsSkipped: summary.AttachmentsSkipped,
	}, nil
}
