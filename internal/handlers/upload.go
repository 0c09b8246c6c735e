package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"huginn/internal/archive"
	"huginn/internal/contextutil"
	"huginn/internal/service"
)

// UploadHandler handles HTTP requests carrying note archives.
type UploadHandler struct {
	uploadService service.UploadService
	maxBytes      int64
}

// NewUploadHandler creates a new UploadHandler. maxBytes <= 0 disables the body limit.
func NewUploadHandler(uploadService service.UploadService, maxBytes int64) *UploadHandler {
	return &UploadHandler{
		uploadService: uploadService,
		maxBytes:      maxBytes,
	}
}

// UploadResponse represents the HTTP response payload for an upload.
type UploadResponse struct {
	Status             string `json:"status"`
	Message            string `json:"message,omitempty"`
	UploadID           string `json:"upload_id,omitempty"`
	NotesInserted      *int   `json:"notes_inserted,omitempty"`
	AttachmentsAdded   *int   `json:"attachments_added,omitempty"`
	AttachmentsSkipped *int   `json:"attachments_skipped,omitempty"`
}

// ServeHTTP ingests the raw request body as a compressed tar archive.
func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(ctx, w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	body := r.Body
	if h.maxBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}

	result, err := h.uploadService.Upload(ctx, body)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	if result.Status != service.StatusOK {
		writeJSON(ctx, w, http.StatusBadRequest, UploadResponse{
			Status:  result.Status,
			Message: result.Message,
		})
		return
	}

	writeJSON(ctx, w, http.StatusOK, UploadResponse{
		Status:             result.Status,
		UploadID:           result.UploadID,
		NotesInserted:      &result.NotesInserted,
		AttachmentsAdded:   &result.AttachmentsAdded,
		AttachmentsSkipped: &result.AttachmentsSkipped,
	})
}

// handleServiceError maps upload failures to status codes. The body keeps the
// {"status":"error","message":...} shape of the structured failure result.
func (h *UploadHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		logger.WarnContext(ctx, "upload too large", "limit", tooLarge.Limit)
		h.writeFailure(w, r, http.StatusRequestEntityTooLarge, fmt.Sprintf("Upload exceeds %d bytes", tooLarge.Limit))
	case errors.Is(err, archive.ErrTooLarge):
		logger.WarnContext(ctx, "archive content too large", "error", err)
		h.writeFailure(w, r, http.StatusRequestEntityTooLarge, "Archive content exceeds extraction limit")
	case errors.Is(err, service.ErrInvalidInput):
		h.writeFailure(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrTimeout):
		h.writeFailure(w, r, http.StatusGatewayTimeout, "Upload processing timed out")
	default:
		logger.ErrorContext(ctx, "service error", "error", err)
		h.writeFailure(w, r, http.StatusInternalServerError, "Failed to process upload")
	}
}

func (h *UploadHandler) writeFailure(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	writeJSON(r.Context(), w, statusCode, UploadResponse{
		Status:  service.StatusError,
		Message: message,
	})
}
