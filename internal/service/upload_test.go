package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"huginn/internal/archive"
	"huginn/internal/ingest"
	"huginn/internal/manifest"
	"huginn/internal/service"
	"huginn/internal/service/mocks"
	"huginn/internal/storage"
)

func TestNewUploadService(t *testing.T) {
	ctrl := gomock.NewController(t)

	svc := service.NewUploadService(mocks.NewMockIngester(ctrl))
	if svc == nil {
		t.Fatal("NewUploadService() returned nil")
	}
}

func TestUploadService_Upload(t *testing.T) {
	tests := []struct {
		name         string
		ingestErr    error
		summary      *ingest.Summary
		wantErr      error
		wantInternal bool
		wantResult   service.UploadResult
	}{
		{
			name: "success",
			summary: &ingest.Summary{
				UploadID:           "u1",
				NotesInserted:      3,
				AttachmentsAdded:   2,
				AttachmentsSkipped: 1,
			},
			wantResult: service.UploadResult{
				Status:             service.StatusOK,
				UploadID:           "u1",
				NotesInserted:      3,
				AttachmentsAdded:   2,
				AttachmentsSkipped: 1,
			},
		},
		{
			name:      "manifest missing is a result",
			ingestErr: fmt.Errorf("failed to extract archive: %w", archive.ErrManifestMissing),
			wantResult: service.UploadResult{
				Status:  service.StatusError,
				Message: "No notes.json found",
			},
		},
		{
			name:      "decode error",
			ingestErr: fmt.Errorf("failed to extract archive: %w", &archive.DecodeError{Err: archive.ErrUnsupportedFormat}),
			wantErr:   service.ErrInvalidInput,
		},
		{
			name:      "too large",
			ingestErr: fmt.Errorf("failed to extract archive: %w", &archive.DecodeError{Err: archive.ErrTooLarge}),
			wantErr:   archive.ErrTooLarge,
		},
		{
			name:      "parse error",
			ingestErr: fmt.Errorf("failed to read manifest: %w", &manifest.ParseError{Index: 0, Field: "id", Err: errors.New("id is required")}),
			wantErr:   service.ErrInvalidInput,
		},
		{
			name:      "timeout",
			ingestErr: fmt.Errorf("failed to extract archive: %w", context.DeadlineExceeded),
			wantErr:   service.ErrTimeout,
		},
		{
			name:      "store error",
			ingestErr:    &storage.StoreError{Op: "commit transaction", Err: errors.New("database is locked")},
			wantInternal: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			ingester := mocks.NewMockIngester(ctrl)
			ingester.EXPECT().Ingest(gomock.Any(), gomock.Any()).Return(tt.summary, tt.ingestErr)

			svc := service.NewUploadService(ingester)
			result, err := svc.Upload(testContext(), strings.NewReader("payload"))

			if tt.wantInternal {
				var storeErr *storage.StoreError
				if !errors.As(err, &storeErr) {
					t.Fatalf("Upload() error = %v, want *storage.StoreError", err)
				}
				if errors.Is(err, service.ErrInvalidInput) {
					t.Error("store failure should not be classified as invalid input")
				}
				return
			}

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Upload() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Upload() error = %v", err)
			}
			if result != tt.wantResult {
				t.Errorf("Upload() = %+v, want %+v", result, tt.wantResult)
			}
		})
	}
}
