package service

import (
	"context"
	"errors"
	"strings"

	"huginn/internal/contextutil"
	"huginn/internal/storage"
)

// NoteStats holds collection counts.
type NoteStats struct {
	Notes       int
	Attachments int
}

// NoteService covers note maintenance outside of ingestion.
type NoteService interface {
	// Delete removes a note together with its index entry and attachments.
	Delete(ctx context.Context, id string) error
	// Stats reports how many notes and attachments are stored.
	Stats(ctx context.Context) (NoteStats, error)
}

type noteService struct {
	notes storage.NoteStore
}

// NewNoteService creates a new NoteService.
func NewNoteService(notes storage.NoteStore) NoteService {
	return &noteService{notes: notes}
}

func (s *noteService) Delete(ctx context.Context, id string) error {
	logger := contextutil.LoggerFromContext(ctx)

	id = strings.TrimSpace(id)
	if id == "" {
		return &ValidationError{Field: "id", Message: "is required"}
	}

	if err := s.notes.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return markError(ErrNotFound, err)
		}
		logger.ErrorContext(ctx, "failed to delete note", "id", id, "error", err)
		return WrapError(err, "failed to delete note")
	}

	logger.InfoContext(ctx, "deleted note", "id", id)
	return nil
}

func (s *noteService) Stats(ctx context.Context) (NoteStats, error) {
	stats, err := s.notes.Stats(ctx)
	if err != nil {
		return NoteStats{}, WrapError(err, "failed to count notes")
	}
	return NoteStats{Notes: stats.Notes, Attachments: stats.Attachments}, nil
}
