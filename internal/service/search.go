package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_search_service.go -package=mocks huginn/internal/service SearchService

import (
	"context"
	"strings"

	"huginn/internal/contextutil"
	"huginn/internal/storage"
)

// MaxSearchLimit bounds caller supplied result limits.
const MaxSearchLimit = 100

// SearchRequest represents a search request in the domain layer.
type SearchRequest struct {
	Query string
	Limit int // 0 means storage.DefaultSearchLimit
}

// NoteResult is one ranked search hit.
type NoteResult struct {
	ID        string
	Content   string
	CreatedAt *string
	UpdatedAt *string
}

// SearchService provides full-text search over ingested notes.
type SearchService interface {
	// Search returns notes matching the query, best match first.
	Search(ctx context.Context, req SearchRequest) ([]NoteResult, error)
}

type searchService struct {
	notes storage.NoteStore
}

// NewSearchService creates a new SearchService.
func NewSearchService(notes storage.NoteStore) SearchService {
	return &searchService{notes: notes}
}

// Search validates the request and runs it against the note index.
// A blank query is rejected rather than matching everything.
func (s *searchService) Search(ctx context.Context, req SearchRequest) ([]NoteResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	query := strings.TrimSpace(req.Query)
	if query == "" {
		logger.WarnContext(ctx, "empty search query")
		return nil, &ValidationError{
			Field:   "q",
			Message: "is required",
		}
	}
	if req.Limit < 0 || req.Limit > MaxSearchLimit {
		return nil, &ValidationError{
			Field:   "limit",
			Message: "must be between 0 and 100",
		}
	}

	limit := req.Limit
	if limit == 0 {
		limit = storage.DefaultSearchLimit
	}

	records, err := s.notes.Search(ctx, query, limit)
	if err != nil {
		logger.ErrorContext(ctx, "failed to search notes", "error", err)
		return nil, WrapError(err, "failed to search notes")
	}

	results := make([]NoteResult, 0, len(records))
	for _, rec := range records {
		results = append(results, NoteResult{
			ID:        rec.ID,
			Content:   rec.Content,
			CreatedAt: rec.CreatedAt,
			UpdatedAt: rec.UpdatedAt,
		})
	}

	logger.DebugContext(ctx, "search completed", "query", query, "results", len(results))
	return results, nil
}
