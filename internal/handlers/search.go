package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"huginn/internal/contextutil"
	"huginn/internal/service"
)

// SearchHandler handles HTTP requests for full-text search.
type SearchHandler struct {
	searchService service.SearchService
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(searchService service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// SearchResult represents one note in the search response.
type SearchResult struct {
	ID        string  `json:"id"`
	Content   string  `json:"content"`
	CreatedAt *string `json:"created_at"`
	UpdatedAt *string `json:"updated_at"`
}

// ServeHTTP runs the q parameter against the note index and returns up to 20
// ranked notes as a JSON array.
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(ctx, w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	results, err := h.searchService.Search(ctx, service.SearchRequest{
		Query: r.URL.Query().Get("q"),
	})
	if err != nil {
		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			writeError(ctx, w, http.StatusBadRequest, fmt.Sprintf("Validation error: %s", validationErr.Error()))
			return
		}
		logger.ErrorContext(ctx, "service error", "error", err)
		writeError(ctx, w, http.StatusInternalServerError, "Failed to search notes")
		return
	}

	resp := make([]SearchResult, 0, len(results))
	for _, res := range results {
		resp = append(resp, SearchResult{
			ID:        res.ID,
			Content:   res.Content,
			CreatedAt: res.CreatedAt,
			UpdatedAt: res.UpdatedAt,
		})
	}

	writeJSON(ctx, w, http.StatusOK, resp)
}
