package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"huginn/internal/service"
	"huginn/internal/service/mocks"
)

func TestNewSearchHandler(t *testing.T) {
	ctrl := gomock.NewController(t)

	mockSearchService := mocks.NewMockSearchService(ctrl)
	handler := NewSearchHandler(mockSearchService)

	if handler == nil {
		t.Fatal("NewSearchHandler() returned nil")
	}
	if handler.searchService != mockSearchService {
		t.Error("NewSearchHandler() searchService not set correctly")
	}
}

func TestSearchHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name          string
		method        string
		target        string
		mockSetup     func(*mocks.MockSearchService)
		wantStatus    int
		checkResponse func(t *testing.T, body string)
	}{
		{
			name:   "results in rank order",
			method: http.MethodGet,
			target: "/search?q=hello",
			mockSetup: func(m *mocks.MockSearchService) {
				m.EXPECT().Search(gomock.Any(), service.SearchRequest{Query: "hello"}).Return([]service.NoteResult{
					{ID: "n1", Content: "hello world", CreatedAt: strPtr("2024-01-01")},
					{ID: "n2", Content: "hello there"},
				}, nil)
			},
			wantStatus: http.StatusOK,
			checkResponse: func(t *testing.T, body string) {
				var resp []SearchResult
				if err := json.Unmarshal([]byte(body), &resp); err != nil {
					t.Fatalf("decode response: %v", err)
				}
				if len(resp) != 2 || resp[0].ID != "n1" || resp[1].ID != "n2" {
					t.Errorf("response = %+v", resp)
				}
				if resp[0].CreatedAt == nil || *resp[0].CreatedAt != "2024-01-01" {
					t.Errorf("created_at = %v", resp[0].CreatedAt)
				}
				if !strings.Contains(body, `"updated_at":null`) {
					t.Errorf("body = %s, want explicit null updated_at", body)
				}
			},
		},
		{
			name:   "no matches is an empty array",
			method: http.MethodGet,
			target: "/search?q=zebra",
			mockSetup: func(m *mocks.MockSearchService) {
				m.EXPECT().Search(gomock.Any(), service.SearchRequest{Query: "zebra"}).Return(nil, nil)
			},
			wantStatus: http.StatusOK,
			checkResponse: func(t *testing.T, body string) {
				if strings.TrimSpace(body) != "[]" {
					t.Errorf("body = %q, want []", body)
				}
			},
		},
		{
			name:   "missing q",
			method: http.MethodGet,
			target: "/search",
			mockSetup: func(m *mocks.MockSearchService) {
				m.EXPECT().Search(gomock.Any(), service.SearchRequest{Query: ""}).Return(nil, &service.ValidationError{
					Field:   "q",
					Message: "is required",
				})
			},
			wantStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, body string) {
				var resp ErrorResponse
				if err := json.Unmarshal([]byte(body), &resp); err != nil {
					t.Fatalf("decode response: %v", err)
				}
				if !strings.Contains(resp.Error, "field q") {
					t.Errorf("error = %q", resp.Error)
				}
			},
		},
		{
			name:   "service failure",
			method: http.MethodGet,
			target: "/search?q=hello",
			mockSetup: func(m *mocks.MockSearchService) {
				m.EXPECT().Search(gomock.Any(), gomock.Any()).Return(nil, errors.New("database is closed"))
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "method not allowed",
			method:     http.MethodPost,
			target:     "/search?q=hello",
			mockSetup:  func(m *mocks.MockSearchService) {},
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockSearchService := mocks.NewMockSearchService(ctrl)
			tt.mockSetup(mockSearchService)

			handler := NewSearchHandler(mockSearchService)
			req := httptest.NewRequest(tt.method, tt.target, nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("ServeHTTP() status = %v, want %v", w.Code, tt.wantStatus)
			}
			if tt.checkResponse != nil {
				tt.checkResponse(t, w.Body.String())
			}
		})
	}
}
