package service_test

import (
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"huginn/internal/service"
	"huginn/internal/storage"
	storage_mocks "huginn/internal/storage/mocks"
)

func TestNewSearchService(t *testing.T) {
	ctrl := gomock.NewController(t)

	svc := service.NewSearchService(storage_mocks.NewMockNoteStore(ctrl))
	if svc == nil {
		t.Fatal("NewSearchService() returned nil")
	}
}

func TestSearchService_Search(t *testing.T) {
	storeErr := &storage.StoreError{Op: "search notes", Err: errors.New("fts5: syntax error")}

	tests := []struct {
		name         string
		req          service.SearchRequest
		mockSetup    func(m *storage_mocks.MockNoteStore)
		wantErr      bool
		checkErrType func(error) bool
		wantIDs      []string
	}{
		{
			name: "default limit",
			req:  service.SearchRequest{Query: "hello"},
			mockSetup: func(m *storage_mocks.MockNoteStore) {
				m.EXPECT().Search(gomock.Any(), "hello", storage.DefaultSearchLimit).Return([]storage.NoteRecord{
					{ID: "n1", Content: "hello world", CreatedAt: strPtr("2024-01-01")},
					{ID: "n2", Content: "hello again"},
				}, nil)
			},
			wantIDs: []string{"n1", "n2"},
		},
		{
			name: "query is trimmed",
			req:  service.SearchRequest{Query: "  hello  "},
			mockSetup: func(m *storage_mocks.MockNoteStore) {
				m.EXPECT().Search(gomock.Any(), "hello", storage.DefaultSearchLimit).Return([]storage.NoteRecord{}, nil)
			},
			wantIDs: []string{},
		},
		{
			name: "explicit limit",
			req:  service.SearchRequest{Query: "hello", Limit: 5},
			mockSetup: func(m *storage_mocks.MockNoteStore) {
				m.EXPECT().Search(gomock.Any(), "hello", 5).Return([]storage.NoteRecord{{ID: "n1"}}, nil)
			},
			wantIDs: []string{"n1"},
		},
		{
			name:      "empty query",
			req:       service.SearchRequest{Query: ""},
			mockSetup: func(m *storage_mocks.MockNoteStore) {},
			wantErr:   true,
			checkErrType: func(err error) bool {
				var validationErr *service.ValidationError
				return errors.As(err, &validationErr) && validationErr.Field == "q"
			},
		},
		{
			name:      "blank query",
			req:       service.SearchRequest{Query: " \t\n"},
			mockSetup: func(m *storage_mocks.MockNoteStore) {},
			wantErr:   true,
			checkErrType: func(err error) bool {
				var validationErr *service.ValidationError
				return errors.As(err, &validationErr) && validationErr.Field == "q"
			},
		},
		{
			name:      "negative limit",
			req:       service.SearchRequest{Query: "x", Limit: -1},
			mockSetup: func(m *storage_mocks.MockNoteStore) {},
			wantErr:   true,
			checkErrType: func(err error) bool {
				var validationErr *service.ValidationError
				return errors.As(err, &validationErr) && validationErr.Field == "limit"
			},
		},
		{
			name:      "limit above maximum",
			req:       service.SearchRequest{Query: "x", Limit: service.MaxSearchLimit + 1},
			mockSetup: func(m *storage_mocks.MockNoteStore) {},
			wantErr:   true,
			checkErrType: func(err error) bool {
				var validationErr *service.ValidationError
				return errors.As(err, &validationErr)
			},
		},
		{
			name: "store error",
			req:  service.SearchRequest{Query: "hello"},
			mockSetup: func(m *storage_mocks.MockNoteStore) {
				m.EXPECT().Search(gomock.Any(), "hello", storage.DefaultSearchLimit).Return(nil, storeErr)
			},
			wantErr: true,
			checkErrType: func(err error) bool {
				var got *storage.StoreError
				return errors.As(err, &got)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := storage_mocks.NewMockNoteStore(ctrl)
			tt.mockSetup(store)
			svc := service.NewSearchService(store)

			results, err := svc.Search(testContext(), tt.req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Search() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if tt.checkErrType != nil && !tt.checkErrType(err) {
					t.Errorf("Search() error type mismatch: %v", err)
				}
				return
			}

			if results == nil {
				t.Fatal("Search() returned nil slice")
			}
			if len(results) != len(tt.wantIDs) {
				t.Fatalf("Search() returned %d results, want %d", len(results), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if results[i].ID != id {
					t.Errorf("results[%d].ID = %q, want %q", i, results[i].ID, id)
				}
			}
		})
	}
}

func TestSearchService_Search_MapsFields(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := storage_mocks.NewMockNoteStore(ctrl)
	store.EXPECT().Search(gomock.Any(), "hello", gomock.Any()).Return([]storage.NoteRecord{
		{ID: "n1", Content: "hello world", CreatedAt: strPtr("2024-01-01"), UpdatedAt: strPtr("2024-02-01")},
	}, nil)

	results, err := service.NewSearchService(store).Search(testContext(), service.SearchRequest{Query: "hello"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	got := results[0]
	if got.Content != "hello world" {
		t.Errorf("Content = %q", got.Content)
	}
	if got.CreatedAt == nil || *got.CreatedAt != "2024-01-01" {
		t.Errorf("CreatedAt = %v", got.CreatedAt)
	}
	if got.UpdatedAt == nil || *got.UpdatedAt != "2024-02-01" {
		t.Errorf("UpdatedAt = %v", got.UpdatedAt)
	}
}
