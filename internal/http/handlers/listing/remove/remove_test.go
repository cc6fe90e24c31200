package remove

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/classifieds/internal/http/middlewarectx"
	"github.com/magabrotheeeer/classifieds/internal/models"
	"github.com/magabrotheeeer/classifieds/internal/services/listing"
)

// MockService реализует интерфейс remove.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Delete(ctx context.Context, userUID, id string) error {
	return m.Called(ctx, userUID, id).Error(0)
}

func TestRemoveHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	const id = "7b0e4a52-2f5b-4a8e-9a67-2b1f6c7a9d10"

	tests := []struct {
		name           string
		mockErr        error
		expectedStatus int
		expectedBody   string
	}{
		{name: "owner deletes", expectedStatus: http.StatusOK, expectedBody: `"message":"Listing deleted successfully"`},
		{
			name:           "not the owner",
			mockErr:        fmt.Errorf("listing.Delete: %w", listing.ErrForbidden),
			expectedStatus: http.StatusForbidden,
			expectedBody:   `{"status":"Error","error":"forbidden"}`,
		},
		{
			name:           "already gone",
			mockErr:        fmt.Errorf("listing.Delete: %w", listing.ErrNotFound),
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"status":"Error","error":"listing not found"}`,
		},
		{
			name:           "store failure",
			mockErr:        errors.New("db error"),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"could not delete listing"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			mockService.On("Delete", mock.Anything, "u-1", id).Return(tt.mockErr).Once()

			req := httptest.NewRequest(http.MethodDelete, "/listings/"+id, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", id)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			ctx = middlewarectx.WithUser(ctx, &models.User{UUID: "u-1"})
			rec := httptest.NewRecorder()

			New(logger, mockService).ServeHTTP(rec, req.WithContext(ctx))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}
