package me

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/classifieds/internal/http/middlewarectx"
	"github.com/magabrotheeeer/classifieds/internal/models"
	"github.com/magabrotheeeer/classifieds/internal/services/account"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Profile(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestMeHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name      string
		noUser    bool
		mockUser  *models.User
		mockErr   error
		wantCode  int
		wantError string
	}{
		{
			name:     "profile",
			mockUser: &models.User{UUID: "u-1", Name: "Ada", Email: "a@x.com", Avatar: models.Image{ID: "avatars/1.png", URL: "http://img/1.png"}},
			wantCode: http.StatusOK,
		},
		{
			name:      "user removed",
			mockErr:   fmt.Errorf("account.Profile: %w", account.ErrNotFound),
			wantCode:  http.StatusNotFound,
			wantError: "user not found",
		},
		{
			name:      "store failure",
			mockErr:   errors.New("timeout"),
			wantCode:  http.StatusInternalServerError,
			wantError: "could not load profile",
		},
		{
			name:      "no session user",
			noUser:    true,
			wantCode:  http.StatusUnauthorized,
			wantError: "unauthenticated",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if !tt.noUser {
				svc.On("Profile", mock.Anything, "u-1").Return(tt.mockUser, tt.mockErr).Once()
			}
			handler := New(newNoopLogger(), svc)

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			ctx := context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123")
			if !tt.noUser {
				ctx = middlewarectx.WithUser(ctx, &models.User{UUID: "u-1"})
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req.WithContext(ctx))

			assert.Equal(t, tt.wantCode, rec.Code)
			var got map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, got["error"])
			} else {
				data := got["data"].(map[string]any)
				assert.Equal(t, "Welcome back Ada", data["message"])
				user := data["user"].(map[string]any)
				assert.Equal(t, "a@x.com", user["email"])
				assert.NotContains(t, user, "PasswordHash")
				assert.Equal(t, "http://img/1.png", user["avatar"].(map[string]any)["url"])
			}
			svc.AssertExpectations(t)
		})
	}
}
