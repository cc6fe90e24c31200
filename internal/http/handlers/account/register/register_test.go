package register

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/classifieds/internal/http/session"
	"github.com/magabrotheeeer/classifieds/internal/models"
	"github.com/magabrotheeeer/classifieds/internal/services/account"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Register(ctx context.Context, in account.RegisterInput) (*account.Session, error) {
	args := m.Called(ctx, in)
	sess, _ := args.Get(0).(*account.Session)
	return sess, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

type form struct {
	fields   map[string]string
	fileName string
}

func (f form) encode(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range f.fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if f.fileName != "" {
		fw, err := mw.CreateFormFile("avatar", f.fileName)
		require.NoError(t, err)
		_, err = fw.Write([]byte("\x89PNG fake image"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func validFields() map[string]string {
	return map[string]string{"name": "Ada", "email": "a@x.com", "password": "longpass1"}
}

func TestRegisterHandler_ServeHTTP(t *testing.T) {
	expiresAt := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	sess := &account.Session{
		Token:     "tok",
		ExpiresAt: expiresAt,
		User:      &models.User{UUID: "u-1", Name: "Ada", Email: "a@x.com"},
	}

	tests := []struct {
		name        string
		form        *form
		mockSess    *account.Session
		mockErr     error
		wantCode    int
		wantError   string
		wantCookie  bool
		wantService bool
	}{
		{
			name:        "success",
			form:        &form{fields: validFields(), fileName: "me.png"},
			mockSess:    sess,
			wantCode:    http.StatusCreated,
			wantCookie:  true,
			wantService: true,
		},
		{
			name:      "not multipart",
			wantCode:  http.StatusBadRequest,
			wantError: "invalid multipart form",
		},
		{
			name:      "invalid email",
			form:      &form{fields: map[string]string{"name": "Ada", "email": "nope", "password": "longpass1"}, fileName: "me.png"},
			wantCode:  http.StatusUnprocessableEntity,
			wantError: "field Email must be a valid email",
		},
		{
			name:      "missing password",
			form:      &form{fields: map[string]string{"name": "Ada", "email": "a@x.com"}, fileName: "me.png"},
			wantCode:  http.StatusUnprocessableEntity,
			wantError: "field Password is a required field",
		},
		{
			name:      "missing avatar",
			form:      &form{fields: validFields()},
			wantCode:  http.StatusBadRequest,
			wantError: "avatar is required",
		},
		{
			name:      "avatar is not an image",
			form:      &form{fields: validFields(), fileName: "notes.txt"},
			wantCode:  http.StatusBadRequest,
			wantError: "avatar must be an image",
		},
		{
			name:        "email taken",
			form:        &form{fields: validFields(), fileName: "me.png"},
			mockErr:     fmt.Errorf("account.Register: %w", account.ErrConflict),
			wantCode:    http.StatusConflict,
			wantError:   "user already exists",
			wantService: true,
		},
		{
			name:        "image store down",
			form:        &form{fields: validFields(), fileName: "me.png"},
			mockErr:     fmt.Errorf("account.Register: %w", account.ErrUpstream),
			wantCode:    http.StatusInternalServerError,
			wantError:   "external service failure",
			wantService: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			handler := New(newNoopLogger(), svc, session.NewCookies(false), 1<<20)

			var avatarPath string
			if tt.wantService {
				svc.On("Register", mock.Anything, mock.MatchedBy(func(in account.RegisterInput) bool {
					_, err := os.Stat(in.AvatarPath)
					return in.Name == "Ada" && in.Email == "a@x.com" && in.Password == "longpass1" && err == nil
				})).Run(func(args mock.Arguments) {
					avatarPath = args.Get(1).(account.RegisterInput).AvatarPath
				}).Return(tt.mockSess, tt.mockErr).Once()
			}

			var req *http.Request
			if tt.form != nil {
				body, contentType := tt.form.encode(t)
				req = httptest.NewRequest(http.MethodPost, "/register", body)
				req.Header.Set("Content-Type", contentType)
			} else {
				req = httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"name":"Ada"}`))
				req.Header.Set("Content-Type", "application/json")
			}
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)

			var got map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			if tt.wantError != "" {
				assert.Equal(t, "Error", got["status"])
				assert.Equal(t, tt.wantError, got["error"])
			} else {
				assert.Equal(t, "OK", got["status"])
				data := got["data"].(map[string]any)
				assert.Equal(t, SuccessMessage, data["message"])
				assert.Equal(t, "tok", data["token"])
				assert.Equal(t, "u-1", data["user"].(map[string]any)["id"])
			}

			cookies := rec.Result().Cookies()
			if tt.wantCookie {
				require.Len(t, cookies, 1)
				assert.Equal(t, session.CookieName, cookies[0].Name)
				assert.Equal(t, "tok", cookies[0].Value)
				assert.True(t, cookies[0].HttpOnly)
				assert.True(t, cookies[0].Expires.Equal(expiresAt))
			} else {
				assert.Empty(t, cookies)
			}

			if tt.wantService {
				svc.AssertExpectations(t)
				_, err := os.Stat(avatarPath)
				assert.True(t, os.IsNotExist(err), "temporary avatar must be removed")
			} else {
				svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestRegisterHandler_PasswordLength(t *testing.T) {
	tests := []struct {
		name      string
		password  string
		wantCode  int
		wantError string
	}{
		{name: "seven characters", password: "short12", wantCode: http.StatusUnprocessableEntity, wantError: "field Password must be at least 8"},
		{name: "eight characters", password: "exactly8", wantCode: http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			handler := New(newNoopLogger(), svc, session.NewCookies(false), 1<<20)
			if tt.wantError == "" {
				svc.On("Register", mock.Anything, mock.MatchedBy(func(in account.RegisterInput) bool {
					return in.Password == tt.password
				})).Return(&account.Session{Token: "tok", ExpiresAt: time.Now().Add(time.Hour), User: &models.User{UUID: "u-1"}}, nil).Once()
			}

			f := &form{fields: map[string]string{"name": "Ada", "email": "a@x.com", "password": tt.password}, fileName: "me.png"}
			body, contentType := f.encode(t)
			req := httptest.NewRequest(http.MethodPost, "/register", body)
			req.Header.Set("Content-Type", contentType)
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			var got map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, got["error"])
				svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
				return
			}
			svc.AssertExpectations(t)
		})
	}
}
