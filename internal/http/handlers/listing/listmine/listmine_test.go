package listmine

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/classifieds/internal/http/middlewarectx"
	"github.com/magabrotheeeer/classifieds/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) ListMine(ctx context.Context, ownerUID string) ([]*models.Listing, error) {
	args := m.Called(ctx, ownerUID)
	res, _ := args.Get(0).([]*models.Listing)
	return res, args.Error(1)
}

func TestListMineHandler_ServeHTTP(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("own listings", func(t *testing.T) {
		svc := new(ServiceMock)
		svc.On("ListMine", mock.Anything, "u-1").Return([]*models.Listing{{ID: "l-1", OwnerUID: "u-1"}}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/listings/mine", nil)
		req = req.WithContext(middlewarectx.WithUser(req.Context(), &models.User{UUID: "u-1"}))
		rec := httptest.NewRecorder()
		New(logger, svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var got Response
		var envelope struct {
			Data *Response `json:"data"`
		}
		envelope.Data = &got
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
		assert.Equal(t, 1, got.Count)
		assert.Equal(t, "u-1", got.Listings[0].OwnerUID)
		svc.AssertExpectations(t)
	})

	t.Run("store failure", func(t *testing.T) {
		svc := new(ServiceMock)
		svc.On("ListMine", mock.Anything, "u-1").Return(nil, errors.New("db down")).Once()

		req := httptest.NewRequest(http.MethodGet, "/listings/mine", nil)
		req = req.WithContext(middlewarectx.WithUser(req.Context(), &models.User{UUID: "u-1"}))
		rec := httptest.NewRecorder()
		New(logger, svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"status":"Error","error":"could not list listings"}`, rec.Body.String())
	})

	t.Run("no session", func(t *testing.T) {
		svc := new(ServiceMock)
		rec := httptest.NewRecorder()
		New(logger, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/listings/mine", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		svc.AssertNotCalled(t, "ListMine", mock.Anything, mock.Anything)
	})
}
