// Package listmine реализует выдачу объявлений текущего пользователя.
package listmine

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/classifieds/internal/http/middlewarectx"
	"github.com/magabrotheeeer/classifieds/internal/http/response"
	"github.com/magabrotheeeer/classifieds/internal/lib/sl"
	"github.com/magabrotheeeer/classifieds/internal/models"
)

// Response объявления пользователя.
type Response struct {
	Count    int               `json:"list_count"`
	Listings []*models.Listing `json:"listings"`
}

// Service описывает выдачу объявлений владельца.
type Service interface {
	ListMine(ctx context.Context, ownerUID string) ([]*models.Listing, error)
}

// Handler обрабатывает запросы списка своих объявлений.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Мои объявления
// @Tags Listings
// @Produce json
// @Success 200 {object} response.Response{data=Response}
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security CookieAuth
// @Router /listings/mine [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.listing.listmine"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		log.Error("no user in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthenticated"))
		return
	}

	res, err := h.service.ListMine(r.Context(), user.UUID)
	if err != nil {
		log.Error("failed to list own listings", slog.String("user_uid", user.UUID), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list listings"))
		return
	}

	render.JSON(w, r, response.OKWithData(Response{
		Count:    len(res),
		Listings: res,
	}))
}
