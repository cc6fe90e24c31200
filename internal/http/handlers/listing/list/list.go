// Package list реализует постраничную выдачу всех объявлений, новые первыми.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/classifieds/internal/http/response"
	"github.com/magabrotheeeer/classifieds/internal/lib/sl"
	"github.com/magabrotheeeer/classifieds/internal/models"
)

// Response страница объявлений.
type Response struct {
	Count    int               `json:"list_count"`
	Listings []*models.Listing `json:"listings"`
}

// Service описывает выдачу объявлений.
type Service interface {
	List(ctx context.Context, limit, offset int) ([]*models.Listing, error)
}

// Handler обрабатывает запросы списка объявлений.
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
// @Summary Список объявлений
// @Tags Listings
// @Produce json
// @Param limit query int false "Размер страницы (по умолчанию 20, максимум 100)"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response{data=Response}
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security CookieAuth
// @Router /listings [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.listing.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	// некорректные значения сервис заменяет значениями по умолчанию
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	res, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		log.Error("failed to list listings", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list listings"))
		return
	}

	log.Debug("listings found", slog.Int("count", len(res)))
	render.JSON(w, r, response.OKWithData(Response{
		Count:    len(res),
		Listings: res,
	}))
}
