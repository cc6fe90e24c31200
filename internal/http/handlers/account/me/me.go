// Package me реализует HTTP-обработчик получения профиля текущего пользователя.
package me

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/classifieds/internal/http/middlewarectx"
	"github.com/magabrotheeeer/classifieds/internal/http/response"
	"github.com/magabrotheeeer/classifieds/internal/lib/sl"
	"github.com/magabrotheeeer/classifieds/internal/models"
	"github.com/magabrotheeeer/classifieds/internal/services/account"
)

// Response данные профиля.
type Response struct {
	Message string       `json:"message" example:"Welcome back Ada"`
	User    *models.User `json:"user"`
}

// Service описывает получение профиля.
type Service interface {
	Profile(ctx context.Context, userUID string) (*models.User, error)
}

// Handler обрабатывает запросы профиля.
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
// @Summary Профиль
// @Description Возвращает данные текущего пользователя.
// @Tags Account
// @Produce json
// @Success 200 {object} response.Response{data=Response}
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security CookieAuth
// @Router /me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.me"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	current, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		log.Error("no user in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthenticated"))
		return
	}

	user, err := h.service.Profile(r.Context(), current.UUID)
	if err != nil {
		log.Error("failed to load profile", slog.String("user_uid", current.UUID), sl.Err(err))
		if errors.Is(err, account.ErrNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		}
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not load profile"))
		return
	}

	render.JSON(w, r, response.OKWithData(Response{
		Message: "Welcome back " + user.Name,
		User:    user,
	}))
}
