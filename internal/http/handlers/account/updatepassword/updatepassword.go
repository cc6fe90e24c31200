// Package updatepassword реализует смену пароля аутентифицированным пользователем.
//
// Текущая сессия после смены пароля остается действительной.
package updatepassword

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/classifieds/internal/http/middlewarectx"
	"github.com/magabrotheeeer/classifieds/internal/http/response"
	"github.com/magabrotheeeer/classifieds/internal/lib/sl"
	"github.com/magabrotheeeer/classifieds/internal/services/account"
)

// Request тело запроса.
type Request struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// Service описывает смену пароля.
type Service interface {
	UpdatePassword(ctx context.Context, userUID, oldPassword, newPassword string) error
}

// Handler обрабатывает запросы смены пароля.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Смена пароля
// @Description Проверяет текущий пароль и устанавливает новый.
// @Tags Account
// @Accept json
// @Produce json
// @Param request body Request true "Старый и новый пароль"
// @Success 200 {object} response.Response{data=response.Message}
// @Failure 400 {object} response.ErrorResponse "Неверный текущий пароль"
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security CookieAuth
// @Router /updatepassword [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.updatepassword"

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
	log = log.With(slog.String("user_uid", user.UUID))

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	if err := h.service.UpdatePassword(r.Context(), user.UUID, req.OldPassword, req.NewPassword); err != nil {
		log.Error("failed to update password", sl.Err(err))
		switch {
		case errors.Is(err, account.ErrInvalidCredentials):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid old password"))
		case errors.Is(err, account.ErrUnauthenticated):
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("unauthenticated"))
		case errors.Is(err, account.ErrValidation):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("please enter all fields"))
		default:
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not update password"))
		}
		return
	}

	log.Info("password updated")
	render.JSON(w, r, response.OKMessage("Password updated successfully"))
}
