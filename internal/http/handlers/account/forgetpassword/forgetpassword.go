// Package forgetpassword реализует запрос кода для сброса пароля.
//
// Для неизвестной почты возвращается 404 "invalid email".
package forgetpassword

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/classifieds/internal/http/response"
	"github.com/magabrotheeeer/classifieds/internal/lib/sl"
	"github.com/magabrotheeeer/classifieds/internal/services/account"
)

// Request тело запроса.
type Request struct {
	Email string `json:"email" validate:"required,email"`
}

// Service описывает выдачу кода сброса.
type Service interface {
	ForgetPassword(ctx context.Context, email string) error
}

// Handler обрабатывает запросы на сброс пароля.
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
// @Summary Запрос сброса пароля
// @Description Отправляет на почту одноразовый код для сброса пароля.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body Request true "Почта"
// @Success 200 {object} response.Response{data=response.Message}
// @Failure 404 {object} response.ErrorResponse "Почта не найдена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /forgetpassword [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.forgetpassword"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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

	if err := h.service.ForgetPassword(r.Context(), req.Email); err != nil {
		log.Error("failed to issue reset otp", sl.Err(err))
		switch {
		case errors.Is(err, account.ErrNotFound):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("invalid email"))
		case errors.Is(err, account.ErrUpstream):
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("external service failure"))
		default:
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not issue reset code"))
		}
		return
	}

	log.Info("reset otp sent")
	render.JSON(w, r, response.OKMessage("OTP sent to "+req.Email))
}
