// Package resetpassword реализует установку нового пароля по коду сброса.
package resetpassword

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
	"github.com/magabrotheeeer/classifieds/internal/lib/otp"
	"github.com/magabrotheeeer/classifieds/internal/lib/sl"
	"github.com/magabrotheeeer/classifieds/internal/services/account"
)

// Request тело запроса.
type Request struct {
	OTP         *otp.Input `json:"otp" validate:"required" swaggertype:"string" example:"004242"`
	NewPassword string     `json:"newPassword" validate:"required,min=8"`
}

// Service описывает сброс пароля.
type Service interface {
	ResetPassword(ctx context.Context, submitted int, newPassword string) error
}

// Handler обрабатывает запросы сброса пароля.
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
// @Summary Сброс пароля
// @Description Проверяет код сброса и устанавливает новый пароль. Код одноразовый.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body Request true "Код и новый пароль"
// @Success 200 {object} response.Response{data=response.Message}
// @Failure 400 {object} response.ErrorResponse "Неверный или просроченный код"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /resetpassword [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.resetpassword"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		if errors.Is(err, otp.ErrInvalidOrExpired) {
			render.JSON(w, r, response.Error("invalid or expired otp"))
			return
		}
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	if err := h.service.ResetPassword(r.Context(), int(*req.OTP), req.NewPassword); err != nil {
		log.Error("failed to reset password", sl.Err(err))
		if errors.Is(err, account.ErrInvalidOrExpiredOtp) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid or expired otp"))
			return
		}
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not reset password"))
		return
	}

	log.Info("password reset")
	render.JSON(w, r, response.OKMessage("Password changed successfully"))
}
