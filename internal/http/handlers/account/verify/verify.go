// Package verify реализует HTTP-обработчик подтверждения почты одноразовым кодом.
package verify

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
	"github.com/magabrotheeeer/classifieds/internal/lib/otp"
	"github.com/magabrotheeeer/classifieds/internal/lib/sl"
	"github.com/magabrotheeeer/classifieds/internal/models"
	"github.com/magabrotheeeer/classifieds/internal/services/account"
)

// Request тело запроса. Код принимается числом или строкой.
type Request struct {
	OTP *otp.Input `json:"otp" validate:"required" swaggertype:"string" example:"004242"`
}

// Response данные успешного ответа.
type Response struct {
	Message string       `json:"message" example:"Account verified"`
	User    *models.User `json:"user"`
}

// Service описывает бизнес-логику подтверждения почты.
type Service interface {
	Verify(ctx context.Context, user *models.User, submitted int) error
}

// Handler обрабатывает запросы подтверждения почты.
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
// @Summary Подтверждение почты
// @Description Проверяет код из письма и отмечает пользователя подтвержденным.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body Request true "Код подтверждения"
// @Success 200 {object} response.Response{data=Response}
// @Failure 400 {object} response.ErrorResponse "Неверный или просроченный код"
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security CookieAuth
// @Router /verify [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.verify"

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

	if err := h.service.Verify(r.Context(), user, int(*req.OTP)); err != nil {
		log.Error("verification failed", sl.Err(err))
		if errors.Is(err, account.ErrInvalidOrExpiredOtp) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid or expired otp"))
			return
		}
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not verify account"))
		return
	}

	log.Info("account verified")
	render.JSON(w, r, response.OKWithData(Response{
		Message: "Account verified",
		User:    user,
	}))
}
