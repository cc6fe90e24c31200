// Package register реализует HTTP-обработчик регистрации пользователя.
//
// Запрос приходит как multipart-форма с полями name, email, password и файлом avatar.
// После успешной регистрации пользователь получает сессию (cookie и токен в теле),
// а на почту отправляется код подтверждения.
package register

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/classifieds/internal/http/response"
	"github.com/magabrotheeeer/classifieds/internal/http/session"
	"github.com/magabrotheeeer/classifieds/internal/http/upload"
	"github.com/magabrotheeeer/classifieds/internal/lib/sl"
	"github.com/magabrotheeeer/classifieds/internal/services/account"
)

// SuccessMessage текст успешного ответа.
const SuccessMessage = "OTP sent to your email, please verify your account"

// Request поля формы регистрации.
type Request struct {
	Name     string `validate:"required,max=100"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

// Service описывает бизнес-логику регистрации.
type Service interface {
	Register(ctx context.Context, in account.RegisterInput) (*account.Session, error)
}

// Handler обрабатывает запросы на регистрацию.
type Handler struct {
	log           *slog.Logger
	service       Service
	cookies       *session.Cookies
	validate      *validator.Validate
	maxUploadSize int64
}

// New создает новый Handler.
func New(log *slog.Logger, service Service, cookies *session.Cookies, maxUploadSize int64) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		cookies:       cookies,
		validate:      validator.New(),
		maxUploadSize: maxUploadSize,
	}
}

// ServeHTTP godoc
// @Summary Регистрация пользователя
// @Description Создает неподтвержденного пользователя, загружает аватар и отправляет код подтверждения на почту.
// @Tags Auth
// @Accept multipart/form-data
// @Produce json
// @Param name formData string true "Имя"
// @Param email formData string true "Почта"
// @Param password formData string true "Пароль"
// @Param avatar formData file true "Аватар"
// @Success 201 {object} response.Response{data=response.Session}
// @Failure 400 {object} response.ErrorResponse "Некорректная форма"
// @Failure 409 {object} response.ErrorResponse "Пользователь уже существует"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /register [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.register"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := upload.ParseForm(w, r, h.maxUploadSize); err != nil {
		log.Error("failed to parse multipart form", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid multipart form"))
		return
	}

	req := Request{
		Name:     r.FormValue("name"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	files, err := upload.Save(r, "avatar", true)
	if err != nil {
		log.Error("failed to save avatar", sl.Err(err))
		switch {
		case errors.Is(err, upload.ErrMissingFile):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("avatar is required"))
		case errors.Is(err, upload.ErrNotImage):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("avatar must be an image"))
		default:
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not read avatar"))
		}
		return
	}
	defer files.Cleanup()

	sess, err := h.service.Register(r.Context(), account.RegisterInput{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		AvatarPath: files.First(),
	})
	if err != nil {
		log.Error("registration failed", sl.Err(err))
		switch {
		case errors.Is(err, account.ErrConflict):
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.Error("user already exists"))
		case errors.Is(err, account.ErrValidation):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("please enter all fields"))
		case errors.Is(err, account.ErrUpstream):
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("external service failure"))
		default:
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not register user"))
		}
		return
	}

	h.cookies.Set(w, sess.Token, sess.ExpiresAt)
	log.Info("user registered", slog.String("user_uid", sess.User.UUID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(response.Session{
		Message:   SuccessMessage,
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
		User:      sess.User,
	}))
}
