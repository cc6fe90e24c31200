// Package updateprofile реализует HTTP-обработчик изменения имени и аватара.
//
// Запрос приходит multipart-формой: поле name и/или файл avatar.
// Пустое поле означает "не менять".
package updateprofile

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/classifieds/internal/http/middlewarectx"
	"github.com/magabrotheeeer/classifieds/internal/http/response"
	"github.com/magabrotheeeer/classifieds/internal/http/upload"
	"github.com/magabrotheeeer/classifieds/internal/lib/sl"
	"github.com/magabrotheeeer/classifieds/internal/models"
	"github.com/magabrotheeeer/classifieds/internal/services/account"
)

// Request текстовые поля формы.
type Request struct {
	Name string `validate:"max=100"`
}

// Response данные успешного ответа.
type Response struct {
	Message string       `json:"message" example:"Profile updated successfully"`
	User    *models.User `json:"user"`
}

// Service описывает изменение профиля.
type Service interface {
	UpdateProfile(ctx context.Context, user *models.User, in account.ProfileInput) (*models.User, error)
}

// Handler обрабатывает запросы изменения профиля.
type Handler struct {
	log           *slog.Logger
	service       Service
	validate      *validator.Validate
	maxUploadSize int64
}

// New создает новый Handler.
func New(log *slog.Logger, service Service, maxUploadSize int64) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		validate:      validator.New(),
		maxUploadSize: maxUploadSize,
	}
}

// ServeHTTP godoc
// @Summary Изменение профиля
// @Description Меняет имя и/или аватар. Старый аватар удаляется из хранилища.
// @Tags Account
// @Accept multipart/form-data
// @Produce json
// @Param name formData string false "Новое имя"
// @Param avatar formData file false "Новый аватар"
// @Success 200 {object} response.Response{data=Response}
// @Failure 400 {object} response.ErrorResponse "Нет изменений или некорректная форма"
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security CookieAuth
// @Router /updateprofile [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.updateprofile"

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

	if err := upload.ParseForm(w, r, h.maxUploadSize); err != nil {
		log.Error("failed to parse multipart form", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid multipart form"))
		return
	}

	req := Request{Name: r.FormValue("name")}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	files, err := upload.Save(r, "avatar", false)
	if err != nil {
		log.Error("failed to save avatar", sl.Err(err))
		if errors.Is(err, upload.ErrNotImage) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("avatar must be an image"))
			return
		}
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read avatar"))
		return
	}
	defer files.Cleanup()

	updated, err := h.service.UpdateProfile(r.Context(), user, account.ProfileInput{
		Name:       req.Name,
		AvatarPath: files.First(),
	})
	if err != nil {
		log.Error("failed to update profile", sl.Err(err))
		switch {
		case errors.Is(err, account.ErrValidation):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("nothing to update"))
		case errors.Is(err, account.ErrNotFound):
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("unauthenticated"))
		case errors.Is(err, account.ErrUpstream):
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("external service failure"))
		default:
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not update profile"))
		}
		return
	}

	log.Info("profile updated")
	render.JSON(w, r, response.OKWithData(Response{
		Message: "Profile updated successfully",
		User:    updated,
	}))
}
