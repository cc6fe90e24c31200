// Package create реализует HTTP-обработчик создания объявления.
//
// Запрос приходит multipart-формой: title, price, category, description
// и один или несколько файлов images. Владельцем становится текущий пользователь.
package create

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/classifieds/internal/http/middlewarectx"
	"github.com/magabrotheeeer/classifieds/internal/http/response"
	"github.com/magabrotheeeer/classifieds/internal/http/upload"
	"github.com/magabrotheeeer/classifieds/internal/lib/sl"
	"github.com/magabrotheeeer/classifieds/internal/models"
	"github.com/magabrotheeeer/classifieds/internal/services/listing"
)

// Service описывает создание объявления.
type Service interface {
	Create(ctx context.Context, ownerUID string, fields models.ListingFields, imagePaths []string) (*models.Listing, error)
}

// Handler обрабатывает запросы создания объявлений.
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
// @Summary Создание объявления
// @Tags Listings
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Заголовок"
// @Param price formData int true "Цена"
// @Param category formData string true "Категория"
// @Param description formData string true "Описание"
// @Param images formData file true "Изображения"
// @Success 201 {object} response.Response{data=models.Listing}
// @Failure 400 {object} response.ErrorResponse "Некорректная форма"
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security CookieAuth
// @Router /listings [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.listing.create"

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

	if err := upload.ParseForm(w, r, h.maxUploadSize); err != nil {
		log.Error("failed to parse multipart form", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid multipart form"))
		return
	}

	fields := models.ListingFields{
		Title:       r.FormValue("title"),
		Category:    r.FormValue("category"),
		Description: r.FormValue("description"),
	}
	if raw := r.FormValue("price"); raw != "" {
		price, err := strconv.Atoi(raw)
		if err != nil {
			log.Error("failed to parse price", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("price must be a number"))
			return
		}
		fields.Price = price
	}
	if err := h.validate.Struct(fields); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	files, err := upload.Save(r, "images", true)
	if err != nil {
		log.Error("failed to save images", sl.Err(err))
		switch {
		case errors.Is(err, upload.ErrMissingFile):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("at least one image is required"))
		case errors.Is(err, upload.ErrNotImage):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("only images are allowed"))
		default:
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not read images"))
		}
		return
	}
	defer files.Cleanup()

	l, err := h.service.Create(r.Context(), user.UUID, fields, files.Paths)
	if err != nil {
		log.Error("failed to create listing", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		if errors.Is(err, listing.ErrUpstream) {
			render.JSON(w, r, response.Error("external service failure"))
			return
		}
		render.JSON(w, r, response.Error("could not create listing"))
		return
	}

	log.Info("listing created", slog.String("listing_id", l.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(l))
}
