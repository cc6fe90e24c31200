// Package logout реализует выход: клиенту отдается уже истекшая cookie.
//
// Сессии на сервере не хранятся, поэтому ранее выданный токен остается
// действительным до своего срока.
package logout

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/classifieds/internal/http/response"
	"github.com/magabrotheeeer/classifieds/internal/http/session"
)

// Handler сбрасывает сессионную cookie.
type Handler struct {
	log     *slog.Logger
	cookies *session.Cookies
}

// New создает новый Handler.
func New(log *slog.Logger, cookies *session.Cookies) *Handler {
	return &Handler{
		log:     log,
		cookies: cookies,
	}
}

// ServeHTTP godoc
// @Summary Выход
// @Description Выставляет истекшую cookie с токеном.
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Response{data=response.Message}
// @Router /logout [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.logout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	h.cookies.Clear(w)
	log.Debug("session cookie cleared")
	render.JSON(w, r, response.OKMessage("Logged out successfully"))
}
