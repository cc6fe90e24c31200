// Package middlewarectx содержит HTTP middleware: проверку сессии,
// ограничение частоты запросов и сбор метрик.
//
// Session извлекает токен из cookie (или заголовка Authorization),
// проверяет его и загружает пользователя. Найденный пользователь кладется
// в контекст запроса, при любой ошибке возвращается 401.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/classifieds/internal/http/response"
	"github.com/magabrotheeeer/classifieds/internal/http/session"
	"github.com/magabrotheeeer/classifieds/internal/lib/jwt"
	"github.com/magabrotheeeer/classifieds/internal/lib/sl"
	"github.com/magabrotheeeer/classifieds/internal/models"
	"github.com/magabrotheeeer/classifieds/internal/storage"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// User — ключ аутентифицированного пользователя в контексте.
const User Key = "user"

// UserLoader загружает пользователя по идентификатору из токена.
type UserLoader interface {
	GetUserByID(ctx context.Context, userUID string, opts ...storage.SelectOption) (*models.User, error)
}

// UserFromContext возвращает пользователя, положенного Session.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(User).(*models.User)
	return u, ok && u != nil
}

// WithUser кладет пользователя в контекст.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, User, u)
}

// Session возвращает middleware, пропускающий только запросы с действующей сессией.
func Session(log *slog.Logger, tokens jwt.Maker, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.Session"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			tokenStr := session.TokenFromRequest(r)
			if tokenStr == "" {
				log.Debug("no session token")
				unauthenticated(w, r)
				return
			}

			claims, err := tokens.ParseToken(tokenStr)
			if err != nil {
				log.Info("invalid or expired token", sl.Err(err))
				unauthenticated(w, r)
				return
			}

			user, err := users.GetUserByID(r.Context(), claims.UserUID())
			if err != nil {
				log.Info("session user not resolved", slog.String("user_uid", claims.UserUID()), sl.Err(err))
				unauthenticated(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func unauthenticated(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, response.Error("unauthenticated"))
}
