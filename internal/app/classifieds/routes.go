// Package classifieds собирает HTTP-приложение площадки объявлений:
// хранилища, сервисы, маршруты и сервер.
package classifieds

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/magabrotheeeer/classifieds/docs"
	"github.com/magabrotheeeer/classifieds/internal/http/handlers/account/forgetpassword"
	"github.com/magabrotheeeer/classifieds/internal/http/handlers/account/login"
	"github.com/magabrotheeeer/classifieds/internal/http/handlers/account/logout"
	"github.com/magabrotheeeer/classifieds/internal/http/handlers/account/me"
	"github.com/magabrotheeeer/classifieds/internal/http/handlers/account/register"
	"github.com/magabrotheeeer/classifieds/internal/http/handlers/account/resetpassword"
	"github.com/magabrotheeeer/classifieds/internal/http/handlers/account/updatepassword"
	"github.com/magabrotheeeer/classifieds/internal/http/handlers/account/updateprofile"
	"github.com/magabrotheeeer/classifieds/internal/http/handlers/account/verify"
	"github.com/magabrotheeeer/classifieds/internal/http/handlers/listing/create"
	"github.com/magabrotheeeer/classifieds/internal/http/handlers/listing/list"
	"github.com/magabrotheeeer/classifieds/internal/http/handlers/listing/listmine"
	"github.com/magabrotheeeer/classifieds/internal/http/handlers/listing/read"
	"github.com/magabrotheeeer/classifieds/internal/http/handlers/listing/remove"
	"github.com/magabrotheeeer/classifieds/internal/http/handlers/listing/update"
	"github.com/magabrotheeeer/classifieds/internal/http/middlewarectx"
	"github.com/magabrotheeeer/classifieds/internal/http/session"
	"github.com/magabrotheeeer/classifieds/internal/lib/jwt"
	"github.com/magabrotheeeer/classifieds/internal/services/account"
	"github.com/magabrotheeeer/classifieds/internal/services/listing"
)

// Deps зависимости маршрутов.
type Deps struct {
	Account       *account.Service
	Listings      *listing.Service
	Users         middlewarectx.UserLoader
	Tokens        jwt.Maker
	Cookies       *session.Cookies
	Limiter       *middlewarectx.ClientLimiter
	Metrics       *middlewarectx.Metrics
	Gatherer      prometheus.Gatherer
	MaxUploadSize int64
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, log *slog.Logger, d Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		d.Metrics.Middleware,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки, защищенные от перебора
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(log, d.Limiter))
			r.Post("/register", register.New(log, d.Account, d.Cookies, d.MaxUploadSize).ServeHTTP)
			r.Post("/login", login.New(log, d.Account, d.Cookies).ServeHTTP)
			r.Post("/forgetpassword", forgetpassword.New(log, d.Account).ServeHTTP)
			r.Put("/resetpassword", resetpassword.New(log, d.Account).ServeHTTP)
		})
		r.Get("/logout", logout.New(log, d.Cookies).ServeHTTP)

		// Группа с проверкой сессии
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.Session(log, d.Tokens, d.Users))
			r.Post("/verify", verify.New(log, d.Account).ServeHTTP)
			r.Get("/me", me.New(log, d.Account).ServeHTTP)
			r.Put("/updateprofile", updateprofile.New(log, d.Account, d.MaxUploadSize).ServeHTTP)
			r.Put("/updatepassword", updatepassword.New(log, d.Account).ServeHTTP)

			r.Post("/listings", create.New(log, d.Listings, d.MaxUploadSize).ServeHTTP)
			r.Get("/listings", list.New(log, d.Listings).ServeHTTP)
			r.Get("/listings/mine", listmine.New(log, d.Listings).ServeHTTP)
			r.Get("/listings/{id}", read.New(log, d.Listings).ServeHTTP)
			r.Put("/listings/{id}", update.New(log, d.Listings).ServeHTTP)
			r.Delete("/listings/{id}", remove.New(log, d.Listings).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	r.Get("/docs/*", httpSwagger.WrapHandler)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}
