package classifieds

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/classifieds/internal/cache"
	"github.com/magabrotheeeer/classifieds/internal/config"
	"github.com/magabrotheeeer/classifieds/internal/http/middlewarectx"
	"github.com/magabrotheeeer/classifieds/internal/http/session"
	"github.com/magabrotheeeer/classifieds/internal/imagestore"
	"github.com/magabrotheeeer/classifieds/internal/lib/jwt"
	"github.com/magabrotheeeer/classifieds/internal/lib/otp"
	"github.com/magabrotheeeer/classifieds/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/classifieds/internal/lib/sl"
	"github.com/magabrotheeeer/classifieds/internal/lib/smtp"
	"github.com/magabrotheeeer/classifieds/internal/migrations"
	"github.com/magabrotheeeer/classifieds/internal/services/account"
	"github.com/magabrotheeeer/classifieds/internal/services/listing"
	"github.com/magabrotheeeer/classifieds/internal/services/sender"
	"github.com/magabrotheeeer/classifieds/internal/storage"
)

const shutdownTimeout = 15 * time.Second

// App HTTP-приложение со всеми открытыми ресурсами.
type App struct {
	server  *http.Server
	log     *slog.Logger
	closers []func() error
}

// New открывает хранилища, применяет миграции и собирает маршруты.
//
// При ошибке уже открытые ресурсы закрываются.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (app *App, err error) {
	const op = "classifieds.New"
	a := &App{log: log}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a.closers = append(a.closers, db.Close)
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a.closers = append(a.closers, cacheRedis.Close)

	s3Client, err := imagestore.NewClient(ctx, cfg.S3)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	images := imagestore.New(s3Client, cfg.S3Bucket, cfg.S3PublicURL)

	mail, err := a.mailSender(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tokens := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL())
	accountService := account.New(log, db, images.WithFolder(imagestore.FolderAvatars), mail, tokens,
		otp.New(cfg.VerifyTTL), otp.New(cfg.ResetTTL))
	listingService := listing.New(log, db, cacheRedis, images.WithFolder(imagestore.FolderListings), cfg.CacheTTL)

	router := chi.NewRouter()
	RegisterRoutes(router, log, Deps{
		Account:       accountService,
		Listings:      listingService,
		Users:         db,
		Tokens:        tokens,
		Cookies:       session.NewCookies(cfg.CookieSecure),
		Limiter:       middlewarectx.NewClientLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		Metrics:       middlewarectx.NewMetrics(prometheus.DefaultRegisterer),
		Gatherer:      prometheus.DefaultGatherer,
		MaxUploadSize: cfg.MaxUploadSize,
	})

	a.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return a, nil
}

// mailSender выбирает способ доставки писем по конфигу.
func (a *App) mailSender(cfg *config.Config, log *slog.Logger) (account.MailSender, error) {
	if cfg.Mode != config.MailModeQueue {
		return sender.NewSenderService(log, smtp.NewTransport(cfg.SMTP, log)), nil
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, conn.Close)

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.MailExchange, rabbitmq.MailQueues())
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, ch.Close)
	go a.watchChannel(ch)

	return sender.NewQueueSender(log, ch), nil
}

func (a *App) watchChannel(ch *amqp.Channel) {
	if err := <-ch.NotifyClose(make(chan *amqp.Error, 1)); err != nil {
		a.log.Error("mail channel closed", sl.Err(err))
	}
}

// Run запускает HTTP-сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.log.Info("HTTP server starting", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.log.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

// close закрывает ресурсы в обратном порядке.
func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Error("failed to close resource", sl.Err(err))
		}
	}
	a.closers = nil
}
