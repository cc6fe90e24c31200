// Package mailer воркер, который забирает письма из очереди и отправляет их по SMTP.
package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/classifieds/internal/config"
	"github.com/magabrotheeeer/classifieds/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/classifieds/internal/lib/sl"
	"github.com/magabrotheeeer/classifieds/internal/lib/smtp"
	"github.com/magabrotheeeer/classifieds/internal/services/sender"
)

// App воркер рассылки.
type App struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	sender *sender.SenderService
	log    *slog.Logger
}

// New подключается к брокеру и объявляет очередь писем.
func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	const op = "mailer.New"
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.MailExchange, rabbitmq.MailQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &App{
		conn:   conn,
		ch:     ch,
		sender: sender.NewSenderService(log, smtp.NewTransport(cfg.SMTP, log)),
		log:    log,
	}, nil
}

// Run обрабатывает очередь до отмены ctx, затем закрывает канал и соединение.
func (a *App) Run(ctx context.Context) error {
	a.log.Info("mailer started", slog.String("queue", rabbitmq.MailQueue))
	err := rabbitmq.ConsumerMessage(ctx, a.log, a.ch, rabbitmq.MailQueue, a.sender.HandleMessage)
	if err != nil {
		a.log.Error("consumer stopped", sl.Err(err))
	}

	a.log.Info("mailer shutting down gracefully")
	if cerr := a.ch.Close(); cerr != nil {
		a.log.Error("failed to close channel", sl.Err(cerr))
	}
	if cerr := a.conn.Close(); cerr != nil {
		a.log.Error("failed to close connection", sl.Err(cerr))
	}
	return err
}
