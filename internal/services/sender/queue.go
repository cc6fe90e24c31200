package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/classifieds/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/classifieds/internal/lib/sl"
	"github.com/magabrotheeeer/classifieds/internal/models"
)

// QueueSender ставит письма в очередь RabbitMQ вместо прямой отправки.
type QueueSender struct {
	ch  rabbitmq.Publisher
	log *slog.Logger
}

// NewQueueSender создает новый экземпляр QueueSender.
func NewQueueSender(log *slog.Logger, ch rabbitmq.Publisher) *QueueSender {
	return &QueueSender{ch: ch, log: log}
}

// Send публикует письмо в обменник писем.
func (q *QueueSender) Send(_ context.Context, to, subject, body string) error {
	const op = "sender.QueueSender.Send"
	msg := models.MailMessage{To: to, Subject: subject, Body: body}
	if err := rabbitmq.PublishMessage(q.ch, rabbitmq.MailExchange, rabbitmq.MailRoutingKey, msg); err != nil {
		q.log.Error("failed to enqueue email", slog.String("to", to), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	q.log.Debug("email enqueued", slog.String("to", to))
	return nil
}
