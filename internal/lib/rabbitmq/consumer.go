package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/magabrotheeeer/classifieds/internal/lib/sl"
	"github.com/streadway/amqp"
)

// MaxInFlight сколько сообщений обрабатывается одновременно.
const MaxInFlight = 10

// ErrPermanent обработчик не сможет обработать сообщение и при повторной доставке.
// Такое сообщение отклоняется без возврата в очередь.
var ErrPermanent = errors.New("permanent message failure")

// ConsumerMessage читает очередь queueName и передает тело каждого сообщения handler.
//
// Успешно обработанное сообщение подтверждается, при ошибке возвращается в очередь,
// кроме ошибок, обернутых в ErrPermanent.
// Блокируется до отмены ctx или закрытия канала доставки и дожидается
// завершения обработчиков.
func ConsumerMessage(ctx context.Context, log *slog.Logger, ch *amqp.Channel, queueName string,
	handler func(context.Context, []byte) error) error {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return consume(ctx, log, delivery, handler)
}

func consume(ctx context.Context, log *slog.Logger, delivery <-chan amqp.Delivery,
	handler func(context.Context, []byte) error) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	sem := make(chan struct{}, MaxInFlight)
	for {
		select {
		case d, ok := <-delivery:
			if !ok {
				return nil
			}
			// при заполненном семафоре отмена ctx возвращает сообщение в очередь
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				if err := d.Nack(false, true); err != nil {
					log.Error("failed to nack message", sl.Err(err))
				}
				return nil
			}
			wg.Add(1)
			go func(d amqp.Delivery) {
				defer func() {
					<-sem
					wg.Done()
				}()
				handle(ctx, log, d, handler)
			}(d)
		case <-ctx.Done():
			return nil
		}
	}
}

func handle(ctx context.Context, log *slog.Logger, d amqp.Delivery, handler func(context.Context, []byte) error) {
	if err := handler(ctx, d.Body); err != nil {
		requeue := !errors.Is(err, ErrPermanent)
		log.Error("failed to handle message", slog.Bool("requeue", requeue), sl.Err(err))
		if nackErr := d.Nack(false, requeue); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
		return
	}
	if ackErr := d.Ack(false); ackErr != nil {
		log.Error("failed to ack message", sl.Err(ackErr))
	}
}
