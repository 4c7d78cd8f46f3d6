package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/lekomapa/internal/lib/sl"
)

// Consumer — часть канала, нужная для чтения очереди. Реализуется *amqp.Channel.
type Consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// Handler обрабатывает тело сообщения. Ошибка возвращает сообщение в очередь,
// если она не обёрнута в ErrPermanent.
type Handler func(ctx context.Context, body []byte) error

// ErrPermanent помечает сообщения, которые нет смысла обрабатывать повторно.
var ErrPermanent = errors.New("permanent message failure")

const maxInFlight = 10

// ConsumerMessage запускает потребителя очереди. Сообщения обрабатываются
// параллельно, не более maxInFlight одновременно. Возвращаемый канал
// закрывается, когда потребитель остановлен и все обработчики завершены.
func ConsumerMessage(ctx context.Context, log *slog.Logger, ch Consumer, queueName string, handler Handler) (<-chan struct{}, error) {
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
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	done := make(chan struct{})
	sem := make(chan struct{}, maxInFlight)
	go func() {
		defer func() {
			for range maxInFlight {
				sem <- struct{}{}
			}
			close(done)
		}()
		for {
			select {
			case d, ok := <-delivery:
				if !ok {
					return
				}
				sem <- struct{}{}
				go func(d amqp.Delivery) {
					defer func() { <-sem }()
					if err := handler(ctx, d.Body); err != nil {
						requeue := !errors.Is(err, ErrPermanent)
						log.Warn("message handling failed", sl.Op(op), sl.Err(err), slog.Bool("requeue", requeue))
						if nackErr := d.Nack(false, requeue); nackErr != nil {
							log.Error("failed to nack message", sl.Op(op), sl.Err(nackErr))
						}
						return
					}
					if ackErr := d.Ack(false); ackErr != nil {
						log.Error("failed to ack message", sl.Op(op), sl.Err(ackErr))
					}
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()
	return done, nil
}
