// Package rabbitmq содержит подключение к RabbitMQ, объявление топологии,
// публикацию и потребление JSON-сообщений.
package rabbitmq

import (
	"context"
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

// Connect подключается к брокеру, повторяя попытки retries раз с паузой delay.
func Connect(ctx context.Context, connection string, retries int, delay time.Duration) (*amqp.Connection, error) {
	const op = "rabbitmq.Connect"
	var (
		conn *amqp.Connection
		err  error
	)
	if retries < 1 {
		retries = 1
	}

	for i := range retries {
		conn, err = amqp.Dial(connection)
		if err == nil {
			return conn, nil
		}
		if i == retries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("%s: %w", op, err)
}
