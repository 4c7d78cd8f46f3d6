package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

// ExchangeName — direct-обменник уведомлений.
const ExchangeName = "notifications"

// ReminderRoutingKey — ключ маршрутизации наступивших напоминаний.
const ReminderRoutingKey = "reminder"

// ReminderQueue — очередь, из которой сервис отправки читает напоминания.
const ReminderQueue = "notifications.reminder"

// QueueConfig описывает очередь и ключ, с которым она привязана к обменнику.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очереди, которые объявляют оба сервиса.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: ReminderQueue, RoutingKey: ReminderRoutingKey},
	}
}

// SetupChannel открывает канал и объявляет обменник и очереди.
func SetupChannel(conn *amqp.Connection, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return nil, fmt.Errorf("%s: failed to set QoS: %w", op, err)
	}

	err = ch.ExchangeDeclare(
		ExchangeName,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			q.QueueName,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, q.QueueName, err)
		}

		err = ch.QueueBind(
			q.QueueName,
			q.RoutingKey,
			ExchangeName,
			false,
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to bind queue %s with routing key %s: %w", op, q.QueueName, q.RoutingKey, err)
		}
	}

	return ch, nil
}
