// Package sender собирает сервис доставки напоминаний: потребитель очереди
// RabbitMQ и SMTP-транспорт.
package sender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/lekomapa/internal/config"
	"github.com/magabrotheeeer/lekomapa/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/lekomapa/internal/lib/sl"
	"github.com/magabrotheeeer/lekomapa/internal/lib/smtp"
	senderservice "github.com/magabrotheeeer/lekomapa/internal/services/sender"
)

// ErrConsumerStopped — брокер закрыл канал доставки.
var ErrConsumerStopped = errors.New("reminder consumer stopped")

// App — сервис доставки напоминаний.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.Service
	logger        *slog.Logger
}

// New подключается к RabbitMQ и объявляет очереди уведомлений.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "sender.New"

	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderservice.New(logger, transport),
		logger:        logger,
	}, nil
}

// Run потребляет напоминания до отмены ctx и дожидается обработки полученных сообщений.
func (a *App) Run(ctx context.Context) error {
	done, err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, rabbitmq.ReminderQueue, a.senderService.SendReminder)
	if err != nil {
		a.logger.Error("failed to start reminder consumer", sl.Err(err))
		return err
	}

	return a.wait(ctx, done)
}

// wait дожидается отмены ctx или остановки потребителя и закрывает соединение.
// Остановка потребителя до отмены ctx означает, что брокер закрыл канал.
func (a *App) wait(ctx context.Context, done <-chan struct{}) error {
	const op = "sender.Run"

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("sender service shutting down gracefully")
		<-done
	case <-done:
		a.logger.Error("reminder consumer stopped: delivery channel closed")
		runErr = fmt.Errorf("%s: %w", op, ErrConsumerStopped)
	}

	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	return runErr
}
