// Package sender доставляет напоминания о приёме лекарств по электронной почте.
package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime"
	"strings"

	"github.com/magabrotheeeer/lekomapa/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/lekomapa/internal/lib/sl"
	"github.com/magabrotheeeer/lekomapa/internal/lib/smtp"
	"github.com/magabrotheeeer/lekomapa/internal/models"
)

// Transport открывает SMTP-сессию и знает адреса отправителя и получателя.
type Transport interface {
	Connect(ctx context.Context) (smtp.Client, error)
	Sender() string
	Recipient() string
}

// Service — отправка писем-напоминаний.
type Service struct {
	transport Transport
	log       *slog.Logger
}

// New создает новый экземпляр Service.
func New(log *slog.Logger, transport Transport) *Service {
	return &Service{
		transport: transport,
		log:       log,
	}
}

// SendReminder разбирает ReminderMessage и отправляет письмо. Сообщение,
// которое не удалось разобрать, помечается rabbitmq.ErrPermanent.
func (s *Service) SendReminder(ctx context.Context, body []byte) error {
	const op = "sender.SendReminder"
	log := s.log.With(sl.Op(op))

	var message models.ReminderMessage
	if err := json.Unmarshal(body, &message); err != nil {
		log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("%s: error unmarshalling message: %w: %w", op, rabbitmq.ErrPermanent, err)
	}
	if message.Type != models.ReminderType {
		log.Warn("skipping message of unknown type", slog.String("type", message.Type))
		return nil
	}

	subject := message.Title
	bodyText := fmt.Sprintf("%s\n\nGodzina przyjęcia: %s.", message.Body, message.Time)

	if err := s.sendEmail(ctx, log, subject, bodyText); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info("reminder sent",
		slog.String("medication_id", message.MedicationID),
		slog.String("time", message.Time))
	return nil
}

func (s *Service) sendEmail(ctx context.Context, log *slog.Logger, subject, bodyText string) error {
	from := s.transport.Sender()
	to := s.transport.Recipient()

	msg := strings.Join([]string{
		"From: " + from,
		"To: " + to,
		"Subject: " + mime.QEncoding.Encode("utf-8", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect(ctx)
	if err != nil {
		log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(from); err != nil {
		log.Error("failed to set MAIL FROM", slog.String("from", from), sl.Err(err))
		return err
	}
	if err := client.Rcpt(to); err != nil {
		log.Error("failed to set RCPT TO", slog.String("recipient", to), sl.Err(err))
		return err
	}

	wc, err := client.Data()
	if err != nil {
		log.Error("failed to get Data writer", sl.Err(err))
		return err
	}
	if _, err := wc.Write([]byte(msg)); err != nil {
		log.Error("failed to write email body", sl.Err(err))
		return err
	}
	if err := wc.Close(); err != nil {
		log.Error("failed to close Data writer", sl.Err(err))
		return err
	}
	if err := client.Quit(); err != nil {
		log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}
	return nil
}
