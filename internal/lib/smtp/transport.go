package smtp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"

	"github.com/magabrotheeeer/lekomapa/internal/config"
	"github.com/magabrotheeeer/lekomapa/internal/lib/sl"
)

// Transport устанавливает аутентифицированные SMTP-сессии поверх STARTTLS.
type Transport struct {
	cfg config.SMTP
	log *slog.Logger
}

// NewTransport создает новый экземпляр Transport.
func NewTransport(cfg config.SMTP, log *slog.Logger) *Transport {
	return &Transport{cfg: cfg, log: log}
}

// Connect устанавливает соединение с SMTP сервером.
func (t *Transport) Connect(ctx context.Context) (Client, error) {
	const op = "smtp.Connect"
	log := t.log.With(sl.Op(op))
	addr := net.JoinHostPort(t.cfg.SMTPHost, t.cfg.SMTPPort)

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		log.Error("failed to dial SMTP server", sl.Err(err))
		return nil, fmt.Errorf("%s: failed to dial SMTP server: %w", op, err)
	}

	client, err := smtp.NewClient(conn, t.cfg.SMTPHost)
	if err != nil {
		log.Error("failed to create SMTP client", sl.Err(err))
		if closeErr := conn.Close(); closeErr != nil {
			log.Error("failed to close connection", sl.Err(closeErr))
		}
		return nil, fmt.Errorf("%s: failed to create SMTP client: %w", op, err)
	}

	fail := func(msg string, err error) (Client, error) {
		log.Error(msg, sl.Err(err))
		if closeErr := client.Close(); closeErr != nil {
			log.Error("failed to close client", sl.Err(closeErr))
		}
		return nil, fmt.Errorf("%s: %s: %w", op, msg, err)
	}

	if ok, _ := client.Extension("STARTTLS"); !ok {
		return fail("smtp server does not support STARTTLS", errNoStartTLS)
	}
	tlsConfig := &tls.Config{
		ServerName: t.cfg.SMTPHost,
		MinVersion: tls.VersionTLS12,
	}
	if err = client.StartTLS(tlsConfig); err != nil {
		return fail("failed to start TLS", err)
	}

	if t.cfg.SMTPUser != "" {
		auth := smtp.PlainAuth("", t.cfg.SMTPUser, t.cfg.SMTPPass, t.cfg.SMTPHost)
		if err = client.Auth(auth); err != nil {
			return fail("smtp auth failed", err)
		}
	}

	return client, nil
}

// Sender возвращает адрес отправителя.
func (t *Transport) Sender() string {
	return t.cfg.SMTPUser
}

// Recipient возвращает адрес получателя напоминаний.
func (t *Transport) Recipient() string {
	return t.cfg.SMTPRecipient
}

var errNoStartTLS = errors.New("STARTTLS extension missing")
