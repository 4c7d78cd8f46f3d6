// Package smtp предоставляет SMTP-транспорт для отправки писем с напоминаниями.
package smtp

import "io"

// Client — операции SMTP-сессии, нужные для отправки одного письма.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}
