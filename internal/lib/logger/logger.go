// Package logger настраивает slog в зависимости от окружения.
package logger

import (
	"io"
	"log/slog"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// New возвращает текстовый логгер уровня debug для local, JSON уровня
// debug для dev и JSON уровня info для остальных окружений.
func New(env string, w io.Writer) *slog.Logger {
	switch env {
	case EnvLocal:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case EnvDev:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
}
