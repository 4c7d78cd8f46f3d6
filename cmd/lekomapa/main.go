// Package main — HTTP API LekoMapa: лекарства, напоминания, подписка и цены в аптеках.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/lekomapa/internal/app/lekomapa"
	"github.com/magabrotheeeer/lekomapa/internal/config"
	"github.com/magabrotheeeer/lekomapa/internal/lib/logger"
	"github.com/magabrotheeeer/lekomapa/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env, os.Stdout)

	log.Info("starting lekomapa", slog.String("env", cfg.Env), slog.String("storage", cfg.Driver))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := lekomapa.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		log.Error("app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	log.Info("lekomapa stopped gracefully")
}
