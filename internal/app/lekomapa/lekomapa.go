package lekomapa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/lekomapa/internal/cache"
	"github.com/magabrotheeeer/lekomapa/internal/config"
	"github.com/magabrotheeeer/lekomapa/internal/lib/clock"
	"github.com/magabrotheeeer/lekomapa/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/lekomapa/internal/lib/sl"
	"github.com/magabrotheeeer/lekomapa/internal/services/prices"
	"github.com/magabrotheeeer/lekomapa/internal/services/reminder"
	"github.com/magabrotheeeer/lekomapa/internal/storage"
	"github.com/magabrotheeeer/lekomapa/internal/storage/writer"
)

// App — основное приложение.
type App struct {
	server     *http.Server
	logger     *slog.Logger
	db         *storage.Storage
	writer     *writer.Writer
	cache      *cache.Cache
	conn       *amqp.Connection
	ch         *amqp.Channel
	dispatcher *reminder.Dispatcher
	services   *Services
}

// New подключает хранилище, применяет миграции, загружает состояние и
// собирает HTTP-сервер. Redis и RabbitMQ необязательны: без Redis цены
// не кэшируются, без RabbitMQ напоминания только регистрируются.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "lekomapa.New"

	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	clk := clock.Real{Location: loc}

	db, err := storage.New(cfg.Driver, cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	app := &App{logger: logger, db: db}
	app.writer = writer.New(db, logger, cfg.PersistTimeout)

	var priceCache prices.Cache
	if cfg.AddressRedis != "" {
		app.cache, err = cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		priceCache = app.cache
	} else {
		logger.Warn("redis address is not set, price cache disabled")
	}

	app.services = NewServices(ctx, cfg, logger, clk, db, app.writer, priceCache)

	if cfg.RabbitMQURL != "" {
		app.conn, err = rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.ch, err = rabbitmq.SetupChannel(app.conn, rabbitmq.GetNotificationQueues())
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.dispatcher = reminder.NewDispatcher(logger, clk, app.services.Registry,
			app.services.Medications, app.ch, cfg.DispatchInterval)
	} else {
		logger.Warn("rabbitmq url is not set, reminders will not be delivered")
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg.HTTPServer, app.services)

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// Run обслуживает HTTP и рассылает напоминания до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	if a.dispatcher != nil {
		go a.dispatcher.Run(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err = a.server.Shutdown(timeoutCtx)
	}

	a.close()
	return err
}

// close сбрасывает отложенные записи и освобождает соединения.
func (a *App) close() {
	if a.writer != nil {
		a.writer.Close()
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
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
