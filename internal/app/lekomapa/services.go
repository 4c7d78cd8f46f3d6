package lekomapa

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/magabrotheeeer/lekomapa/internal/config"
	"github.com/magabrotheeeer/lekomapa/internal/lib/clock"
	"github.com/magabrotheeeer/lekomapa/internal/lib/sl"
	"github.com/magabrotheeeer/lekomapa/internal/metrics"
	"github.com/magabrotheeeer/lekomapa/internal/models"
	"github.com/magabrotheeeer/lekomapa/internal/services/editor"
	"github.com/magabrotheeeer/lekomapa/internal/services/entitlement"
	"github.com/magabrotheeeer/lekomapa/internal/services/medication"
	"github.com/magabrotheeeer/lekomapa/internal/services/prices"
	"github.com/magabrotheeeer/lekomapa/internal/services/reminder"
	"github.com/magabrotheeeer/lekomapa/internal/services/settings"
	"github.com/magabrotheeeer/lekomapa/internal/services/transfer"
	"github.com/magabrotheeeer/lekomapa/internal/storage"
	"github.com/magabrotheeeer/lekomapa/internal/storage/writer"
)

// Services — связанные между собой доменные сервисы одной установки.
type Services struct {
	Clock       clock.Clock
	DB          *sql.DB
	Medications *medication.Store
	Entitlement *entitlement.Engine
	Settings    *settings.Store
	Editor      *editor.Editor
	Transfer    *transfer.Service
	Prices      *prices.Service
	Registry    *reminder.Registry
	Bridge      *reminder.Bridge
}

// NewServices создаёт сервисы, загружает сохранённое состояние и
// регистрирует напоминания для всех лекарств. Состояние, которое не удалось
// прочитать, остаётся значением по умолчанию. cache может быть nil.
func NewServices(ctx context.Context, cfg *config.Config, logger *slog.Logger, clk clock.Clock,
	db *storage.Storage, w *writer.Writer, cache prices.Cache) *Services {
	const op = "lekomapa.NewServices"

	meds := medication.New(logger, clk, w)
	ent := entitlement.New(logger, clk, w, entitlement.Config{
		FreeMedicationLimit: cfg.FreeMedicationLimit,
		TrialPeriod:         cfg.TrialPeriod,
		AllowTrialRestart:   cfg.AllowTrialRestart,
	})
	st := settings.New(logger, w)

	log := logger.With(sl.Op(op))
	loadState(log, models.StateMedications, meds.Load(ctx, db))
	loadState(log, models.StateSubscription, ent.Load(ctx, db))
	loadState(log, models.StateSettings, st.Load(ctx, db))

	registry := reminder.NewRegistry()
	bridge := reminder.NewBridge(logger, registry)
	bridge.Setup(ctx)

	ed := editor.New(logger, meds, ent, bridge)
	n := ed.Resync(ctx)
	logger.Info("reminders registered", slog.Int("count", n), slog.Int("medications", meds.Count()))

	return &Services{
		Clock:       clk,
		DB:          db.DB,
		Medications: meds,
		Entitlement: ent,
		Settings:    st,
		Editor:      ed,
		Transfer:    transfer.New(logger, clk, meds, st, ent, ed),
		Prices:      prices.New(logger, db, cache, ent, cfg.FreePriceCount, cfg.CacheTTL),
		Registry:    registry,
		Bridge:      bridge,
	}
}

func loadState(log *slog.Logger, key string, err error) {
	if err == nil {
		return
	}
	metrics.PersistFailures.WithLabelValues(key).Inc()
	log.Error("failed to load stored state, using defaults", slog.String("key", key), sl.Err(err))
}
