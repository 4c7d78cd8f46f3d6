// Package lekomapa собирает основное приложение: хранилище, доменные
// сервисы, диспетчер напоминаний и HTTP API.
package lekomapa

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/magabrotheeeer/lekomapa/internal/config"
	"github.com/magabrotheeeer/lekomapa/internal/http/handlers/entitlement/premium"
	"github.com/magabrotheeeer/lekomapa/internal/http/handlers/entitlement/status"
	"github.com/magabrotheeeer/lekomapa/internal/http/handlers/entitlement/subscribe"
	"github.com/magabrotheeeer/lekomapa/internal/http/handlers/entitlement/trial"
	"github.com/magabrotheeeer/lekomapa/internal/http/handlers/health"
	"github.com/magabrotheeeer/lekomapa/internal/http/handlers/medication/create"
	medlist "github.com/magabrotheeeer/lekomapa/internal/http/handlers/medication/list"
	"github.com/magabrotheeeer/lekomapa/internal/http/handlers/medication/remove"
	"github.com/magabrotheeeer/lekomapa/internal/http/handlers/medication/taken"
	"github.com/magabrotheeeer/lekomapa/internal/http/handlers/medication/today"
	medupdate "github.com/magabrotheeeer/lekomapa/internal/http/handlers/medication/update"
	pricelist "github.com/magabrotheeeer/lekomapa/internal/http/handlers/prices/list"
	"github.com/magabrotheeeer/lekomapa/internal/http/handlers/prices/search"
	"github.com/magabrotheeeer/lekomapa/internal/http/handlers/settings/read"
	settingsupdate "github.com/magabrotheeeer/lekomapa/internal/http/handlers/settings/update"
	"github.com/magabrotheeeer/lekomapa/internal/http/handlers/transfer/exportdata"
	"github.com/magabrotheeeer/lekomapa/internal/http/handlers/transfer/importdata"
	"github.com/magabrotheeeer/lekomapa/internal/http/middlewarectx"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg config.HTTPServer, s *Services) {
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.RateLimit(logger, cfg.RateLimit, cfg.RateBurst))
		r.Use(middlewarectx.Foreground(s.Entitlement))

		r.Route("/medications", func(r chi.Router) {
			r.Get("/", medlist.New(logger, s.Medications).ServeHTTP)
			r.Post("/", create.New(logger, s.Editor).ServeHTTP)
			r.Get("/{id}", medlist.NewRead(logger, s.Medications).ServeHTTP)
			r.Put("/{id}", medupdate.New(logger, s.Editor).ServeHTTP)
			r.Delete("/{id}", remove.New(logger, s.Editor).ServeHTTP)
			r.Put("/{id}/taken", taken.New(logger, s.Medications, s.Clock).ServeHTTP)
		})
		r.Get("/doses/today", today.New(logger, s.Medications, s.Clock).ServeHTTP)

		r.Route("/entitlement", func(r chi.Router) {
			r.Get("/", status.New(logger, s.Entitlement, s.Medications).ServeHTTP)
			r.Post("/trial", trial.NewStart(logger, s.Entitlement).ServeHTTP)
			r.Delete("/trial", trial.NewEnd(logger, s.Entitlement).ServeHTTP)
			r.Post("/subscription", subscribe.New(logger, s.Entitlement).ServeHTTP)
			r.Put("/premium", premium.New(logger, s.Entitlement).ServeHTTP)
		})

		r.Get("/settings", read.New(s.Settings).ServeHTTP)
		r.Patch("/settings", settingsupdate.New(logger, s.Settings).ServeHTTP)

		r.Get("/export", exportdata.New(logger, s.Transfer, s.Clock).ServeHTTP)
		r.Post("/import", importdata.New(logger, s.Transfer).ServeHTTP)

		r.Route("/pharmacy", func(r chi.Router) {
			r.Get("/medications", search.New(logger, s.Prices).ServeHTTP)
			r.Get("/prices", pricelist.New(logger, s.Prices).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger, s.DB).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
}
