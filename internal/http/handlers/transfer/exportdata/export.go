// Package exportdata реализует HTTP-обработчик выгрузки всех данных в JSON-файл.
package exportdata

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/lekomapa/internal/lib/clock"
	"github.com/magabrotheeeer/lekomapa/internal/lib/sl"
	"github.com/magabrotheeeer/lekomapa/internal/lib/timeofday"
	"github.com/magabrotheeeer/lekomapa/internal/models"
)

type Service interface {
	Export() models.Bundle
}

type Handler struct {
	log     *slog.Logger
	service Service
	clock   clock.Clock
}

func New(log *slog.Logger, service Service, clk clock.Clock) *Handler {
	return &Handler{log: log, service: service, clock: clk}
}

// ServeHTTP отдаёт документ экспорта как вложение lekomapa-backup-YYYY-MM-DD.json.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.transfer.export"

	bundle := h.service.Export()
	name := fmt.Sprintf("lekomapa-backup-%s.json", timeofday.DateKey(h.clock.Now()))

	h.log.Info("data exported",
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Int("medications", len(bundle.Medications)))

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	render.JSON(w, r, bundle)
}
