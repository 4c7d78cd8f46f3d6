// Package today реализует HTTP-обработчик дневного расписания доз.
package today

import (
	"iter"
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/lekomapa/internal/http/response"
	"github.com/magabrotheeeer/lekomapa/internal/lib/clock"
	"github.com/magabrotheeeer/lekomapa/internal/lib/sl"
	"github.com/magabrotheeeer/lekomapa/internal/lib/timeofday"
	"github.com/magabrotheeeer/lekomapa/internal/models"
)

type Handler struct {
	log     *slog.Logger
	service Service
	clock   clock.Clock
}

type Service interface {
	DosesOn(date string) iter.Seq[models.Dose]
}

func New(log *slog.Logger, service Service, clk clock.Clock) *Handler {
	return &Handler{log: log, service: service, clock: clk}
}

// ServeHTTP отдаёт дозы на дату из параметра date (YYYY-MM-DD) или на сегодня.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.medication.today"
	log := h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	date := r.URL.Query().Get("date")
	if date == "" {
		date = timeofday.DateKey(h.clock.Now())
	} else if !timeofday.ValidDate(date) {
		log.Info("invalid date", slog.String("date", date))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("date must be in format YYYY-MM-DD"))
		return
	}

	doses := slices.Collect(h.service.DosesOn(date))
	if doses == nil {
		doses = []models.Dose{}
	}
	taken := 0
	for _, d := range doses {
		if d.IsTaken {
			taken++
		}
	}

	log.Debug("doses listed", slog.String("date", date), slog.Int("count", len(doses)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"date":  date,
		"doses": doses,
		"taken": taken,
		"total": len(doses),
	}))
}
