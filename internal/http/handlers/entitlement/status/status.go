// Package status реализует HTTP-обработчик состояния подписки и доступных функций.
package status

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/lekomapa/internal/http/response"
	"github.com/magabrotheeeer/lekomapa/internal/lib/sl"
	"github.com/magabrotheeeer/lekomapa/internal/models"
)

// Service собирает сведения о доступе.
type Service interface {
	Status(count int) models.EntitlementStatus
}

// Counter возвращает количество сохранённых лекарств.
type Counter interface {
	Count() int
}

type Handler struct {
	log     *slog.Logger
	service Service
	meds    Counter
}

func New(log *slog.Logger, service Service, meds Counter) *Handler {
	return &Handler{log: log, service: service, meds: meds}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.entitlement.status"
	st := h.service.Status(h.meds.Count())

	h.log.Debug("entitlement status",
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Bool("premium", st.IsPremium))
	render.JSON(w, r, response.OKWithData(st))
}
