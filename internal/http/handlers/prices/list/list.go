// Package list реализует HTTP-обработчик сравнения цен лекарства.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/lekomapa/internal/http/response"
	"github.com/magabrotheeeer/lekomapa/internal/lib/sl"
	"github.com/magabrotheeeer/lekomapa/internal/models"
)

type Service interface {
	List(ctx context.Context, medication string) (models.PriceList, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.prices.list"
	name := strings.TrimSpace(r.URL.Query().Get("medication"))
	log := h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("medication", name),
	)

	if name == "" {
		log.Info("medication is not set")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("query parameter medication is required"))
		return
	}

	list, err := h.service.List(r.Context(), name)
	if err != nil {
		log.Error("failed to list prices", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list prices"))
		return
	}
	if list.Prices == nil {
		list.Prices = []models.PharmacyPrice{}
	}

	log.Debug("prices listed", slog.Int("shown", len(list.Prices)), slog.Bool("limited", list.Limited))
	render.JSON(w, r, response.OKWithData(list))
}
