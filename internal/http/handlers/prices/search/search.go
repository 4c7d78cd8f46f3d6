// Package search реализует HTTP-обработчик поиска лекарства в справочнике цен.
package search

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/lekomapa/internal/http/response"
	"github.com/magabrotheeeer/lekomapa/internal/lib/sl"
)

type Service interface {
	Search(ctx context.Context, query string) ([]string, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.prices.search"
	log := h.log.With(sl.Op(op), slog.String("request_id", middleware.GetReqID(r.Context())))

	names, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		log.Error("failed to search medications", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not search medications"))
		return
	}
	if names == nil {
		names = []string{}
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"medications": names,
	}))
}
