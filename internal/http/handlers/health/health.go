package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/lekomapa/internal/http/response"
	"github.com/magabrotheeeer/lekomapa/internal/lib/sl"
)

// Pinger проверяет доступность хранилища.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	log *slog.Logger
	db  Pinger
}

func New(log *slog.Logger, db Pinger) *Handler {
	return &Handler{
		log: log,
		db:  db,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"
	if err := h.db.PingContext(r.Context()); err != nil {
		h.log.Error("storage is not reachable", sl.Op(op), sl.Err(err))
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("storage unavailable"))
		return
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"status": "ok",
	}))
}
