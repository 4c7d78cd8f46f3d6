package remove

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/lekomapa/internal/http/response"
	"github.com/magabrotheeeer/lekomapa/internal/lib/sl"
	"github.com/magabrotheeeer/lekomapa/internal/models"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	Delete(ctx context.Context, id string) error
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.medication.remove"
	id := chi.URLParam(r, "id")
	log := h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("id", id),
	)

	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, models.ErrMedicationNotFound) {
			log.Info("medication not found")
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("medication not found"))
			return
		}
		log.Error("failed to delete medication", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to delete medication"))
		return
	}

	log.Info("medication deleted")
	render.JSON(w, r, response.OKWithData(map[string]any{
		"deleted_id": id,
	}))
}
