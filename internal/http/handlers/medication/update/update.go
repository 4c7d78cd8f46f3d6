// Package update реализует HTTP-обработчик частичного изменения лекарства.
package update

import (
	"context"
	"encoding/json"
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

// Handler управляет HTTP-запросами на изменение лекарств.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает сценарий изменения лекарства.
type Service interface {
	Update(ctx context.Context, id string, patch models.MedicationPatch) (models.Medication, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.medication.update"
	id := chi.URLParam(r, "id")
	log := h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("id", id),
	)

	var patch models.MedicationPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	med, err := h.service.Update(r.Context(), id, patch)
	switch {
	case err == nil:
	case errors.Is(err, models.ErrMedicationNotFound):
		log.Info("medication not found")
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("medication not found"))
		return
	default:
		if verrs, ok := response.AsValidationErrors(err); ok {
			log.Info("validation failed", sl.Err(err))
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.ValidationError(verrs))
			return
		}
		log.Error("failed to update medication", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not update medication"))
		return
	}

	log.Info("medication updated")
	render.JSON(w, r, response.OKWithData(med))
}
