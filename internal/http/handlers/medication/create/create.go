// Package create реализует HTTP-обработчик добавления лекарства.
//
// Handler принимает JSON с данными лекарства, передаёт его редактору и
// возвращает созданную запись. Ошибки валидации отдаются со статусом 422,
// исчерпанный лимит бесплатного тарифа со статусом 403.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/lekomapa/internal/http/response"
	"github.com/magabrotheeeer/lekomapa/internal/lib/sl"
	"github.com/magabrotheeeer/lekomapa/internal/models"
)

// Handler управляет HTTP-запросами на добавление лекарств.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает сценарий добавления лекарства.
type Service interface {
	Create(ctx context.Context, input models.MedicationInput) (models.Medication, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.medication.create"
	log := h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.MedicationInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	med, err := h.service.Create(r.Context(), req)
	if err != nil {
		if verrs, ok := response.AsValidationErrors(err); ok {
			log.Info("validation failed", sl.Err(err))
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.ValidationError(verrs))
			return
		}
		if errors.Is(err, models.ErrMedicationLimit) {
			log.Info("free tier medication limit reached")
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, response.Error("medication limit reached, premium required"))
			return
		}
		log.Error("failed to create medication", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create medication"))
		return
	}

	log.Info("medication created", slog.String("id", med.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(med))
}
