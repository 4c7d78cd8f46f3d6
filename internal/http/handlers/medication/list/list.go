// Package list реализует HTTP-обработчики чтения коллекции лекарств.
package list

import (
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

// Service — чтение коллекции лекарств.
type Service interface {
	List() []models.Medication
	Get(id string) (models.Medication, error)
}

// Handler отдаёт все лекарства в порядке добавления.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler для списка лекарств.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.medication.list"
	meds := h.service.List()

	h.log.Debug("medications listed",
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Int("count", len(meds)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"medications": meds,
		"count":       len(meds),
	}))
}

// ReadHandler отдаёт одно лекарство по id.
type ReadHandler struct {
	log     *slog.Logger
	service Service
}

// NewRead создает ReadHandler.
func NewRead(log *slog.Logger, service Service) *ReadHandler {
	return &ReadHandler{log: log, service: service}
}

func (h *ReadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.medication.read"
	id := chi.URLParam(r, "id")

	med, err := h.service.Get(id)
	if err != nil {
		log := h.log.With(sl.Op(op), slog.String("request_id", middleware.GetReqID(r.Context())))
		if errors.Is(err, models.ErrMedicationNotFound) {
			log.Info("medication not found", slog.String("id", id))
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("medication not found"))
			return
		}
		log.Error("failed to read medication", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read medication"))
		return
	}
	render.JSON(w, r, response.OKWithData(med))
}
