// Package taken реализует HTTP-обработчик отметки приёма дозы.
package taken

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/lekomapa/internal/http/response"
	"github.com/magabrotheeeer/lekomapa/internal/lib/clock"
	"github.com/magabrotheeeer/lekomapa/internal/lib/sl"
	"github.com/magabrotheeeer/lekomapa/internal/lib/timeofday"
	"github.com/magabrotheeeer/lekomapa/internal/lib/validation"
	"github.com/magabrotheeeer/lekomapa/internal/models"
)

// Handler отмечает приём или снимает отметку. Без даты используется сегодняшний день.
type Handler struct {
	log      *slog.Logger
	service  Service
	clock    clock.Clock
	validate *validator.Validate
}

// Service записывает отметку приёма.
type Service interface {
	MarkTaken(id, date, at string, taken bool) error
}

// New создает новый Handler.
func New(log *slog.Logger, service Service, clk clock.Clock) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		clock:    clk,
		validate: validation.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.medication.taken"
	id := chi.URLParam(r, "id")
	log := h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("id", id),
	)

	var req models.TakenMark
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	if req.Date == "" {
		req.Date = timeofday.DateKey(h.clock.Now())
	}

	if err := h.service.MarkTaken(id, req.Date, req.Time, req.Taken); err != nil {
		if errors.Is(err, models.ErrMedicationNotFound) {
			log.Info("medication not found")
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("medication not found"))
			return
		}
		log.Error("failed to mark dose", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not mark dose"))
		return
	}

	log.Info("dose marked", slog.String("date", req.Date), slog.String("time", req.Time), slog.Bool("taken", req.Taken))
	render.JSON(w, r, response.OKWithData(req))
}
