// Package trial реализует HTTP-обработчики запуска и завершения пробного периода.
package trial

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/lekomapa/internal/http/response"
	"github.com/magabrotheeeer/lekomapa/internal/lib/sl"
	"github.com/magabrotheeeer/lekomapa/internal/models"
)

// Service управляет пробным периодом.
type Service interface {
	StartTrial() error
	EndTrial()
	State() models.Subscription
}

// StartHandler запускает пробный период.
type StartHandler struct {
	log     *slog.Logger
	service Service
}

// NewStart создает StartHandler.
func NewStart(log *slog.Logger, service Service) *StartHandler {
	return &StartHandler{log: log, service: service}
}

func (h *StartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.entitlement.trial.start"
	log := h.log.With(sl.Op(op), slog.String("request_id", middleware.GetReqID(r.Context())))

	if err := h.service.StartTrial(); err != nil {
		if errors.Is(err, models.ErrTrialAlreadyUsed) {
			log.Info("trial already used")
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.Error("trial already used"))
			return
		}
		log.Error("failed to start trial", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not start trial"))
		return
	}

	render.JSON(w, r, response.OKWithData(h.service.State()))
}

// EndHandler завершает пробный период досрочно.
type EndHandler struct {
	log     *slog.Logger
	service Service
}

// NewEnd создает EndHandler.
func NewEnd(log *slog.Logger, service Service) *EndHandler {
	return &EndHandler{log: log, service: service}
}

func (h *EndHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.entitlement.trial.end"
	h.service.EndTrial()
	h.log.Info("trial ended by request", sl.Op(op), slog.String("request_id", middleware.GetReqID(r.Context())))
	render.JSON(w, r, response.OKWithData(h.service.State()))
}
