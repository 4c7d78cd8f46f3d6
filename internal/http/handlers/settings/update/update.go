// Package update реализует HTTP-обработчик частичного изменения настроек.
package update

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/lekomapa/internal/http/response"
	"github.com/magabrotheeeer/lekomapa/internal/lib/sl"
	"github.com/magabrotheeeer/lekomapa/internal/lib/validation"
	"github.com/magabrotheeeer/lekomapa/internal/models"
)

type Service interface {
	Apply(patch models.SettingsPatch) (models.Settings, error)
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validation.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.settings.update"
	log := h.log.With(sl.Op(op), slog.String("request_id", middleware.GetReqID(r.Context())))

	var patch models.SettingsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(patch); err != nil {
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	settings, err := h.service.Apply(patch)
	if err != nil {
		if errors.Is(err, models.ErrInvalidLanguage) || errors.Is(err, models.ErrInvalidTime) {
			log.Info("settings rejected", sl.Err(err))
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error(err.Error()))
			return
		}
		log.Error("failed to update settings", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not update settings"))
		return
	}

	log.Info("settings updated")
	render.JSON(w, r, response.OKWithData(settings))
}
