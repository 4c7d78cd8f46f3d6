// Package premium реализует HTTP-обработчик прямой установки флага премиум-доступа.
package premium

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/lekomapa/internal/http/response"
	"github.com/magabrotheeeer/lekomapa/internal/lib/sl"
	"github.com/magabrotheeeer/lekomapa/internal/models"
)

// Service выставляет флаг премиум-доступа.
type Service interface {
	SetPremium(premium bool)
	State() models.Subscription
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
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.entitlement.premium"
	log := h.log.With(sl.Op(op), slog.String("request_id", middleware.GetReqID(r.Context())))

	var req models.PremiumRequest
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

	h.service.SetPremium(*req.IsPremium)
	render.JSON(w, r, response.OKWithData(h.service.State()))
}
