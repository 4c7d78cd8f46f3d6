// Package importdata реализует HTTP-обработчик восстановления данных из JSON-файла экспорта.
package importdata

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/lekomapa/internal/http/response"
	"github.com/magabrotheeeer/lekomapa/internal/lib/sl"
	"github.com/magabrotheeeer/lekomapa/internal/models"
)

// MaxBodySize ограничивает размер загружаемого файла.
const MaxBodySize = 10 << 20

type Service interface {
	Import(ctx context.Context, data []byte) error
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.transfer.import"
	log := h.log.With(sl.Op(op), slog.String("request_id", middleware.GetReqID(r.Context())))

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err != nil {
		log.Error("failed to read request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.service.Import(r.Context(), data); err != nil {
		if errors.Is(err, models.ErrInvalidFormat) {
			log.Info("import rejected", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid import format"))
			return
		}
		log.Error("failed to import data", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not import data"))
		return
	}

	log.Info("data imported")
	render.JSON(w, r, response.OKWithData(map[string]any{
		"imported": true,
	}))
}
