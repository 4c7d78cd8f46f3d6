package update

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/lekomapa/internal/lib/validation"
	"github.com/magabrotheeeer/lekomapa/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Update(ctx context.Context, id string, patch models.MedicationPatch) (models.Medication, error) {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(models.Medication), args.Error(1)
}

func TestUpdateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	patch := models.MedicationPatch{Times: []string{"07:30", "19:30"}}

	timesErr := validation.New().Var([]string{"7:3"}, "dive,timeofday")

	tests := []struct {
		name           string
		id             string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешное изменение",
			id:   "m1",
			body: `{"times":["07:30","19:30"]}`,
			setupMock: func(m *MockService) {
				m.On("Update", mock.Anything, "m1", patch).
					Return(models.Medication{ID: "m1", Times: patch.Times}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"times":["07:30","19:30"]`,
		},
		{
			name:           "некорректный JSON",
			id:             "m1",
			body:           `[`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `invalid request body`,
		},
		{
			name: "лекарство не найдено",
			id:   "missing",
			body: `{"times":["07:30","19:30"]}`,
			setupMock: func(m *MockService) {
				m.On("Update", mock.Anything, "missing", patch).
					Return(models.Medication{}, fmt.Errorf("medication.Update: %w", models.ErrMedicationNotFound))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `medication not found`,
		},
		{
			name: "неверное время",
			id:   "m1",
			body: `{"times":["07:30","19:30"]}`,
			setupMock: func(m *MockService) {
				m.On("Update", mock.Anything, "m1", patch).
					Return(models.Medication{}, fmt.Errorf("editor.Update: %w", timesErr))
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `HH:MM`,
		},
		{
			name: "ошибка сервиса",
			id:   "m1",
			body: `{"times":["07:30","19:30"]}`,
			setupMock: func(m *MockService) {
				m.On("Update", mock.Anything, "m1", patch).Return(models.Medication{}, errors.New("boom"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `could not update medication`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPut, "/api/v1/medications/"+tt.id, bytes.NewBufferString(tt.body))
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			w := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
