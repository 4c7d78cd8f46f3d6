package taken

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/lekomapa/internal/lib/clock"
	"github.com/magabrotheeeer/lekomapa/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) MarkTaken(id, date, at string, taken bool) error {
	return m.Called(id, date, at, taken).Error(0)
}

func TestTakenHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clk := clock.NewManual(time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC))

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "отметка на сегодня",
			body: `{"time":"08:00","taken":true}`,
			setupMock: func(m *MockService) {
				m.On("MarkTaken", "m1", "2026-10-15", "08:00", true).Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"date":"2026-10-15"`,
		},
		{
			name: "снятие отметки на прошлую дату",
			body: `{"date":"2026-10-14","time":"20:00","taken":false}`,
			setupMock: func(m *MockService) {
				m.On("MarkTaken", "m1", "2026-10-14", "20:00", false).Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"taken":false`,
		},
		{
			name:           "неверное время",
			body:           `{"time":"8:00","taken":true}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `HH:MM`,
		},
		{
			name:           "неверная дата",
			body:           `{"date":"15-10-2026","time":"08:00","taken":true}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `2006-01-02`,
		},
		{
			name: "лекарство не найдено",
			body: `{"time":"08:00","taken":true}`,
			setupMock: func(m *MockService) {
				m.On("MarkTaken", "m1", "2026-10-15", "08:00", true).
					Return(fmt.Errorf("medication.MarkTaken: %w", models.ErrMedicationNotFound))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `medication not found`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPut, "/api/v1/medications/m1/taken", bytes.NewBufferString(tt.body))
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", "m1")
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			w := httptest.NewRecorder()
			New(logger, svc, clk).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
