package today

import (
	"io"
	"iter"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/lekomapa/internal/lib/clock"
	"github.com/magabrotheeeer/lekomapa/internal/models"
)

type serviceStub struct {
	doses map[string][]models.Dose
	asked []string
}

func (s *serviceStub) DosesOn(date string) iter.Seq[models.Dose] {
	s.asked = append(s.asked, date)
	return slices.Values(s.doses[date])
}

func TestTodayHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clk := clock.NewManual(time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC))
	med := models.Medication{ID: "m1", Name: "Paracetamol"}

	svc := &serviceStub{doses: map[string][]models.Dose{
		"2026-10-15": {
			{Medication: med, Time: "08:00", IsTaken: true},
			{Medication: med, Time: "20:00"},
		},
	}}

	tests := []struct {
		name           string
		url            string
		expectedStatus int
		expectedBody   string
	}{
		{name: "сегодня по часам", url: "/api/v1/doses/today", expectedStatus: http.StatusOK, expectedBody: `"taken":1,"total":2`},
		{name: "пустой день", url: "/api/v1/doses/today?date=2026-10-16", expectedStatus: http.StatusOK, expectedBody: `"doses":[]`},
		{name: "неверная дата", url: "/api/v1/doses/today?date=16.10.2026", expectedStatus: http.StatusBadRequest, expectedBody: `YYYY-MM-DD`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			New(logger, svc, clk).ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.url, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
		})
	}
	assert.Equal(t, []string{"2026-10-15", "2026-10-16"}, svc.asked)
}
