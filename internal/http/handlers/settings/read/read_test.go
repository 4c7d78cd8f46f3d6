package read

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/lekomapa/internal/models"
)

type serviceStub struct{}

func (serviceStub) Get() models.Settings { return models.DefaultSettings() }

func TestReadHandler(t *testing.T) {
	w := httptest.NewRecorder()
	New(serviceStub{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"language":"pl"`)
	assert.Contains(t, w.Body.String(), `"quietHoursStart":"22:00"`)
}
