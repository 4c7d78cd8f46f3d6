package lekomapa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/lekomapa/internal/config"
	"github.com/magabrotheeeer/lekomapa/internal/lib/clock"
	"github.com/magabrotheeeer/lekomapa/internal/metrics"
	"github.com/magabrotheeeer/lekomapa/internal/models"
	"github.com/magabrotheeeer/lekomapa/internal/storage"
	"github.com/magabrotheeeer/lekomapa/internal/storage/writer"
)

type testEnv struct {
	server *httptest.Server
	db     *storage.Storage
	writer *writer.Writer
	svc    *Services
	clock  *clock.Manual
	cfg    *config.Config
	log    *slog.Logger
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.RateLimit = 1000
	cfg.RateBurst = 1000
	cfg.FreeMedicationLimit = 5
	cfg.TrialPeriod = 7 * 24 * time.Hour
	cfg.FreePriceCount = 3
	cfg.CacheTTL = time.Hour
	cfg.PersistTimeout = 5 * time.Second
	return cfg
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := storage.New("sqlite", filepath.Join(t.TempDir(), "lekomapa.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })

	w := writer.New(db, log, 5*time.Second)
	t.Cleanup(w.Close)

	clk := clock.NewManual(time.Date(2026, 10, 15, 7, 0, 0, 0, time.UTC))
	cfg := testConfig()
	svc := NewServices(context.Background(), cfg, log, clk, db, w, nil)

	r := chi.NewRouter()
	RegisterRoutes(r, log, cfg.HTTPServer, svc)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, db: db, writer: w, svc: svc, clock: clk, cfg: cfg, log: log}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, e.server.URL+path, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func data(t *testing.T, out map[string]any) map[string]any {
	t.Helper()
	d, ok := out["data"].(map[string]any)
	require.True(t, ok, "response has no data object: %v", out)
	return d
}

func TestFreeTierLimitAndTrial(t *testing.T) {
	env := newTestEnv(t)

	for i := range 5 {
		code, _ := env.do(t, http.MethodPost, "/api/v1/medications",
			fmt.Sprintf(`{"name":"Lek %d","dosage":"1 tabl.","frequency":"daily"}`, i))
		require.Equal(t, http.StatusCreated, code)
	}

	code, out := env.do(t, http.MethodPost, "/api/v1/medications", `{"name":"Paracetamol","dosage":"500 mg","frequency":"twice"}`)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Error", out["status"])

	code, _ = env.do(t, http.MethodPost, "/api/v1/entitlement/trial", "")
	require.Equal(t, http.StatusOK, code)

	code, out = env.do(t, http.MethodPost, "/api/v1/medications", `{"name":"Paracetamol","dosage":"500 mg","frequency":"twice"}`)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, []any{"08:00", "20:00"}, data(t, out)["times"])

	code, _ = env.do(t, http.MethodPost, "/api/v1/entitlement/trial", "")
	assert.Equal(t, http.StatusConflict, code)

	assert.Equal(t, 7, env.svc.Registry.Len())

	// Пробный период истекает, запрос снимает премиум-доступ.
	env.clock.Advance(8 * 24 * time.Hour)
	code, out = env.do(t, http.MethodGet, "/api/v1/entitlement", "")
	require.Equal(t, http.StatusOK, code)
	st := data(t, out)
	assert.Equal(t, false, st["isPremium"])
	assert.Equal(t, false, st["canAddMedication"])
	assert.Equal(t, float64(0), st["medicationsLeft"])
}

func TestPricesFollowEntitlement(t *testing.T) {
	env := newTestEnv(t)

	code, out := env.do(t, http.MethodGet, "/api/v1/pharmacy/prices?medication=Paracetamol", "")
	require.Equal(t, http.StatusOK, code)
	list := data(t, out)
	assert.Len(t, list["prices"], 3)
	assert.Equal(t, float64(4), list["total"])
	assert.Equal(t, true, list["limited"])
	first := list["prices"].([]any)[0].(map[string]any)
	assert.Equal(t, 10.8, first["price"])

	env.do(t, http.MethodPost, "/api/v1/entitlement/subscription", `{"endDate":"2027-10-15T00:00:00Z"}`)

	_, out = env.do(t, http.MethodGet, "/api/v1/pharmacy/prices?medication=paracetamol", "")
	list = data(t, out)
	assert.Len(t, list["prices"], 4)
	assert.Equal(t, false, list["limited"])

	_, out = env.do(t, http.MethodGet, "/api/v1/pharmacy/medications?q=met", "")
	assert.Equal(t, []any{"Metformina"}, data(t, out)["medications"])
}

func TestDosesAndTaken(t *testing.T) {
	env := newTestEnv(t)

	_, out := env.do(t, http.MethodPost, "/api/v1/medications", `{"name":"Paracetamol","dosage":"500 mg","times":["20:00","08:00"]}`)
	id := data(t, out)["id"].(string)

	code, _ := env.do(t, http.MethodPut, "/api/v1/medications/"+id+"/taken", `{"time":"08:00","taken":true}`)
	require.Equal(t, http.StatusOK, code)

	_, out = env.do(t, http.MethodGet, "/api/v1/doses/today", "")
	day := data(t, out)
	assert.Equal(t, "2026-10-15", day["date"])
	assert.Equal(t, float64(2), day["total"])
	assert.Equal(t, float64(1), day["taken"])
	doses := day["doses"].([]any)
	assert.Equal(t, "08:00", doses[0].(map[string]any)["time"])
	assert.Equal(t, true, doses[0].(map[string]any)["isTaken"])

	env.clock.Advance(24 * time.Hour)
	_, out = env.do(t, http.MethodGet, "/api/v1/doses/today", "")
	assert.Equal(t, float64(0), data(t, out)["taken"])

	code, _ = env.do(t, http.MethodPut, "/api/v1/medications/missing/taken", `{"time":"08:00","taken":true}`)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestStatePersistsAcrossRestart(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/api/v1/medications", `{"name":"Ibuprofen","dosage":"200 mg","frequency":"daily"}`)
	env.do(t, http.MethodPatch, "/api/v1/settings", `{"language":"en","onboardingCompleted":true}`)
	env.do(t, http.MethodPost, "/api/v1/entitlement/trial", "")
	env.writer.Flush()

	w := writer.New(env.db, env.log, time.Second)
	defer w.Close()
	svc := NewServices(context.Background(), env.cfg, env.log, env.clock, env.db, w, nil)

	assert.Equal(t, 1, svc.Medications.Count())
	assert.Equal(t, "en", string(svc.Settings.Get().Language))
	assert.True(t, svc.Settings.Get().OnboardingCompleted)
	assert.True(t, svc.Entitlement.IsPremium())
	assert.Equal(t, 1, svc.Registry.Len())
}

func TestCorruptStoredStateFallsBackToDefaults(t *testing.T) {
	tests := []struct {
		name string
		key  string
		blob string
	}{
		{name: "обрезанные настройки", key: models.StateSettings, blob: `{"language":`},
		{name: "лекарства не массив", key: models.StateMedications, blob: `{"id":"a"}`},
		{name: "подписка не объект", key: models.StateSubscription, blob: `"premium"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()
			require.NoError(t, env.db.Put(ctx, tt.key, []byte(tt.blob)))

			before := testutil.ToFloat64(metrics.PersistFailures.WithLabelValues(tt.key))

			w := writer.New(env.db, env.log, time.Second)
			defer w.Close()
			svc := NewServices(ctx, env.cfg, env.log, env.clock, env.db, w, nil)

			require.NotNil(t, svc)
			assert.Zero(t, svc.Medications.Count())
			assert.Equal(t, models.DefaultSettings(), svc.Settings.Get())
			assert.False(t, svc.Entitlement.IsPremium())
			assert.Equal(t, before+1, testutil.ToFloat64(metrics.PersistFailures.WithLabelValues(tt.key)))
		})
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	src := newTestEnv(t)
	src.do(t, http.MethodPost, "/api/v1/medications", `{"name":"Metformina","dosage":"850 mg","frequency":"twice"}`)

	resp, err := http.Get(src.server.URL + "/api/v1/export")
	require.NoError(t, err)
	exported, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "lekomapa-backup-2026-10-15.json")

	dst := newTestEnv(t)
	code, _ := dst.do(t, http.MethodPost, "/api/v1/import", string(exported))
	require.Equal(t, http.StatusOK, code)

	meds := dst.svc.Medications.List()
	require.Len(t, meds, 1)
	assert.Equal(t, "Metformina", meds[0].Name)
	assert.Equal(t, 2, dst.svc.Registry.Len())

	code, _ = dst.do(t, http.MethodPost, "/api/v1/import", `{"medications":{}}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	code, out := env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", data(t, out)["status"])
}
