package editor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/lekomapa/internal/lib/clock"
	"github.com/magabrotheeeer/lekomapa/internal/models"
	"github.com/magabrotheeeer/lekomapa/internal/services/entitlement"
	"github.com/magabrotheeeer/lekomapa/internal/services/medication"
)

type nopPersister struct{}

func (nopPersister) Save(string, any) {}

// fakeScheduler выдаёт последовательные идентификаторы и помнит активные.
type fakeScheduler struct {
	mu     sync.Mutex
	next   int
	active map[string]string
	fail   bool
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{active: map[string]string{}}
}

func (f *fakeScheduler) Schedule(_ context.Context, _ string, at, _ string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", false
	}
	f.next++
	handle := fmt.Sprintf("%s#%d", at, f.next)
	f.active[handle] = at
	return handle, true
}

func (f *fakeScheduler) Cancel(_ context.Context, handle string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.active, handle)
}

func (f *fakeScheduler) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.active)
}

type fixture struct {
	editor *Editor
	meds   *medication.Store
	ent    *entitlement.Engine
	sched  *fakeScheduler
}

func newFixture() fixture {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	clk := clock.NewManual(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	meds := medication.New(log, clk, nopPersister{})
	ent := entitlement.New(log, clk, nopPersister{}, entitlement.Config{FreeMedicationLimit: 5})
	sched := newFakeScheduler()
	return fixture{
		editor: New(log, meds, ent, sched),
		meds:   meds,
		ent:    ent,
		sched:  sched,
	}
}

func input(name string, times ...string) models.MedicationInput {
	return models.MedicationInput{Name: name, Dosage: "500mg", Frequency: models.FrequencyDaily, Times: times}
}

func TestCreate(t *testing.T) {
	f := newFixture()

	med, err := f.editor.Create(context.Background(), input("Paracetamol", "08:00", "20:00"))
	require.NoError(t, err)

	assert.Equal(t, "Paracetamol", med.Name)
	assert.Equal(t, 1, f.meds.Count())
	assert.Len(t, f.editor.Handles(med.ID), 2)
	assert.Equal(t, 2, f.sched.count())
}

func TestCreate_SeedsTimesFromFrequency(t *testing.T) {
	f := newFixture()

	in := input("Metformina")
	in.Frequency = models.FrequencyTwice
	med, err := f.editor.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, []string{"08:00", "20:00"}, med.Times)
}

func TestCreate_DefaultsFrequencyToDaily(t *testing.T) {
	f := newFixture()

	med, err := f.editor.Create(context.Background(),
		models.MedicationInput{Name: "X", Dosage: "1", Times: []string{"08:00"}})
	require.NoError(t, err)
	assert.Equal(t, models.FrequencyDaily, med.Frequency)

	stored, err := f.meds.Get(med.ID)
	require.NoError(t, err)
	assert.True(t, stored.Frequency.Valid())
}

func TestUpdate_RejectsEmptyFrequency(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	med, err := f.editor.Create(ctx, input("A", "08:00"))
	require.NoError(t, err)

	empty := models.Frequency("")
	var verr *ValidationError
	_, err = f.editor.Update(ctx, med.ID, models.MedicationPatch{Frequency: &empty})
	require.ErrorAs(t, err, &verr)

	got, err := f.meds.Get(med.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FrequencyDaily, got.Frequency)
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input models.MedicationInput
	}{
		{name: "пустое название", input: models.MedicationInput{Dosage: "1", Times: []string{"08:00"}}},
		{name: "пустая дозировка", input: models.MedicationInput{Name: "A", Times: []string{"08:00"}}},
		{name: "неверная частота", input: models.MedicationInput{Name: "A", Dosage: "1", Frequency: "hourly"}},
		{name: "неверное время", input: input("A", "8:00")},
		{name: "больше шести времён", input: input("A", "01:00", "02:00", "03:00", "04:00", "05:00", "06:00", "07:00")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.editor.Create(context.Background(), tt.input)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			var verrs validator.ValidationErrors
			assert.ErrorAs(t, err, &verrs)
			assert.Zero(t, f.meds.Count())
			assert.Zero(t, f.sched.count())
		})
	}
}

func TestCreate_FreeLimitAndTrial(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C", "D", "E"} {
		_, err := f.editor.Create(ctx, input(name, "08:00"))
		require.NoError(t, err)
	}

	_, err := f.editor.Create(ctx, input("Paracetamol", "20:00"))
	require.ErrorIs(t, err, models.ErrMedicationLimit)
	assert.Equal(t, 5, f.meds.Count())

	require.NoError(t, f.ent.StartTrial())
	_, err = f.editor.Create(ctx, input("Paracetamol", "20:00"))
	require.NoError(t, err)
	assert.Equal(t, 6, f.meds.Count())
}

func TestCreate_SchedulingFailureKeepsMedication(t *testing.T) {
	f := newFixture()
	f.sched.fail = true

	med, err := f.editor.Create(context.Background(), input("A", "08:00"))
	require.NoError(t, err)
	assert.Equal(t, 1, f.meds.Count())
	assert.Empty(t, f.editor.Handles(med.ID))
}

func TestUpdate_ReschedulesReminders(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	med, err := f.editor.Create(ctx, input("A", "08:00", "20:00"))
	require.NoError(t, err)
	old := f.editor.Handles(med.ID)

	updated, err := f.editor.Update(ctx, med.ID, models.MedicationPatch{Times: []string{"09:00"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00"}, updated.Times)

	handles := f.editor.Handles(med.ID)
	require.Len(t, handles, 1)
	assert.NotContains(t, old, handles[0])
	assert.Equal(t, 1, f.sched.count(), "stale registrations are cancelled")
}

func TestUpdate_Errors(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	med, err := f.editor.Create(ctx, input("A", "08:00"))
	require.NoError(t, err)

	empty := ""
	var verr *ValidationError
	_, err = f.editor.Update(ctx, med.ID, models.MedicationPatch{Name: &empty})
	assert.ErrorAs(t, err, &verr)

	_, err = f.editor.Update(ctx, med.ID, models.MedicationPatch{Times: []string{}})
	assert.ErrorAs(t, err, &verr, "times must not become empty")

	_, err = f.editor.Update(ctx, "missing", models.MedicationPatch{})
	assert.ErrorIs(t, err, models.ErrMedicationNotFound)

	got, err := f.meds.Get(med.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", got.Name)
	assert.Equal(t, 1, f.sched.count())
}

func TestDelete_CancelsReminders(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	med, err := f.editor.Create(ctx, input("A", "08:00", "12:00"))
	require.NoError(t, err)

	require.NoError(t, f.editor.Delete(ctx, med.ID))
	assert.Zero(t, f.meds.Count())
	assert.Zero(t, f.sched.count())
	assert.Empty(t, f.editor.Handles(med.ID))

	assert.ErrorIs(t, f.editor.Delete(ctx, med.ID), models.ErrMedicationNotFound)
}

func TestResync(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.editor.Create(ctx, input("A", "08:00", "12:00"))
	require.NoError(t, err)

	f.meds.Replace([]models.Medication{
		{ID: "x", Name: "X", Dosage: "1", Times: []string{"07:00"}},
		{ID: "y", Name: "Y", Dosage: "1", Times: []string{"09:00", "21:00", "21:00"}},
	})

	n := f.editor.Resync(ctx)
	assert.Equal(t, 4, n)
	assert.Equal(t, 4, f.sched.count())
	assert.Len(t, f.editor.Handles("y"), 3)
}
