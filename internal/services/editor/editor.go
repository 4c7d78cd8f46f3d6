// Package editor реализует сценарии добавления, изменения и удаления
// лекарств: проверку ввода, ограничение бесплатного тарифа и
// синхронизацию напоминаний с временем приёма.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/lekomapa/internal/lib/sl"
	"github.com/magabrotheeeer/lekomapa/internal/lib/validation"
	"github.com/magabrotheeeer/lekomapa/internal/models"
)

// MedicationStore — операции коллекции лекарств, нужные редактору.
type MedicationStore interface {
	Add(data models.MedicationData) models.Medication
	Update(id string, patch models.MedicationPatch) (models.Medication, error)
	Delete(id string) error
	Get(id string) (models.Medication, error)
	List() []models.Medication
	Count() int
}

// Entitlement отвечает, можно ли добавить ещё одно лекарство.
type Entitlement interface {
	CanAddMedication(count int) bool
}

// Scheduler регистрирует и отменяет напоминания.
type Scheduler interface {
	Schedule(ctx context.Context, medicationName, at, medicationID string) (string, bool)
	Cancel(ctx context.Context, handle string)
}

// ValidationError — ввод не прошёл проверку.
type ValidationError struct {
	Errs validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	return e.Errs.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Errs
}

const timesRule = "required,min=1,max=6,dive,timeofday"

// Editor — сценарии редактирования лекарств.
type Editor struct {
	meds     MedicationStore
	ent      Entitlement
	sched    Scheduler
	validate *validator.Validate
	log      *slog.Logger

	// mu сериализует сценарии, чтобы проверка лимита и добавление
	// выполнялись атомарно, и охраняет handles.
	mu      sync.Mutex
	handles map[string][]string
}

// New создаёт Editor.
func New(log *slog.Logger, meds MedicationStore, ent Entitlement, sched Scheduler) *Editor {
	return &Editor{
		meds:     meds,
		ent:      ent,
		sched:    sched,
		validate: validation.New(),
		log:      log,
		handles:  make(map[string][]string),
	}
}

// Create проверяет ввод, подставляет частоту daily и время по частоте, проверяет лимит
// тарифа, сохраняет лекарство и регистрирует напоминания. Ошибки
// регистрации напоминаний не отменяют сохранение.
func (e *Editor) Create(ctx context.Context, input models.MedicationInput) (models.Medication, error) {
	const op = "editor.Create"
	log := e.log.With(sl.Op(op))

	if input.Frequency == "" {
		input.Frequency = models.FrequencyDaily
	}
	if err := e.check(e.validate.Struct(input)); err != nil {
		return models.Medication{}, fmt.Errorf("%s: %w", op, err)
	}
	times := input.Times
	if len(times) == 0 {
		times = input.Frequency.DefaultTimes()
	}
	if err := e.check(e.validate.Var(times, timesRule)); err != nil {
		return models.Medication{}, fmt.Errorf("%s: %w", op, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.ent.CanAddMedication(e.meds.Count()) {
		log.Info("free medication limit reached")
		return models.Medication{}, fmt.Errorf("%s: %w", op, models.ErrMedicationLimit)
	}

	med := e.meds.Add(models.MedicationData{
		Name:      input.Name,
		Dosage:    input.Dosage,
		Frequency: input.Frequency,
		Times:     times,
		Notes:     input.Notes,
	})
	e.schedule(ctx, med)

	log.Info("medication created", slog.String("id", med.ID), slog.Int("reminders", len(e.handles[med.ID])))
	return med, nil
}

// Update применяет патч, отменяет прежние напоминания лекарства и
// регистрирует новые.
func (e *Editor) Update(ctx context.Context, id string, patch models.MedicationPatch) (models.Medication, error) {
	const op = "editor.Update"

	e.mu.Lock()
	defer e.mu.Unlock()

	current, err := e.meds.Get(id)
	if err != nil {
		return models.Medication{}, fmt.Errorf("%s: %w", op, err)
	}
	if patch.Frequency == nil && !current.Frequency.Valid() {
		daily := models.FrequencyDaily
		patch.Frequency = &daily
	}
	merged := patch.Apply(current)
	input := models.MedicationInput{
		Name:      merged.Name,
		Dosage:    merged.Dosage,
		Frequency: merged.Frequency,
		Times:     merged.Times,
		Notes:     merged.Notes,
	}
	if err := e.check(e.validate.Struct(input)); err != nil {
		return models.Medication{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := e.check(e.validate.Var(merged.Times, timesRule)); err != nil {
		return models.Medication{}, fmt.Errorf("%s: %w", op, err)
	}

	med, err := e.meds.Update(id, patch)
	if err != nil {
		return models.Medication{}, fmt.Errorf("%s: %w", op, err)
	}
	e.cancel(ctx, id)
	e.schedule(ctx, med)

	e.log.Info("medication updated", sl.Op(op), slog.String("id", id))
	return med, nil
}

// Delete удаляет лекарство и отменяет его напоминания.
func (e *Editor) Delete(ctx context.Context, id string) error {
	const op = "editor.Delete"

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.meds.Delete(id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	e.cancel(ctx, id)

	e.log.Info("medication deleted", sl.Op(op), slog.String("id", id))
	return nil
}

// Resync отменяет все известные напоминания и регистрирует их заново по
// текущей коллекции. Возвращает число зарегистрированных напоминаний.
func (e *Editor) Resync(ctx context.Context) int {
	const op = "editor.Resync"

	e.mu.Lock()
	defer e.mu.Unlock()

	for id := range e.handles {
		e.cancel(ctx, id)
	}
	n := 0
	for _, med := range e.meds.List() {
		e.schedule(ctx, med)
		n += len(e.handles[med.ID])
	}

	e.log.Info("reminders resynced", sl.Op(op), slog.Int("count", n))
	return n
}

// Handles возвращает идентификаторы напоминаний лекарства.
func (e *Editor) Handles(id string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.handles[id]...)
}

// schedule регистрирует напоминания на каждое время приёма. Вызывается под e.mu.
func (e *Editor) schedule(ctx context.Context, med models.Medication) {
	var handles []string
	for _, at := range med.Times {
		if handle, ok := e.sched.Schedule(ctx, med.Name, at, med.ID); ok {
			handles = append(handles, handle)
		}
	}
	if len(handles) > 0 {
		e.handles[med.ID] = handles
	}
}

// cancel отменяет напоминания лекарства. Вызывается под e.mu.
func (e *Editor) cancel(ctx context.Context, id string) {
	for _, handle := range e.handles[id] {
		e.sched.Cancel(ctx, handle)
	}
	delete(e.handles, id)
}

func (e *Editor) check(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return &ValidationError{Errs: verrs}
	}
	return err
}
