// Package medication хранит коллекцию лекарств установки и отметки о приёме.
//
// Store — единственный владелец списка лекарств в процессе. Изменения
// применяются в памяти синхронно, после чего снимок коллекции целиком
// передаётся на запись. Ошибки записи не влияют на состояние в памяти.
package medication

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/lekomapa/internal/lib/clock"
	"github.com/magabrotheeeer/lekomapa/internal/lib/sl"
	"github.com/magabrotheeeer/lekomapa/internal/lib/timeofday"
	"github.com/magabrotheeeer/lekomapa/internal/metrics"
	"github.com/magabrotheeeer/lekomapa/internal/models"
)

// Persister принимает снимок состояния на запись.
type Persister interface {
	Save(key string, v any)
}

// Source читает сохранённый блоб.
type Source interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// Store — коллекция лекарств.
type Store struct {
	mu      sync.RWMutex
	meds    []models.Medication
	clock   clock.Clock
	persist Persister
	log     *slog.Logger
	newID   func() string
}

// New создаёт пустую коллекцию.
func New(log *slog.Logger, clk clock.Clock, persist Persister) *Store {
	return &Store{
		clock:   clk,
		persist: persist,
		log:     log,
		newID:   func() string { return uuid.NewString() },
	}
}

// Load восстанавливает коллекцию из хранилища. Отсутствие блоба не ошибка.
func (s *Store) Load(ctx context.Context, src Source) error {
	const op = "medication.Load"

	data, err := src.Get(ctx, models.StateMedications)
	if errors.Is(err, models.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var meds []models.Medication
	if err := json.Unmarshal(data, &meds); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	s.meds = meds
	s.mu.Unlock()

	s.log.Info("medications loaded", sl.Op(op), slog.Int("count", len(meds)))
	return nil
}

// Add добавляет лекарство со свежим id, пустыми отметками и текущим временем создания.
func (s *Store) Add(data models.MedicationData) models.Medication {
	const op = "medication.Add"

	times := append([]string(nil), data.Times...)
	if len(times) == 0 {
		times = data.Frequency.DefaultTimes()
	}
	med := models.Medication{
		ID:        s.newID(),
		Name:      data.Name,
		Dosage:    data.Dosage,
		Frequency: data.Frequency,
		Times:     times,
		Notes:     data.Notes,
		Taken:     models.TakenLog{},
		CreatedAt: s.clock.Now().UTC().Truncate(time.Millisecond),
	}

	s.mu.Lock()
	s.meds = append(s.meds, med)
	s.save()
	s.mu.Unlock()

	s.log.Info("medication added", sl.Op(op), slog.String("id", med.ID))
	return med.Clone()
}

// Update применяет патч к лекарству с данным id.
func (s *Store) Update(id string, patch models.MedicationPatch) (models.Medication, error) {
	const op = "medication.Update"

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return models.Medication{}, fmt.Errorf("%s: %s: %w", op, id, models.ErrMedicationNotFound)
	}
	updated := patch.Apply(s.meds[i])
	if len(updated.Times) == 0 {
		updated.Times = s.meds[i].Times
	}
	s.meds[i] = updated
	s.save()

	return updated.Clone(), nil
}

// Delete удаляет лекарство. Регистрации напоминаний здесь не отменяются.
func (s *Store) Delete(id string) error {
	const op = "medication.Delete"

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%s: %s: %w", op, id, models.ErrMedicationNotFound)
	}
	s.meds = slices.Delete(s.meds, i, i+1)
	s.save()
	return nil
}

// MarkTaken записывает отметку приёма на дату date и время at.
// Повторный вызов с тем же значением ничего не меняет по смыслу.
func (s *Store) MarkTaken(id, date, at string, taken bool) error {
	const op = "medication.MarkTaken"

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%s: %s: %w", op, id, models.ErrMedicationNotFound)
	}
	med := &s.meds[i]
	if med.Taken == nil {
		med.Taken = models.TakenLog{}
	}
	if med.Taken[date] == nil {
		med.Taken[date] = map[string]bool{}
	}
	med.Taken[date][at] = taken
	s.save()

	metrics.DosesMarked.WithLabelValues(strconv.FormatBool(taken)).Inc()
	return nil
}

// IsTaken сообщает, отмечен ли приём. Для неизвестного id возвращает false.
func (s *Store) IsTaken(id, date, at string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.index(id)
	if i < 0 {
		return false
	}
	return s.meds[i].IsTaken(date, at)
}

// TodaysDoses возвращает дозы на сегодняшний день по часам Store.
// Последовательность пересчитывается при каждом обходе.
func (s *Store) TodaysDoses() iter.Seq[models.Dose] {
	return func(yield func(models.Dose) bool) {
		for d := range s.DosesOn(timeofday.DateKey(s.clock.Now())) {
			if !yield(d) {
				return
			}
		}
	}
}

// DosesOn возвращает по одной дозе на каждую пару (лекарство, время),
// упорядоченные по времени приёма. Порядок равных времён совпадает с
// порядком лекарств в коллекции.
func (s *Store) DosesOn(date string) iter.Seq[models.Dose] {
	return func(yield func(models.Dose) bool) {
		s.mu.RLock()
		doses := make([]models.Dose, 0, len(s.meds))
		for _, med := range s.meds {
			snapshot := med.Clone()
			for _, at := range med.Times {
				doses = append(doses, models.Dose{
					Medication: snapshot,
					Time:       at,
					IsTaken:    med.IsTaken(date, at),
				})
			}
		}
		s.mu.RUnlock()

		slices.SortStableFunc(doses, func(a, b models.Dose) int {
			return cmp.Compare(a.Time, b.Time)
		})
		for _, d := range doses {
			if !yield(d) {
				return
			}
		}
	}
}

// List возвращает копию коллекции в порядке добавления.
func (s *Store) List() []models.Medication {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Medication, len(s.meds))
	for i, med := range s.meds {
		out[i] = med.Clone()
	}
	return out
}

// Get возвращает лекарство по id.
func (s *Store) Get(id string) (models.Medication, error) {
	const op = "medication.Get"

	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.index(id)
	if i < 0 {
		return models.Medication{}, fmt.Errorf("%s: %s: %w", op, id, models.ErrMedicationNotFound)
	}
	return s.meds[i].Clone(), nil
}

// Count возвращает число лекарств.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.meds)
}

// Replace полностью заменяет коллекцию (импорт).
func (s *Store) Replace(meds []models.Medication) {
	const op = "medication.Replace"

	next := make([]models.Medication, len(meds))
	for i, med := range meds {
		next[i] = med.Clone()
	}

	s.mu.Lock()
	s.meds = next
	s.save()
	s.mu.Unlock()

	s.log.Info("medications replaced", sl.Op(op), slog.Int("count", len(next)))
}

// index ищет лекарство по id. Вызывается под блокировкой.
func (s *Store) index(id string) int {
	return slices.IndexFunc(s.meds, func(m models.Medication) bool { return m.ID == id })
}

// save передаёт снимок на запись. Вызывается под блокировкой, чтобы
// снимки уходили в порядке изменений.
func (s *Store) save() {
	s.persist.Save(models.StateMedications, s.meds)
}
