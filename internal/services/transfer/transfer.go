// Package transfer реализует экспорт и импорт всего состояния установки
// в одном JSON-документе.
package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/lekomapa/internal/lib/clock"
	"github.com/magabrotheeeer/lekomapa/internal/lib/sl"
	"github.com/magabrotheeeer/lekomapa/internal/lib/timeofday"
	"github.com/magabrotheeeer/lekomapa/internal/models"
)

// Medications — коллекция лекарств.
type Medications interface {
	List() []models.Medication
	Replace(meds []models.Medication)
}

// Settings — настройки.
type Settings interface {
	Get() models.Settings
	Merge(raw json.RawMessage) error
}

// Entitlement — состояние подписки.
type Entitlement interface {
	State() models.Subscription
	Merge(raw json.RawMessage) error
}

// Resyncer перерегистрирует напоминания после замены коллекции.
type Resyncer interface {
	Resync(ctx context.Context) int
}

// Service — экспорт и импорт.
type Service struct {
	meds     Medications
	settings Settings
	ent      Entitlement
	resync   Resyncer
	clock    clock.Clock
	log      *slog.Logger
}

// New создаёт Service.
func New(log *slog.Logger, clk clock.Clock, meds Medications, settings Settings, ent Entitlement, resync Resyncer) *Service {
	return &Service{
		meds:     meds,
		settings: settings,
		ent:      ent,
		resync:   resync,
		clock:    clk,
		log:      log,
	}
}

// Export собирает документ экспорта.
func (s *Service) Export() models.Bundle {
	meds := s.meds.List()
	if meds == nil {
		meds = []models.Medication{}
	}
	return models.Bundle{
		Medications:  meds,
		Settings:     s.settings.Get(),
		Subscription: s.ent.State(),
		ExportDate:   s.clock.Now().UTC(),
		Version:      models.ExportVersion,
	}
}

// Import применяет документ экспорта. Документ должен быть объектом с
// массивом medications. Настройки и подписка накладываются, только если
// они присутствуют и являются объектами. Лекарства заменяются целиком.
func (s *Service) Import(ctx context.Context, data []byte) error {
	const op = "transfer.Import"
	log := s.log.With(sl.Op(op))

	if !isKind(data, '{') {
		return fmt.Errorf("%s: document is not an object: %w", op, models.ErrInvalidFormat)
	}
	var raw models.RawBundle
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%s: %w: %w", op, models.ErrInvalidFormat, err)
	}
	if !isKind(raw.Medications, '[') {
		return fmt.Errorf("%s: medications is not an array: %w", op, models.ErrInvalidFormat)
	}

	meds, err := s.decodeMedications(raw.Medications)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if isKind(raw.Subscription, '{') {
		var probe models.Subscription
		if err := json.Unmarshal(raw.Subscription, &probe); err != nil {
			return fmt.Errorf("%s: %w: %w", op, models.ErrInvalidFormat, err)
		}
	}

	if isKind(raw.Settings, '{') {
		if err := s.settings.Merge(raw.Settings); err != nil {
			return fmt.Errorf("%s: %w: %w", op, models.ErrInvalidFormat, err)
		}
	}
	if isKind(raw.Subscription, '{') {
		if err := s.ent.Merge(raw.Subscription); err != nil {
			return fmt.Errorf("%s: %w: %w", op, models.ErrInvalidFormat, err)
		}
	}
	s.meds.Replace(meds)
	n := s.resync.Resync(ctx)

	log.Info("data imported", slog.Int("medications", len(meds)), slog.Int("reminders", n))
	return nil
}

// decodeMedications разбирает массив лекарств и восстанавливает
// обязательные поля: id, частоту, непустой список времени и карту отметок.
func (s *Service) decodeMedications(raw json.RawMessage) ([]models.Medication, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrInvalidFormat, err)
	}

	now := s.clock.Now().UTC().Truncate(time.Millisecond)
	seen := make(map[string]bool, len(items))
	meds := make([]models.Medication, 0, len(items))
	for i, item := range items {
		if !isKind(item, '{') {
			return nil, fmt.Errorf("medication %d is not an object: %w", i, models.ErrInvalidFormat)
		}
		var med models.Medication
		if err := json.Unmarshal(item, &med); err != nil {
			return nil, fmt.Errorf("medication %d: %w: %w", i, models.ErrInvalidFormat, err)
		}
		if med.ID == "" || seen[med.ID] {
			med.ID = uuid.NewString()
		}
		seen[med.ID] = true
		if !med.Frequency.Valid() {
			med.Frequency = models.FrequencyDaily
		}
		if len(med.Times) == 0 {
			med.Times = med.Frequency.DefaultTimes()
		}
		if len(med.Times) > models.MaxTimesPerMedication {
			return nil, fmt.Errorf("medication %d has %d times: %w", i, len(med.Times), models.ErrInvalidFormat)
		}
		for _, at := range med.Times {
			if !timeofday.Valid(at) {
				return nil, fmt.Errorf("medication %d time %q: %w", i, at, models.ErrInvalidFormat)
			}
		}
		if med.Taken == nil {
			med.Taken = models.TakenLog{}
		}
		if med.CreatedAt.IsZero() {
			med.CreatedAt = now
		}
		meds = append(meds, med)
	}
	return meds, nil
}

// isKind сообщает, начинается ли JSON-значение с символа c.
func isKind(data []byte, c byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == c
}
