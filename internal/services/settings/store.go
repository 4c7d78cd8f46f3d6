// Package settings хранит пользовательские настройки установки.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/magabrotheeeer/lekomapa/internal/lib/sl"
	"github.com/magabrotheeeer/lekomapa/internal/lib/timeofday"
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

// Store — настройки со значениями по умолчанию до первой загрузки.
type Store struct {
	mu       sync.RWMutex
	settings models.Settings
	persist  Persister
	log      *slog.Logger
}

// New создаёт Store с настройками по умолчанию.
func New(log *slog.Logger, persist Persister) *Store {
	return &Store{
		settings: models.DefaultSettings(),
		persist:  persist,
		log:      log,
	}
}

// Load восстанавливает настройки. Отсутствующие в блобе поля берутся по умолчанию.
func (s *Store) Load(ctx context.Context, src Source) error {
	const op = "settings.Load"

	data, err := src.Get(ctx, models.StateSettings)
	if errors.Is(err, models.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	loaded := models.DefaultSettings()
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !loaded.Language.Valid() {
		s.log.Warn("unknown language in stored settings, using default", sl.Op(op), slog.String("language", string(loaded.Language)))
		loaded.Language = models.LanguagePL
	}

	s.mu.Lock()
	s.settings = loaded
	s.mu.Unlock()
	return nil
}

// Get возвращает текущие настройки.
func (s *Store) Get() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// SetLanguage меняет язык интерфейса.
func (s *Store) SetLanguage(lang models.Language) error {
	const op = "settings.SetLanguage"
	if !lang.Valid() {
		return fmt.Errorf("%s: %q: %w", op, lang, models.ErrInvalidLanguage)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Language = lang
	s.save()
	return nil
}

// SetQuietHours меняет тихие часы. Пустые start или end оставляют текущее значение.
func (s *Store) SetQuietHours(enabled bool, start, end string) error {
	const op = "settings.SetQuietHours"
	for _, v := range []string{start, end} {
		if v != "" && !timeofday.Valid(v) {
			return fmt.Errorf("%s: %q: %w", op, v, models.ErrInvalidTime)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.QuietHoursEnabled = enabled
	if start != "" {
		s.settings.QuietHoursStart = start
	}
	if end != "" {
		s.settings.QuietHoursEnd = end
	}
	s.save()
	return nil
}

// SetOnboardingCompleted отмечает прохождение онбординга.
func (s *Store) SetOnboardingCompleted(done bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.OnboardingCompleted = done
	s.save()
}

// SetNotificationsEnabled запоминает, разрешены ли уведомления.
func (s *Store) SetNotificationsEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.NotificationsEnabled = enabled
	s.save()
}

// Apply применяет частичное обновление из API одним снимком.
func (s *Store) Apply(patch models.SettingsPatch) (models.Settings, error) {
	const op = "settings.Apply"

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.settings
	if patch.Language != nil {
		if !patch.Language.Valid() {
			return s.settings, fmt.Errorf("%s: %w", op, models.ErrInvalidLanguage)
		}
		next.Language = *patch.Language
	}
	for _, v := range []string{patch.QuietHoursStart, patch.QuietHoursEnd} {
		if v != "" && !timeofday.Valid(v) {
			return s.settings, fmt.Errorf("%s: %q: %w", op, v, models.ErrInvalidTime)
		}
	}
	if patch.QuietHoursEnabled != nil {
		next.QuietHoursEnabled = *patch.QuietHoursEnabled
	}
	if patch.QuietHoursStart != "" {
		next.QuietHoursStart = patch.QuietHoursStart
	}
	if patch.QuietHoursEnd != "" {
		next.QuietHoursEnd = patch.QuietHoursEnd
	}
	if patch.OnboardingCompleted != nil {
		next.OnboardingCompleted = *patch.OnboardingCompleted
	}
	if patch.NotificationsEnabled != nil {
		next.NotificationsEnabled = *patch.NotificationsEnabled
	}

	s.settings = next
	s.save()
	return next, nil
}

// Merge накладывает поля импортированного объекта настроек на текущие.
func (s *Store) Merge(raw json.RawMessage) error {
	const op = "settings.Merge"

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.settings
	if err := json.Unmarshal(raw, &next); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !next.Language.Valid() {
		return fmt.Errorf("%s: %w", op, models.ErrInvalidLanguage)
	}
	for _, v := range []string{next.QuietHoursStart, next.QuietHoursEnd} {
		if !timeofday.Valid(v) {
			return fmt.Errorf("%s: %q: %w", op, v, models.ErrInvalidTime)
		}
	}
	s.settings = next
	s.save()
	return nil
}

func (s *Store) save() {
	s.persist.Save(models.StateSettings, s.settings)
}
