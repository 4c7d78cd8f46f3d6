// Package reminder превращает время приёма лекарства в ежедневные напоминания.
//
// Bridge отображает HH:MM в календарный триггер и регистрирует его через
// Notifier. Registry — реализация Notifier внутри процесса; Dispatcher
// периодически публикует наступившие напоминания в RabbitMQ.
package reminder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/lekomapa/internal/lib/sl"
	"github.com/magabrotheeeer/lekomapa/internal/lib/timeofday"
	"github.com/magabrotheeeer/lekomapa/internal/metrics"
	"github.com/magabrotheeeer/lekomapa/internal/models"
)

// Категория и действия уведомлений о приёме.
const (
	CategoryMedication = "medication"
	ActionTaken        = "taken"
	ActionSnooze       = "snooze"
)

const (
	reminderTitle = "Czas na lek! 💊"
	reminderBody  = "Nie zapomnij wziąć: %s"
)

// Trigger — ежедневный календарный триггер.
type Trigger struct {
	Hour    int  `json:"hour"`
	Minute  int  `json:"minute"`
	Repeats bool `json:"repeats"`
}

// Data — полезная нагрузка, по которой клиент узнаёт лекарство и время.
type Data struct {
	MedicationID string `json:"medicationId"`
	Time         string `json:"time"`
	Type         string `json:"type"`
}

// Content — содержимое уведомления.
type Content struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Category string `json:"category"`
	Data     Data   `json:"data"`
}

// Action — кнопка уведомления.
type Action struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Category — набор действий, доступных в уведомлении.
type Category struct {
	ID      string   `json:"id"`
	Actions []Action `json:"actions"`
}

// Notifier регистрирует и отменяет повторяющиеся уведомления.
type Notifier interface {
	Register(ctx context.Context, content Content, trigger Trigger) (string, error)
	Cancel(ctx context.Context, handle string) error
	SetCategory(ctx context.Context, category Category) error
}

// Bridge — вход в планировщик напоминаний. Ошибки Notifier не пробрасываются.
type Bridge struct {
	notifier Notifier
	log      *slog.Logger
}

// NewBridge создаёт Bridge.
func NewBridge(log *slog.Logger, notifier Notifier) *Bridge {
	return &Bridge{notifier: notifier, log: log}
}

// TriggerFor отображает время HH:MM в ежедневный триггер.
func TriggerFor(at string) (Trigger, error) {
	const op = "reminder.TriggerFor"
	hour, minute, err := timeofday.Parse(at)
	if err != nil {
		return Trigger{}, fmt.Errorf("%s: %w", op, err)
	}
	return Trigger{Hour: hour, Minute: minute, Repeats: true}, nil
}

// ContentFor собирает содержимое напоминания о лекарстве.
func ContentFor(medicationName, at, medicationID string) Content {
	return Content{
		Title:    reminderTitle,
		Body:     fmt.Sprintf(reminderBody, medicationName),
		Category: CategoryMedication,
		Data: Data{
			MedicationID: medicationID,
			Time:         at,
			Type:         models.ReminderType,
		},
	}
}

// Setup объявляет категорию уведомлений о приёме. Вызывается один раз при старте.
func (b *Bridge) Setup(ctx context.Context) {
	const op = "reminder.Setup"
	err := b.notifier.SetCategory(ctx, Category{
		ID: CategoryMedication,
		Actions: []Action{
			{ID: ActionTaken, Title: "Wzięte ✅"},
			{ID: ActionSnooze, Title: "Drzemka 10 min"},
		},
	})
	if err != nil {
		b.log.Error("failed to set notification category", sl.Op(op), sl.Err(err))
	}
}

// Schedule регистрирует ежедневное напоминание. При неудаче возвращает ok=false.
func (b *Bridge) Schedule(ctx context.Context, medicationName, at, medicationID string) (string, bool) {
	const op = "reminder.Schedule"
	log := b.log.With(sl.Op(op), slog.String("medication_id", medicationID), slog.String("time", at))

	trigger, err := TriggerFor(at)
	if err != nil {
		log.Error("invalid reminder time", sl.Err(err))
		metrics.RemindersScheduled.WithLabelValues(metrics.Result(err)).Inc()
		return "", false
	}

	handle, err := b.notifier.Register(ctx, ContentFor(medicationName, at, medicationID), trigger)
	metrics.RemindersScheduled.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		log.Error("failed to schedule reminder", sl.Err(err))
		return "", false
	}

	log.Debug("reminder scheduled", slog.String("handle", handle))
	return handle, true
}

// Cancel отменяет регистрацию. Ошибки только логируются.
func (b *Bridge) Cancel(ctx context.Context, handle string) {
	const op = "reminder.Cancel"
	if err := b.notifier.Cancel(ctx, handle); err != nil {
		b.log.Warn("failed to cancel reminder", sl.Op(op), slog.String("handle", handle), sl.Err(err))
	}
}
