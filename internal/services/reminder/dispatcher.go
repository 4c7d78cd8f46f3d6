package reminder

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/lekomapa/internal/lib/clock"
	"github.com/magabrotheeeer/lekomapa/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/lekomapa/internal/lib/sl"
	"github.com/magabrotheeeer/lekomapa/internal/metrics"
	"github.com/magabrotheeeer/lekomapa/internal/models"
)

// DueLister возвращает срабатывания в интервале.
type DueLister interface {
	Due(from, to time.Time) []Occurrence
}

// MedicationNames даёт имя лекарства по id для текста письма.
type MedicationNames interface {
	Get(id string) (models.Medication, error)
}

// Dispatcher публикует наступившие напоминания в обменник уведомлений.
// Тихие часы не учитываются.
type Dispatcher struct {
	due      DueLister
	meds     MedicationNames
	ch       rabbitmq.Publisher
	clock    clock.Clock
	interval time.Duration
	log      *slog.Logger
}

// NewDispatcher создаёт Dispatcher.
func NewDispatcher(log *slog.Logger, clk clock.Clock, due DueLister, meds MedicationNames, ch rabbitmq.Publisher, interval time.Duration) *Dispatcher {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Dispatcher{
		due:      due,
		meds:     meds,
		ch:       ch,
		clock:    clk,
		interval: interval,
		log:      log,
	}
}

// Run проверяет напоминания каждые interval, пока не отменён ctx.
func (d *Dispatcher) Run(ctx context.Context) {
	const op = "reminder.Dispatcher.Run"
	d.log.Info("reminder dispatcher started", sl.Op(op), slog.Duration("interval", d.interval))

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	last := d.clock.Now()
	for {
		select {
		case <-ctx.Done():
			d.log.Info("reminder dispatcher stopped", sl.Op(op))
			return
		case <-ticker.C:
			now := d.clock.Now()
			d.Tick(last, now)
			last = now
		}
	}
}

// Tick публикует срабатывания в (from, to] и возвращает число опубликованных.
func (d *Dispatcher) Tick(from, to time.Time) int {
	const op = "reminder.Dispatcher.Tick"

	sent := 0
	for _, occ := range d.due.Due(from, to) {
		msg := models.ReminderMessage{
			Handle:         occ.Handle,
			MedicationID:   occ.Content.Data.MedicationID,
			MedicationName: d.medicationName(occ.Content.Data.MedicationID),
			Time:           occ.Content.Data.Time,
			Title:          occ.Content.Title,
			Body:           occ.Content.Body,
			Category:       occ.Content.Category,
			Type:           occ.Content.Data.Type,
			FiredAt:        occ.At,
		}
		err := rabbitmq.PublishMessage(d.ch, rabbitmq.ExchangeName, rabbitmq.ReminderRoutingKey, msg)
		metrics.RemindersDispatched.WithLabelValues(metrics.Result(err)).Inc()
		if err != nil {
			d.log.Error("failed to publish reminder", sl.Op(op), slog.String("handle", occ.Handle), sl.Err(err))
			continue
		}
		sent++
	}
	if sent > 0 {
		d.log.Info("reminders dispatched", sl.Op(op), slog.Int("count", sent))
	}
	return sent
}

func (d *Dispatcher) medicationName(id string) string {
	med, err := d.meds.Get(id)
	if err != nil {
		return ""
	}
	return med.Name
}
