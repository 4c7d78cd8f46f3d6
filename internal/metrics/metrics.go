// Package metrics объявляет счётчики Prometheus сервиса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lekomapa"

var (
	// PersistFailures считает неудачные чтения и записи блобов состояния.
	PersistFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "State blob reads and writes that failed.",
		},
		[]string{"key"},
	)

	// DosesMarked считает отметки приёма доз.
	DosesMarked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "doses_marked_total",
			Help:      "Dose taken/untaken marks.",
		},
		[]string{"taken"},
	)

	// RemindersScheduled считает регистрации напоминаний по результату.
	RemindersScheduled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reminders",
			Name:      "scheduled_total",
			Help:      "Reminder registrations by outcome.",
		},
		[]string{"result"},
	)

	// RemindersDispatched считает опубликованные наступившие напоминания.
	RemindersDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reminders",
			Name:      "dispatched_total",
			Help:      "Due reminders handed to the broker by outcome.",
		},
		[]string{"result"},
	)
)

// Result возвращает метку исхода операции.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
