package models

import "time"

// ReminderType — тип полезной нагрузки напоминания о приёме.
const ReminderType = "medication_reminder"

// ReminderMessage — сообщение о наступившем напоминании, публикуемое в RabbitMQ
// и потребляемое сервисом отправки.
type ReminderMessage struct {
	Handle         string    `json:"handle"`
	MedicationID   string    `json:"medicationId"`
	MedicationName string    `json:"medicationName"`
	Time           string    `json:"time"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	Category       string    `json:"category"`
	Type           string    `json:"type"`
	FiredAt        time.Time `json:"firedAt"`
}
