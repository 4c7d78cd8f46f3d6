package models

import (
	"encoding/json"
	"time"
)

// ExportVersion — версия формата файла экспорта.
const ExportVersion = "1.0.0"

// Bundle — содержимое файла экспорта.
type Bundle struct {
	Medications  []Medication `json:"medications"`
	Settings     Settings     `json:"settings"`
	Subscription Subscription `json:"subscription"`
	ExportDate   time.Time    `json:"exportDate"`
	Version      string       `json:"version"`
}

// RawBundle используется при импорте: поля разбираются по отдельности,
// чтобы проверить их тип до применения.
type RawBundle struct {
	Medications  json.RawMessage `json:"medications"`
	Settings     json.RawMessage `json:"settings"`
	Subscription json.RawMessage `json:"subscription"`
}
