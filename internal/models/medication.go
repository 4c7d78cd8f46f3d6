// Package models содержит доменные структуры приложения: лекарства и их приём,
// состояние подписки, пользовательские настройки, напоминания и цены в аптеках.
// JSON-теги совпадают с форматом хранимых блобов и файла экспорта.
package models

import "time"

// Frequency — частота приёма. Значение носит справочный характер и
// используется только для подстановки времени приёма по умолчанию.
type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyTwice  Frequency = "twice"
	FrequencyWeekly Frequency = "weekly"
)

// MaxTimesPerMedication — максимальное количество времён приёма у одного лекарства.
const MaxTimesPerMedication = 6

// DefaultTimes возвращает список времён приёма, который подставляется при выборе частоты.
func (f Frequency) DefaultTimes() []string {
	switch f {
	case FrequencyTwice:
		return []string{"08:00", "20:00"}
	default:
		return []string{"08:00"}
	}
}

// Valid сообщает, входит ли частота в допустимый набор.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyTwice, FrequencyWeekly:
		return true
	}
	return false
}

// TakenLog — разреженная карта отметок приёма: дата (YYYY-MM-DD) -> время (HH:MM) -> принято.
// Отсутствие ключа означает "не принято". Записи никогда не удаляются.
type TakenLog map[string]map[string]bool

// Medication представляет собой лекарство с расписанием приёма.
type Medication struct {
	ID        string    `json:"id"`              // Непрозрачный уникальный идентификатор
	Name      string    `json:"name"`            // Название лекарства
	Dosage    string    `json:"dosage"`          // Дозировка, свободный текст
	Frequency Frequency `json:"frequency"`       // Частота приёма
	Times     []string  `json:"times"`           // Время приёма в формате HH:MM, от 1 до 6 значений
	Notes     string    `json:"notes,omitempty"` // Заметки (опционально)
	Taken     TakenLog  `json:"taken"`           // Отметки о приёме по дням
	CreatedAt time.Time `json:"createdAt"`       // Момент создания, не меняется
}

// IsTaken сообщает, отмечен ли приём на указанную дату и время.
func (m *Medication) IsTaken(date, at string) bool {
	return m.Taken[date][at]
}

// Clone возвращает глубокую копию лекарства, чтобы вызывающий код не мог
// изменить состояние хранилища через общие срезы и карты.
func (m Medication) Clone() Medication {
	out := m
	out.Times = append([]string(nil), m.Times...)
	out.Taken = make(TakenLog, len(m.Taken))
	for date, byTime := range m.Taken {
		inner := make(map[string]bool, len(byTime))
		for at, v := range byTime {
			inner[at] = v
		}
		out.Taken[date] = inner
	}
	return out
}

// MedicationData — данные нового лекарства без служебных полей (id, taken, createdAt).
type MedicationData struct {
	Name      string
	Dosage    string
	Frequency Frequency
	Times     []string
	Notes     string
}

// MedicationPatch — частичное обновление лекарства: nil означает "не менять".
type MedicationPatch struct {
	Name      *string    `json:"name,omitempty"`
	Dosage    *string    `json:"dosage,omitempty"`
	Frequency *Frequency `json:"frequency,omitempty"`
	Times     []string   `json:"times,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
}

// Apply применяет непустые поля патча к копии лекарства.
func (p MedicationPatch) Apply(m Medication) Medication {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Dosage != nil {
		m.Dosage = *p.Dosage
	}
	if p.Frequency != nil {
		m.Frequency = *p.Frequency
	}
	if p.Times != nil {
		m.Times = append([]string(nil), p.Times...)
	}
	if p.Notes != nil {
		m.Notes = *p.Notes
	}
	return m
}

// MedicationInput используется для приёма данных лекарства из JSON-запроса
// до валидации и сохранения.
type MedicationInput struct {
	Name      string    `json:"name" validate:"required"`
	Dosage    string    `json:"dosage" validate:"required"`
	Frequency Frequency `json:"frequency" validate:"required,oneof=daily twice weekly"`
	Times     []string  `json:"times" validate:"omitempty,max=6,dive,timeofday"`
	Notes     string    `json:"notes,omitempty"`
}

// Dose — один приём (лекарство, время) на конкретный день.
type Dose struct {
	Medication Medication `json:"medication"`
	Time       string     `json:"time"`
	IsTaken    bool       `json:"isTaken"`
}

// TakenMark — запрос на отметку приёма.
type TakenMark struct {
	Date  string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Time  string `json:"time" validate:"required,timeofday"`
	Taken bool   `json:"taken"`
}
