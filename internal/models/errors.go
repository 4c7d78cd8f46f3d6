package models

import "errors"

// Общие ошибки для слоёв сервисов и HTTP-обработчиков.
var (
	// ErrNotFound — запрошенный блоб отсутствует в хранилище.
	ErrNotFound = errors.New("not found")

	// ErrMedicationNotFound — лекарство с таким id отсутствует.
	ErrMedicationNotFound = errors.New("medication not found")

	// ErrMedicationLimit — бесплатный тариф исчерпал лимит лекарств.
	ErrMedicationLimit = errors.New("medication limit reached")

	// ErrTrialAlreadyUsed — пробный период уже запускался на этой установке.
	ErrTrialAlreadyUsed = errors.New("trial already used")

	// ErrInvalidLanguage — язык не поддерживается.
	ErrInvalidLanguage = errors.New("invalid language")

	// ErrInvalidTime — строка не соответствует формату HH:MM.
	ErrInvalidTime = errors.New("invalid time of day")

	// ErrInvalidFormat — файл импорта имеет неверный формат.
	ErrInvalidFormat = errors.New("invalid import format")
)
