// Package validation настраивает валидатор входных данных API.
package validation

import (
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/lekomapa/internal/lib/timeofday"
)

// TagTimeOfDay — правило проверки времени в формате HH:MM.
const TagTimeOfDay = "timeofday"

// New возвращает валидатор с зарегистрированными правилами приложения.
func New() *validator.Validate {
	v := validator.New()
	// Регистрация может упасть только при пустом теге или nil-функции.
	_ = v.RegisterValidation(TagTimeOfDay, func(fl validator.FieldLevel) bool {
		return timeofday.Valid(fl.Field().String())
	})
	return v
}
