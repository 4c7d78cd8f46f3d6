// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON-ответов HTTP-обработчиков.
package response

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator"
)

// Response описывает стандартную структуру JSON-ответа сервера.
// Поле Status — статус запроса ("OK" или "Error").
// Поле Error — текст ошибки (опционально, при неуспехе).
// Поле Data — данные ответа (опционально, при успехе).
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

const (
	// StatusOK — значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError — значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// OKWithData возвращает успешный Response с переданными данными.
func OKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает Response с ошибкой и переданным сообщением.
func Error(msg string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
	}
}

// ValidationError формирует Response на основе ошибок валидации.
// Каждое нарушение превращается в человекочитаемый текст, тексты объединяются через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	msgs := make([]string, 0, len(errs))

	for _, err := range errs {
		field := err.Field()
		switch err.ActualTag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("field %s is a required field", field))
		case "timeofday":
			msgs = append(msgs, fmt.Sprintf("field %s must be a time in format HH:MM", field))
		case "datetime":
			msgs = append(msgs, fmt.Sprintf("field %s must be a date in format %s", field, err.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("field %s must be one of [%s]", field, err.Param()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("field %s must contain at least %s items", field, err.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("field %s must contain at most %s items", field, err.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("field %s is not valid", field))
		}
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(msgs, ", "),
	}
}

// AsValidationErrors извлекает ошибки валидатора из цепочки err.
func AsValidationErrors(err error) (validator.ValidationErrors, bool) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return verrs, true
	}
	return nil, false
}
