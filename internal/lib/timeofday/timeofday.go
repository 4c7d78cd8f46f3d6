// Package timeofday содержит функции для работы со временем приёма в формате HH:MM
// и ключами дат YYYY-MM-DD, которыми индексируются отметки о приёме.
package timeofday

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/magabrotheeeer/lekomapa/internal/models"
)

// DateLayout — формат ключа даты в карте отметок о приёме.
const DateLayout = "2006-01-02"

var pattern = regexp.MustCompile(`^[0-2][0-9]:[0-5][0-9]$`)

// Valid сообщает, является ли строка корректным временем HH:MM в 24-часовом формате.
func Valid(s string) bool {
	_, _, err := Parse(s)
	return err == nil
}

// Parse разбирает строку HH:MM на часы и минуты.
func Parse(s string) (hour, minute int, err error) {
	const op = "timeofday.Parse"
	if !pattern.MatchString(s) {
		return 0, 0, fmt.Errorf("%s: %q: %w", op, s, models.ErrInvalidTime)
	}
	hour, _ = strconv.Atoi(s[:2])
	minute, _ = strconv.Atoi(s[3:])
	if hour > 23 {
		return 0, 0, fmt.Errorf("%s: %q: %w", op, s, models.ErrInvalidTime)
	}
	return hour, minute, nil
}

// DateKey возвращает ключ даты YYYY-MM-DD для момента t в его часовом поясе.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ValidDate сообщает, является ли строка корректным ключом даты.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// On возвращает момент hour:minute в календарный день t (в часовом поясе t).
func On(t time.Time, hour, minute int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, t.Location())
}
