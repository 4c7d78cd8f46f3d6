// Package clock предоставляет источник текущего времени, который можно
// подменить в тестах.
package clock

import (
	"sync"
	"time"
)

// Clock возвращает текущий момент.
type Clock interface {
	Now() time.Time
}

// Real — системные часы в заданном часовом поясе.
type Real struct {
	Location *time.Location
}

// Now возвращает текущее системное время.
func (c Real) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// Manual — часы, которые двигаются только вручную.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual создаёт часы, показывающие t.
func NewManual(t time.Time) *Manual {
	return &Manual{now: t}
}

// Now возвращает установленный момент.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set устанавливает текущий момент.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

// Advance сдвигает часы на d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}
