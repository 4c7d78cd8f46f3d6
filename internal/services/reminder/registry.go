package reminder

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/lekomapa/internal/lib/timeofday"
)

// ErrUnknownHandle — регистрации с таким идентификатором нет.
var ErrUnknownHandle = errors.New("unknown reminder handle")

// Registration — зарегистрированное напоминание.
type Registration struct {
	Handle  string
	Content Content
	Trigger Trigger
}

// Occurrence — срабатывание регистрации в конкретный момент.
type Occurrence struct {
	Registration
	At time.Time
}

// Registry хранит регистрации в памяти процесса.
type Registry struct {
	mu         sync.RWMutex
	regs       map[string]Registration
	categories map[string]Category
}

// NewRegistry создаёт пустой Registry.
func NewRegistry() *Registry {
	return &Registry{
		regs:       make(map[string]Registration),
		categories: make(map[string]Category),
	}
}

// Register сохраняет регистрацию и возвращает её идентификатор.
func (r *Registry) Register(ctx context.Context, content Content, trigger Trigger) (string, error) {
	const op = "reminder.Registry.Register"
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if !trigger.Repeats {
		return "", fmt.Errorf("%s: only repeating daily triggers are supported", op)
	}
	if trigger.Hour < 0 || trigger.Hour > 23 || trigger.Minute < 0 || trigger.Minute > 59 {
		return "", fmt.Errorf("%s: trigger %02d:%02d out of range", op, trigger.Hour, trigger.Minute)
	}

	handle := uuid.NewString()
	r.mu.Lock()
	r.regs[handle] = Registration{Handle: handle, Content: content, Trigger: trigger}
	r.mu.Unlock()
	return handle, nil
}

// Cancel удаляет регистрацию.
func (r *Registry) Cancel(_ context.Context, handle string) error {
	const op = "reminder.Registry.Cancel"
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.regs[handle]; !ok {
		return fmt.Errorf("%s: %s: %w", op, handle, ErrUnknownHandle)
	}
	delete(r.regs, handle)
	return nil
}

// SetCategory объявляет категорию уведомлений.
func (r *Registry) SetCategory(_ context.Context, category Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories[category.ID] = category
	return nil
}

// Category возвращает объявленную категорию.
func (r *Registry) Category(id string) (Category, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.categories[id]
	return c, ok
}

// Len возвращает число активных регистраций.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.regs)
}

// Due возвращает срабатывания в полуинтервале (from, to], упорядоченные по времени.
// Дни считаются в часовом поясе from.
func (r *Registry) Due(from, to time.Time) []Occurrence {
	if !to.After(from) {
		return nil
	}
	to = to.In(from.Location())

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Occurrence
	for day := timeofday.On(from, 0, 0); !day.After(to); day = day.AddDate(0, 0, 1) {
		for _, reg := range r.regs {
			at := timeofday.On(day, reg.Trigger.Hour, reg.Trigger.Minute)
			if at.After(from) && !at.After(to) {
				out = append(out, Occurrence{Registration: reg, At: at})
			}
		}
	}
	slices.SortFunc(out, func(a, b Occurrence) int {
		if c := a.At.Compare(b.At); c != 0 {
			return c
		}
		return cmp.Compare(a.Handle, b.Handle)
	})
	return out
}
