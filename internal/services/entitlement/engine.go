// Package entitlement управляет пробным периодом, подпиской и ограничениями
// бесплатного тарифа.
package entitlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/lekomapa/internal/lib/clock"
	"github.com/magabrotheeeer/lekomapa/internal/lib/sl"
	"github.com/magabrotheeeer/lekomapa/internal/models"
)

// Persister принимает снимок состояния на запись.
type Persister interface {
	Save(key string, v any)
}

// Source читает сохранённый блоб.
type Source interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// Config — параметры тарифов.
type Config struct {
	FreeMedicationLimit int
	TrialPeriod         time.Duration
	AllowTrialRestart   bool
}

// Engine хранит состояние подписки и отвечает на вопросы о доступе к функциям.
type Engine struct {
	mu      sync.RWMutex
	state   models.Subscription
	cfg     Config
	clock   clock.Clock
	persist Persister
	log     *slog.Logger
}

// New создаёт Engine с состоянием бесплатного тарифа.
func New(log *slog.Logger, clk clock.Clock, persist Persister, cfg Config) *Engine {
	if cfg.FreeMedicationLimit <= 0 {
		cfg.FreeMedicationLimit = 5
	}
	if cfg.TrialPeriod <= 0 {
		cfg.TrialPeriod = 7 * 24 * time.Hour
	}
	return &Engine{
		cfg:     cfg,
		clock:   clk,
		persist: persist,
		log:     log,
	}
}

// Reconcile завершает истёкший пробный период. Функция чистая.
func Reconcile(state models.Subscription, now time.Time) models.Subscription {
	if state.IsTrialActive && (state.TrialEndDate == nil || now.After(*state.TrialEndDate)) {
		state.IsTrialActive = false
		state.IsPremium = false
	}
	return state
}

// Load восстанавливает состояние и сразу сверяет его с текущим временем.
func (e *Engine) Load(ctx context.Context, src Source) error {
	const op = "entitlement.Load"

	data, err := src.Get(ctx, models.StateSubscription)
	if errors.Is(err, models.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var state models.Subscription
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = state
	e.reconcile(op)
	return nil
}

// Foreground вызывается, когда приложение становится активным.
func (e *Engine) Foreground() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reconcile("entitlement.Foreground")
}

// StartTrial запускает пробный период от текущего момента.
func (e *Engine) StartTrial() error {
	const op = "entitlement.StartTrial"

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.TrialUsed() && !e.cfg.AllowTrialRestart {
		return fmt.Errorf("%s: %w", op, models.ErrTrialAlreadyUsed)
	}

	now := e.clock.Now().UTC()
	end := now.Add(e.cfg.TrialPeriod)
	e.state.TrialStartDate = &now
	e.state.TrialEndDate = &end
	e.state.IsTrialActive = true
	e.state.IsPremium = true
	e.save()

	e.log.Info("trial started", sl.Op(op), slog.Time("ends_at", end))
	return nil
}

// EndTrial завершает пробный период, даты сохраняются.
func (e *Engine) EndTrial() {
	const op = "entitlement.EndTrial"

	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.IsTrialActive = false
	e.state.IsPremium = false
	e.save()

	e.log.Info("trial ended", sl.Op(op))
}

// SetSubscription фиксирует оплаченную подписку до endDate.
func (e *Engine) SetSubscription(endDate time.Time) {
	const op = "entitlement.SetSubscription"

	end := endDate.UTC()
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.SubscriptionEndDate = &end
	e.state.IsPremium = true
	e.state.IsTrialActive = false
	e.save()

	e.log.Info("subscription set", sl.Op(op), slog.Time("ends_at", end))
}

// SetPremium напрямую выставляет флаг премиум-доступа.
func (e *Engine) SetPremium(premium bool) {
	const op = "entitlement.SetPremium"

	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.IsPremium = premium
	e.save()

	e.log.Info("premium flag set", sl.Op(op), slog.Bool("premium", premium))
}

// Merge накладывает поля импортированного объекта подписки на текущее
// состояние и сверяет результат с текущим временем.
func (e *Engine) Merge(raw json.RawMessage) error {
	const op = "entitlement.Merge"

	e.mu.Lock()
	defer e.mu.Unlock()

	next := copyState(e.state)
	if err := json.Unmarshal(raw, &next); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	e.state = Reconcile(next, e.clock.Now())
	e.save()
	return nil
}

// State возвращает копию состояния.
func (e *Engine) State() models.Subscription {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return copyState(e.state)
}

// IsPremium сообщает, открыты ли премиум-функции.
func (e *Engine) IsPremium() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.IsPremium
}

// CanAddMedication сообщает, можно ли добавить лекарство при текущем их числе.
func (e *Engine) CanAddMedication(count int) bool {
	return e.IsPremium() || count < e.cfg.FreeMedicationLimit
}

// CanViewAllPrices сообщает, доступен ли полный список цен.
func (e *Engine) CanViewAllPrices() bool {
	return e.IsPremium()
}

// Status собирает сведения о доступных функциях для клиентов API.
func (e *Engine) Status(count int) models.EntitlementStatus {
	state := e.State()
	left := -1
	if !state.IsPremium {
		left = max(e.cfg.FreeMedicationLimit-count, 0)
	}
	return models.EntitlementStatus{
		Subscription:        state,
		CanViewAllPrices:    state.IsPremium,
		CanAddMedication:    state.IsPremium || count < e.cfg.FreeMedicationLimit,
		FreeMedicationLimit: e.cfg.FreeMedicationLimit,
		MedicationsLeft:     left,
	}
}

// reconcile применяет Reconcile и сохраняет состояние, если оно изменилось.
// Вызывается под блокировкой.
func (e *Engine) reconcile(op string) {
	next := Reconcile(e.state, e.clock.Now())
	if next == e.state {
		return
	}
	e.state = next
	e.save()
	e.log.Info("trial expired", sl.Op(op))
}

func (e *Engine) save() {
	e.persist.Save(models.StateSubscription, e.state)
}

func copyState(s models.Subscription) models.Subscription {
	out := s
	out.TrialStartDate = copyTime(s.TrialStartDate)
	out.TrialEndDate = copyTime(s.TrialEndDate)
	out.SubscriptionEndDate = copyTime(s.SubscriptionEndDate)
	return out
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
