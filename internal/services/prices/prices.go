// Package prices реализует сравнение цен лекарства в аптеках с
// ограничением списка для бесплатного тарифа.
package prices

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/magabrotheeeer/lekomapa/internal/lib/sl"
	"github.com/magabrotheeeer/lekomapa/internal/models"
)

// Repository — справочник цен.
type Repository interface {
	FindPrices(ctx context.Context, medication string) ([]models.PharmacyPrice, error)
	SearchMedications(ctx context.Context, query string) ([]string, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// Entitlement отвечает, доступен ли полный список цен.
type Entitlement interface {
	CanViewAllPrices() bool
}

// Service — сравнение цен.
type Service struct {
	repo      Repository
	cache     Cache
	ent       Entitlement
	freeCount int
	ttl       time.Duration
	log       *slog.Logger
}

// New создаёт Service. cache может быть nil, тогда кэш не используется.
func New(log *slog.Logger, repo Repository, cache Cache, ent Entitlement, freeCount int, ttl time.Duration) *Service {
	if freeCount <= 0 {
		freeCount = 3
	}
	return &Service{
		repo:      repo,
		cache:     cache,
		ent:       ent,
		freeCount: freeCount,
		ttl:       ttl,
		log:       log,
	}
}

// Search возвращает названия лекарств из справочника, содержащие query без учёта регистра.
func (s *Service) Search(ctx context.Context, query string) ([]string, error) {
	const op = "prices.Search"
	names, err := s.repo.SearchMedications(ctx, strings.TrimSpace(query))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return names, nil
}

// List возвращает цены по возрастанию. Бесплатный тариф видит только
// первые freeCount позиций.
func (s *Service) List(ctx context.Context, medication string) (models.PriceList, error) {
	const op = "prices.List"
	log := s.log.With(sl.Op(op), slog.String("medication", medication))

	all, err := s.load(ctx, log, strings.TrimSpace(medication))
	if err != nil {
		return models.PriceList{}, fmt.Errorf("%s: %w", op, err)
	}
	slices.SortStableFunc(all, func(a, b models.PharmacyPrice) int {
		return cmp.Compare(a.Price, b.Price)
	})

	list := models.PriceList{
		Medication: medication,
		Prices:     all,
		Total:      len(all),
	}
	if !s.ent.CanViewAllPrices() && len(all) > s.freeCount {
		list.Prices = all[:s.freeCount]
		list.Limited = true
	}
	return list, nil
}

func (s *Service) load(ctx context.Context, log *slog.Logger, medication string) ([]models.PharmacyPrice, error) {
	key := cacheKey(medication)
	if s.cache != nil {
		var cached []models.PharmacyPrice
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			log.Warn("failed to read prices from cache", sl.Err(err))
		}
		if found {
			log.Debug("prices served from cache")
			return cached, nil
		}
	}

	all, err := s.repo.FindPrices(ctx, medication)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, all, s.ttl); err != nil {
			log.Warn("failed to cache prices", slog.String("key", key), sl.Err(err))
		}
	}
	return all, nil
}

func cacheKey(medication string) string {
	return "prices:" + strings.ToLower(medication)
}
