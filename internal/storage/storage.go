// Package storage реализует хранилище состояния приложения на SQL-базе:
// блобы лекарств, настроек и подписки, а также справочник цен в аптеках.
// Поддерживаются PostgreSQL (pgx) и SQLite (modernc).
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
	// Регистрация драйвера sqlite без cgo.
	_ "modernc.org/sqlite"

	"github.com/magabrotheeeer/lekomapa/internal/migrations"
	"github.com/magabrotheeeer/lekomapa/internal/models"
)

// Storage инкапсулирует соединение с базой данных.
type Storage struct {
	DB     *sql.DB
	driver string
}

// New открывает соединение с базой выбранного драйвера и проверяет его.
func New(driver, connectionString string) (*Storage, error) {
	const op = "storage.New"

	var (
		name = driver
		dsn  = connectionString
	)
	switch driver {
	case migrations.DriverPostgres:
		name = "pgx"
	case migrations.DriverSQLite:
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", connectionString)
	default:
		return nil, fmt.Errorf("%s: unsupported driver %q", op, driver)
	}

	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if driver == migrations.DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	if err = db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{DB: db, driver: driver}, nil
}

// Migrate применяет миграции схемы.
func (s *Storage) Migrate() error {
	return migrations.Run(s.DB, s.driver)
}

// Close закрывает соединение.
func (s *Storage) Close() error {
	return s.DB.Close()
}

// CheckDatabaseReady проверяет готовность базы данных.
func CheckDatabaseReady(storage *Storage) error {
	var n int
	err := storage.DB.QueryRow(`SELECT COUNT(*) FROM app_state`).Scan(&n)
	if err != nil {
		return fmt.Errorf("required table app_state missing or query error: %w", err)
	}
	return nil
}

// rebind переводит плейсхолдеры "?" в "$n" для PostgreSQL.
func (s *Storage) rebind(query string) string {
	if s.driver != migrations.DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ===== APP STATE =====

// Get возвращает сохранённый блоб по ключу или models.ErrNotFound.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "storage.Get"

	var value string
	err := s.DB.QueryRowContext(ctx, s.rebind(`SELECT value FROM app_state WHERE key = ?`), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return []byte(value), nil
}

// Put сохраняет блоб целиком, заменяя предыдущее значение.
func (s *Storage) Put(ctx context.Context, key string, value []byte) error {
	const op = "storage.Put"

	query := `INSERT INTO app_state (key, value, updated_at) VALUES (?, ?, ?)
			  ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	_, err := s.DB.ExecContext(ctx, s.rebind(query), key, string(value), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ===== PHARMACY PRICES =====

// FindPrices возвращает цены лекарства во всех аптеках по возрастанию цены.
func (s *Storage) FindPrices(ctx context.Context, medication string) ([]models.PharmacyPrice, error) {
	const op = "storage.FindPrices"

	query := `SELECT id, pharmacy, price, distance, address, phone
			  FROM pharmacy_prices
			  WHERE LOWER(medication) = LOWER(?)
			  ORDER BY price, id`
	rows, err := s.DB.QueryContext(ctx, s.rebind(query), medication)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := []models.PharmacyPrice{}
	for rows.Next() {
		var (
			item models.PharmacyPrice
			id   int64
		)
		if err := rows.Scan(&id, &item.Name, &item.Price, &item.Distance, &item.Address, &item.Phone); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		item.ID = strconv.FormatInt(id, 10)
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// SearchMedications возвращает названия лекарств из справочника, содержащие query.
func (s *Storage) SearchMedications(ctx context.Context, query string) ([]string, error) {
	const op = "storage.SearchMedications"

	q := `SELECT DISTINCT medication FROM pharmacy_prices
		  WHERE LOWER(medication) LIKE ?
		  ORDER BY medication`
	rows, err := s.DB.QueryContext(ctx, s.rebind(q), "%"+strings.ToLower(query)+"%")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
