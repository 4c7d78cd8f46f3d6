// Package migrations применяет миграции схемы из встроенной файловой системы.
package migrations

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgxv5 "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	schema "github.com/magabrotheeeer/lekomapa/migrations"
)

// Поддерживаемые драйверы хранилища.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Run применяет все миграции драйвера к db. Повторный запуск не считается ошибкой.
func Run(db *sql.DB, driver string) error {
	const op = "migrations.Run"

	var (
		instance database.Driver
		name     string
		err      error
	)
	switch driver {
	case DriverPostgres:
		name = "pgx_v5"
		instance, err = pgxv5.WithInstance(db, &pgxv5.Config{})
	case DriverSQLite:
		name = "sqlite"
		instance, err = sqlite.WithInstance(db, &sqlite.Config{})
	default:
		return fmt.Errorf("%s: unsupported driver %q", op, driver)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	src, err := iofs.New(schema.FS, driver)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	m, err := migrate.NewWithInstance("iofs", src, name, instance)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
