package migrations

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

func getSQLiteDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func getPostgresDB(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container skipped in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})
	return db
}

func TestRun_SQLite(t *testing.T) {
	db := getSQLiteDB(t)

	require.NoError(t, Run(db, DriverSQLite))

	var tables int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master
		WHERE type = 'table' AND name IN ('app_state', 'pharmacy_prices')`).Scan(&tables)
	require.NoError(t, err)
	require.Equal(t, 2, tables)

	var prices int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM pharmacy_prices`).Scan(&prices))
	require.Greater(t, prices, 0, "seed prices should be present")
}

func TestRun_Idempotent(t *testing.T) {
	db := getSQLiteDB(t)

	require.NoError(t, Run(db, DriverSQLite))
	require.NoError(t, Run(db, DriverSQLite))

	var prices int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM pharmacy_prices WHERE medication = 'Paracetamol'`).Scan(&prices))
	require.Equal(t, 4, prices, "seed should be applied once")
}

func TestRun_UnsupportedDriver(t *testing.T) {
	db := getSQLiteDB(t)
	require.Error(t, Run(db, "oracle"))
}

func TestRun_Postgres(t *testing.T) {
	db := getPostgresDB(t)

	require.NoError(t, Run(db, DriverPostgres))

	var exists bool
	err := db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = 'app_state'
		)
	`).Scan(&exists)
	require.NoError(t, err)
	require.True(t, exists, "Table 'app_state' should exist")

	err = db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM pg_indexes
			WHERE schemaname = 'public'
			AND tablename = 'pharmacy_prices'
			AND indexname = 'idx_pharmacy_prices_medication'
		)
	`).Scan(&exists)
	require.NoError(t, err)
	require.True(t, exists, "Index should exist")

	require.NoError(t, Run(db, DriverPostgres))
}
