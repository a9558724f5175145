package integration

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ozlabs/forge/internal/platform/logger"
	"github.com/ozlabs/forge/internal/storage/postgres"
)

var (
	testDB   *sql.DB
	testPort string
)

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %s", err)
	}

	pool.MaxWait = 60 * time.Second

	if err := pool.Client.Ping(); err != nil {
		log.Fatalf("Could not connect to Docker: %s", err)
	}

	pg, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "17-alpine",
		Env: []string{
			"POSTGRES_USER=testuser",
			"POSTGRES_PASSWORD=testpass",
			"POSTGRES_DB=forge_test",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("Could not start postgres container: %s", err)
	}

	testPort = pg.GetPort("5432/tcp")
	dsn := fmt.Sprintf(
		"host=localhost user=testuser password=testpass dbname=forge_test port=%s sslmode=disable TimeZone=UTC",
		testPort,
	)

	if err := pool.Retry(func() error {
		var err error
		testDB, err = sql.Open("postgres", dsn)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := testDB.PingContext(ctx); err != nil {
			testDB.Close()
			return err
		}

		if err := runMigrations(testDB); err != nil {
			testDB.Close()
			return err
		}
		return nil
	}); err != nil {
		log.Fatalf("Could not connect to postgres: %s", err)
	}

	os.Setenv("POSTGRES_USER", "testuser")
	os.Setenv("POSTGRES_PASSWORD", "testpass")
	os.Setenv("POSTGRES_DB", "forge_test")
	os.Setenv("POSTGRES_HOST", "localhost")
	os.Setenv("POSTGRES_PORT", testPort)
	os.Setenv("DB_MAX_RETRIES", "3")
	os.Setenv("DB_RETRY_DELAY", "100ms")

	code := m.Run()

	if testDB != nil {
		testDB.Close()
	}
	if err := pool.Purge(pg); err != nil {
		log.Fatalf("Could not purge postgres container: %s", err)
	}

	os.Exit(code)
}

func runMigrations(db *sql.DB) error {
	_, filename, _, _ := runtime.Caller(0)
	migrationsDir := filepath.Join(filepath.Dir(filename), "../..", "migrations")

	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		return fmt.Errorf("migrations directory does not exist: %s", migrationsDir)
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.Up(db, migrationsDir); err != nil {
		return fmt.Errorf("failed to run goose migrations: %w", err)
	}
	return nil
}

func connect(t *testing.T) *gorm.DB {
	t.Helper()

	cfg, err := postgres.LoadConfigFromEnv(context.Background())
	require.NoError(t, err)

	db, err := postgres.ConnectDB(cfg, logger.NewNop())
	require.NoError(t, err)
	return db
}

func TestConnectDB_EnvironmentConfig(t *testing.T) {
	db := connect(t)

	var result int
	require.NoError(t, db.Raw("SELECT 1").Scan(&result).Error)
	assert.Equal(t, 1, result)

	var dbName string
	require.NoError(t, db.Raw("SELECT current_database()").Scan(&dbName).Error)
	assert.Equal(t, "forge_test", dbName)
}

func TestMigrations_TablesExist(t *testing.T) {
	db := connect(t)

	for _, table := range []string{"jobs", "credit_ledger_entries"} {
		var exists bool
		err := db.Raw(
			"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = ?)",
			table,
		).Scan(&exists).Error
		require.NoError(t, err)
		assert.True(t, exists, "table %s should exist after migrations", table)
	}
}
