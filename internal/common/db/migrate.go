package db

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// migrationFS holds one directory of numbered migrations per dialect.
// MySQL files contain a single statement each because the DSN does not enable multiStatements.
//
//go:embed migrations
var migrationFS embed.FS

// Migrate applies all pending up migrations on a dedicated short-lived pool
// and returns the resulting schema version. Call it before Open.
func Migrate(cfg *Config) (uint, error) {
	if cfg == nil {
		return 0, fmt.Errorf("config cannot be nil")
	}
	if cfg.Driver == DialectSQLite && strings.Contains(cfg.DSN, ":memory:") {
		return 0, fmt.Errorf("in-memory sqlite databases cannot be migrated on a separate pool")
	}

	migrationCfg := *cfg
	migrationCfg.MaxOpenConnections = 2
	migrationCfg.MaxIdleConnections = 1
	conn, err := Open(&migrationCfg)
	if err != nil {
		return 0, err
	}

	src, err := iofs.New(migrationFS, "migrations/"+string(cfg.Driver))
	if err != nil {
		_ = conn.Close()
		return 0, fmt.Errorf("load %s migrations: %w", cfg.Driver, err)
	}

	driver, err := migrationDriver(conn)
	if err != nil {
		_ = src.Close()
		_ = conn.Close()
		return 0, fmt.Errorf("create %s migration driver: %w", cfg.Driver, err)
	}

	m, err := migrate.NewWithInstance("iofs", src, string(cfg.Driver), driver)
	if err != nil {
		_ = src.Close()
		_ = driver.Close()
		return 0, fmt.Errorf("init migration: %w", err)
	}
	// Closes the source, the driver and the pool behind it.
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, fmt.Errorf("read migration version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("schema version %d is dirty", version)
	}
	return version, nil
}

func migrationDriver(d Database) (database.Driver, error) {
	sqlDB := d.SQLDB()
	switch d.Dialect() {
	case DialectMySQL:
		return migratemysql.WithInstance(sqlDB, &migratemysql.Config{})
	case DialectPostgres:
		return migratepostgres.WithInstance(sqlDB, &migratepostgres.Config{})
	case DialectSQLite:
		return migratesqlite.WithInstance(sqlDB, &migratesqlite.Config{})
	default:
		return nil, fmt.Errorf("unsupported dialect %q", d.Dialect())
	}
}
