package db

import (
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// sqlitePragmas are applied to every pooled connection.
const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"

// NewSQLite opens (or creates) a SQLite database file.
func NewSQLite(path string) (*SQLDatabase, error) {
	return NewSQLiteWithConfig(DefaultConfig(DialectSQLite, path))
}

// NewSQLiteWithConfig opens a SQLite database.
// SQLite allows a single writer, so the pool is pinned to one connection.
func NewSQLiteWithConfig(config *Config) (*SQLDatabase, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	path := strings.TrimSpace(config.DSN)
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	config.applyDefaults()
	config.MaxOpenConnections = 1
	config.MaxIdleConnections = 1
	// an idle close would drop an in-memory database
	config.ConnMaxIdleTime = 0
	config.ConnMaxLifetime = 0

	return openPool("sqlite", DialectSQLite, sqliteDSN(path), config)
}

func sqliteDSN(path string) string {
	if path == ":memory:" {
		return "file::memory:?" + sqlitePragmas
	}
	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + sqlitePragmas
	}
	return "file:" + filepath.Clean(path) + "?" + sqlitePragmas
}
