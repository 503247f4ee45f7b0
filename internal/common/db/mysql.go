package db

import (
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// NewMySQL creates a MySQL pool with the default configuration.
// DSN format: "user:password@tcp(host:port)/dbname"
func NewMySQL(dsn string) (*SQLDatabase, error) {
	return NewMySQLWithConfig(DefaultConfig(DialectMySQL, dsn))
}

// NewMySQLWithConfig creates a MySQL pool. The DSN must name a database.
func NewMySQLWithConfig(config *Config) (*SQLDatabase, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if config.DSN == "" {
		return nil, fmt.Errorf("DSN cannot be empty")
	}
	config.applyDefaults()

	parsed, err := mysql.ParseDSN(config.DSN)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql dsn: %w", err)
	}
	if parsed.DBName == "" {
		return nil, fmt.Errorf("mysql dsn must name a database")
	}
	parsed.ParseTime = true
	parsed.Loc = time.UTC

	return openPool("mysql", DialectMySQL, parsed.FormatDSN(), config)
}
