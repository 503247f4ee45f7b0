package testutil

import (
	"path/filepath"
	"testing"

	"campusdesk/internal/common/cache"
	"campusdesk/internal/common/db"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// NewSQLite creates a migrated SQLite database in a per-test temp directory.
func NewSQLite(t *testing.T) *db.SQLDatabase {
	t.Helper()

	cfg := db.DefaultConfig(db.DialectSQLite, filepath.Join(t.TempDir(), "campusdesk.db"))
	if _, err := db.Migrate(cfg); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	database, err := db.NewSQLiteWithConfig(cfg)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

// NewRedis starts a miniredis server and returns a cache bound to it.
func NewRedis(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	c, err := cache.NewRedisCacheWithClient(client)
	if err != nil {
		t.Fatalf("redis cache: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, server
}
