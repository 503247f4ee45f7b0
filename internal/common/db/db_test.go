package db_test

import (
	"context"
	"errors"
	"testing"

	"campusdesk/internal/common/db"
	"campusdesk/internal/testutil"
)

func TestRebind(t *testing.T) {
	tests := []struct {
		name    string
		dialect db.Dialect
		query   string
		want    string
	}{
		{"mysql untouched", db.DialectMySQL, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = ? AND b = ?"},
		{"sqlite untouched", db.DialectSQLite, "UPDATE t SET a = ?", "UPDATE t SET a = ?"},
		{"postgres numbered", db.DialectPostgres, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = $1 AND b = $2"},
		{"postgres skips literals", db.DialectPostgres, "SELECT '?' , x FROM t WHERE a = ?", "SELECT '?' , x FROM t WHERE a = $1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertEqual(t, db.Rebind(tt.dialect, tt.query), tt.want)
		})
	}
}

func TestExtractDuplicateKeyName(t *testing.T) {
	got := db.ExtractDuplicateKeyName("Duplicate entry 'S1' for key 'users.uk_users_sid'")
	testutil.AssertEqual(t, got, "users.uk_users_sid")
	testutil.AssertEqual(t, db.ExtractDuplicateKeyName("no marker"), "")
}

func insertUser(ctx context.Context, q db.Querier, id, sid string) error {
	_, err := q.Exec(ctx,
		"INSERT INTO users (id, sid, name, password_hash, role, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		id, sid, "name", "hash", "STUDENT", 1, 1)
	return err
}

func TestSQLite_MigrationsAndUniqueViolation(t *testing.T) {
	database := testutil.NewSQLite(t)
	ctx := context.Background()

	testutil.AssertEqual(t, database.Dialect(), db.DialectSQLite)
	testutil.AssertNoError(t, insertUser(ctx, database, "u1", "S1"))

	err := insertUser(ctx, database, "u2", "S1")
	key, ok := db.UniqueViolation(err)
	if !ok {
		t.Fatalf("expected unique violation, got %v", err)
	}
	testutil.AssertEqual(t, key, "users.sid")

	_, ok = db.UniqueViolation(errors.New("other"))
	testutil.AssertFalse(t, ok, "plain errors are not unique violations")
}

func TestTransaction_RollbackOnError(t *testing.T) {
	database := testutil.NewSQLite(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := database.Transaction(ctx, func(tx db.Transaction) error {
		if err := insertUser(ctx, tx, "u1", "S1"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	var n int
	testutil.AssertNoError(t, database.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&n))
	testutil.AssertEqual(t, n, 0)

	err = database.Transaction(ctx, func(tx db.Transaction) error {
		return insertUser(ctx, db.GetQuerier(database, tx), "u1", "S1")
	})
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, database.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&n))
	testutil.AssertEqual(t, n, 1)
}

func TestQueryRow_NoRows(t *testing.T) {
	database := testutil.NewSQLite(t)

	var id string
	err := database.QueryRow(context.Background(), "SELECT id FROM users WHERE sid = ?", "nobody").Scan(&id)
	testutil.AssertTrue(t, db.IsNoRows(err), "expected sql.ErrNoRows to survive wrapping")
}

func TestProvider(t *testing.T) {
	database := testutil.NewSQLite(t)

	_, err := db.CurrentDatabase(nil)
	if err == nil {
		t.Fatal("nil provider should fail")
	}

	manager := db.NewManager(database)
	q, err := db.GetProviderQuerier(manager, nil)
	testutil.AssertNoError(t, err)
	testutil.AssertTrue(t, q == db.Querier(database), "querier should be the current database")

	prev := manager.Swap(nil)
	testutil.AssertTrue(t, prev == db.Database(database), "swap should return the previous database")
	_, err = db.GetProviderQuerier(manager, nil)
	if err == nil {
		t.Fatal("expected error for nil database")
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := db.Open(&db.Config{Driver: "oracle", DSN: "x"}); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
	if _, err := db.Migrate(&db.Config{Driver: db.DialectSQLite, DSN: ":memory:"}); err == nil {
		t.Fatal("in-memory migrations should be refused")
	}
}
