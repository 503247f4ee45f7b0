package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"campusdesk/internal/common/db"
	"campusdesk/internal/testutil"
	"campusdesk/internal/user/model"
	"campusdesk/internal/user/repository"
)

func newRepo(t *testing.T, withCache bool) (*repository.SQLUserRepository, db.Database) {
	t.Helper()
	database := testutil.NewSQLite(t)
	provider := db.NewStaticProvider(database)
	if !withCache {
		return repository.NewUserRepository(provider, nil), database
	}
	c, _ := testutil.NewRedis(t)
	return repository.NewUserRepository(provider, c), database
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	for _, withCache := range []bool{false, true} {
		repo, _ := newRepo(t, withCache)
		ctx := context.Background()

		user := &model.User{SID: "S1001", Name: "Asha", PasswordHash: "$2a$10$hash", Role: model.RoleStudent}
		testutil.AssertNoError(t, repo.Create(ctx, nil, user))
		testutil.AssertTrue(t, user.ID != "", "id should be generated")

		bySid, err := repo.GetBySid(ctx, "S1001")
		testutil.AssertNoError(t, err)
		testutil.AssertEqual(t, bySid.ID, user.ID)
		testutil.AssertEqual(t, bySid.Name, "Asha")
		testutil.AssertEqual(t, bySid.Role, model.RoleStudent)
		testutil.AssertEqual(t, bySid.PasswordHash, "")

		// second read is served from the cache when one is configured
		byID, err := repo.GetByID(ctx, user.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertEqual(t, byID.SID, "S1001")
		byID, err = repo.GetByID(ctx, user.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertEqual(t, byID.SID, "S1001")
		testutil.AssertTrue(t, byID.CreatedAt.Equal(user.CreatedAt.Truncate(time.Microsecond)), "created_at round trip")

		creds, err := repo.GetCredentialsBySid(ctx, nil, "S1001")
		testutil.AssertNoError(t, err)
		testutil.AssertEqual(t, creds.PasswordHash, "$2a$10$hash")
	}
}

func TestUserRepository_DuplicateSid(t *testing.T) {
	repo, _ := newRepo(t, false)
	ctx := context.Background()

	testutil.AssertNoError(t, repo.Create(ctx, nil, &model.User{SID: "S1", Name: "A", PasswordHash: "h"}))
	err := repo.Create(ctx, nil, &model.User{SID: "S1", Name: "B", PasswordHash: "h"})
	if !errors.Is(err, repository.ErrDuplicateSid) {
		t.Fatalf("expected ErrDuplicateSid, got %v", err)
	}
}

func TestUserRepository_NotFoundIsCached(t *testing.T) {
	repo, _ := newRepo(t, true)
	ctx := context.Background()

	_, err := repo.GetBySid(ctx, "ghost")
	if !errors.Is(err, repository.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	// creating the user must discard the cached miss
	testutil.AssertNoError(t, repo.Create(ctx, nil, &model.User{SID: "ghost", Name: "G", PasswordHash: "h"}))
	user, err := repo.GetBySid(ctx, "ghost")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, user.Name, "G")

	exists, err := repo.ExistsBySid(ctx, nil, "ghost")
	testutil.AssertNoError(t, err)
	testutil.AssertTrue(t, exists, "ghost should exist")
	exists, err = repo.ExistsBySid(ctx, nil, "nobody")
	testutil.AssertNoError(t, err)
	testutil.AssertFalse(t, exists, "nobody should not exist")
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	repo, _ := newRepo(t, true)
	ctx := context.Background()

	user := &model.User{SID: "S2", Name: "B", PasswordHash: "old"}
	testutil.AssertNoError(t, repo.Create(ctx, nil, user))
	_, err := repo.GetBySid(ctx, "S2")
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, repo.UpdatePassword(ctx, nil, user.ID, "new"))
	creds, err := repo.GetCredentialsBySid(ctx, nil, "S2")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, creds.PasswordHash, "new")

	err = repo.UpdatePassword(ctx, nil, "missing", "x")
	if !errors.Is(err, repository.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserRepository_ProblemLinksKeepOrder(t *testing.T) {
	repo, database := newRepo(t, false)
	ctx := context.Background()

	user := &model.User{SID: "S3", Name: "C", PasswordHash: "h"}
	testutil.AssertNoError(t, repo.Create(ctx, nil, user))

	base := time.Now().UTC()
	ids := []string{"p-b", "p-a", "p-c", "p-e", "p-d"}
	for i, id := range ids {
		// link times tie or step backwards; link order still wins
		at := base.Add(-time.Duration(i/2) * time.Second)
		_, err := database.Exec(ctx,
			"INSERT INTO problems (id, title, description, tags, status, created_by, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			id, "t", "d", "[]", "PENDING", user.ID, base.UnixMicro(), base.UnixMicro())
		testutil.AssertNoError(t, err)
		testutil.AssertNoError(t, repo.AppendProblem(ctx, nil, user.ID, id, at))
	}

	got, err := repo.ListProblemIDs(ctx, user.ID)
	testutil.AssertNoError(t, err)
	testutil.AssertDeepEqual(t, got, ids)

	err = repo.AppendProblem(ctx, nil, user.ID, "p-a", base)
	if !errors.Is(err, repository.ErrAlreadyLinked) {
		t.Fatalf("expected ErrAlreadyLinked, got %v", err)
	}

	empty, err := repo.ListProblemIDs(ctx, "nobody")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(empty), 0)
}

func TestUserRepository_GetActiveBySidSkipsDeletedRow(t *testing.T) {
	repo, database := newRepo(t, true)
	ctx := context.Background()

	user := &model.User{SID: "S5", Name: "E", PasswordHash: "h"}
	testutil.AssertNoError(t, repo.Create(ctx, nil, user))
	cached, err := repo.GetActiveBySid(ctx, "S5")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, cached.ID, user.ID)

	_, err = database.Exec(ctx, "DELETE FROM users WHERE sid = ?", "S5")
	testutil.AssertNoError(t, err)

	// the plain lookup still serves the cached profile
	_, err = repo.GetBySid(ctx, "S5")
	testutil.AssertNoError(t, err)
	_, err = repo.GetActiveBySid(ctx, "S5")
	if !errors.Is(err, repository.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	again := &model.User{SID: "S5", Name: "E2", PasswordHash: "h"}
	now := time.Now().UnixMicro()
	_, err = database.Exec(ctx,
		"INSERT INTO users (id, sid, name, password_hash, role, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		"u-again", again.SID, again.Name, again.PasswordHash, "STUDENT", now, now)
	testutil.AssertNoError(t, err)
	fresh, err := repo.GetActiveBySid(ctx, "S5")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, fresh.ID, "u-again")
	testutil.AssertEqual(t, fresh.PasswordHash, "")
}

func TestUserRepository_CreateInsideRolledBackTransaction(t *testing.T) {
	repo, database := newRepo(t, false)
	ctx := context.Background()

	sentinel := errors.New("abort")
	err := database.Transaction(ctx, func(tx db.Transaction) error {
		if err := repo.Create(ctx, tx, &model.User{SID: "S4", Name: "D", PasswordHash: "h"}); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel, got %v", err)
	}
	exists, err := repo.ExistsBySid(ctx, nil, "S4")
	testutil.AssertNoError(t, err)
	testutil.AssertFalse(t, exists, "rolled back user must not exist")
}
