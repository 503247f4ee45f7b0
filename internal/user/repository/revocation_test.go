package repository_test

import (
	"context"
	"testing"
	"time"

	"campusdesk/internal/common/cache"
	"campusdesk/internal/testutil"
	"campusdesk/internal/user/repository"
)

func TestRevocation_DisabledWithoutCache(t *testing.T) {
	repo := repository.NewRevocationRepository(nil, nil, 0, 0)
	ctx := context.Background()

	testutil.AssertFalse(t, repo.Enabled(), "no cache means disabled")
	testutil.AssertNoError(t, repo.Revoke(ctx, "jti", time.Hour))
	revoked, err := repo.IsRevoked(ctx, "jti", "S1", time.Now())
	testutil.AssertNoError(t, err)
	testutil.AssertFalse(t, revoked, "disabled repository revokes nothing")
}

func TestRevocation_RevokeJTI(t *testing.T) {
	c, server := testutil.NewRedis(t)
	local := cache.NewLRU[bool](16, time.Minute)
	repo := repository.NewRevocationRepository(c, local, time.Second, time.Minute)
	ctx := context.Background()

	revoked, err := repo.IsRevoked(ctx, "a", "S1", time.Now())
	testutil.AssertNoError(t, err)
	testutil.AssertFalse(t, revoked, "fresh token")

	testutil.AssertNoError(t, repo.Revoke(ctx, "a", time.Hour))
	testutil.AssertTrue(t, server.Exists("auth:revoked:a"), "redis key written")

	revoked, err = repo.IsRevoked(ctx, "a", "S1", time.Now())
	testutil.AssertNoError(t, err)
	testutil.AssertTrue(t, revoked, "revoked token")

	// the local LRU keeps answering when redis lost the key
	server.Del("auth:revoked:a")
	revoked, err = repo.IsRevoked(ctx, "a", "S1", time.Now())
	testutil.AssertNoError(t, err)
	testutil.AssertTrue(t, revoked, "served from local cache")
}

func TestRevocation_CutoffBySid(t *testing.T) {
	c, _ := testutil.NewRedis(t)
	repo := repository.NewRevocationRepository(c, nil, time.Second, time.Minute)
	ctx := context.Background()

	cutoff := time.Now()
	testutil.AssertNoError(t, repo.RevokeAllBefore(ctx, "S1", cutoff, time.Hour))

	revoked, err := repo.IsRevoked(ctx, "old", "S1", cutoff.Add(-time.Minute))
	testutil.AssertNoError(t, err)
	testutil.AssertTrue(t, revoked, "token issued before cutoff")

	revoked, err = repo.IsRevoked(ctx, "new", "S1", cutoff.Add(time.Minute))
	testutil.AssertNoError(t, err)
	testutil.AssertFalse(t, revoked, "token issued after cutoff")

	revoked, err = repo.IsRevoked(ctx, "other", "S2", cutoff.Add(-time.Minute))
	testutil.AssertNoError(t, err)
	testutil.AssertFalse(t, revoked, "cutoff is per sid")
}
