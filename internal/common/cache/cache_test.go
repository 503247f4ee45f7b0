package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"campusdesk/internal/common/cache"
	"campusdesk/internal/testutil"
)

func TestGetWithCached_HitMissAndNull(t *testing.T) {
	c, server := testutil.NewRedis(t)
	ctx := context.Background()

	calls := 0
	load := func(value string) func(context.Context) (string, error) {
		return func(context.Context) (string, error) {
			calls++
			return value, nil
		}
	}
	get := func(key, value string) (string, error) {
		return cache.GetWithCached[string](ctx, c, key, time.Minute, 10*time.Second,
			func(s string) bool { return s == "" },
			func(s string) string { return s },
			func(s string) (string, error) { return s, nil },
			load(value))
	}

	got, err := get("k1", "v1")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, got, "v1")
	got, err = get("k1", "ignored")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, got, "v1")
	testutil.AssertEqual(t, calls, 1)

	got, err = get("missing", "")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, got, "")
	stored, _ := server.Get("missing")
	testutil.AssertEqual(t, stored, cache.NullCacheValue)

	_, _ = get("missing", "late")
	testutil.AssertEqual(t, calls, 2)
}

func TestGetWithCached_PropagatesLoaderError(t *testing.T) {
	c, _ := testutil.NewRedis(t)
	boom := errors.New("boom")

	_, err := cache.GetWithCached[string](context.Background(), c, "k", time.Minute, time.Second,
		func(s string) bool { return s == "" },
		func(s string) string { return s },
		func(s string) (string, error) { return s, nil },
		func(context.Context) (string, error) { return "", boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}
}

func TestUpdateCached_InvalidatesKeys(t *testing.T) {
	c, server := testutil.NewRedis(t)
	ctx := context.Background()
	_ = server.Set("a", "1")
	_ = server.Set("b", "2")

	err := cache.UpdateCached(ctx, c, func(context.Context) error { return nil }, "a", "b")
	testutil.AssertNoError(t, err)
	testutil.AssertFalse(t, server.Exists("a") || server.Exists("b"), "keys should be deleted")

	_ = server.Set("a", "1")
	err = cache.UpdateCached(ctx, c, func(context.Context) error { return errors.New("fail") }, "a")
	if err == nil {
		t.Fatal("expected error")
	}
	testutil.AssertTrue(t, server.Exists("a"), "key must survive a failed update")
}

func TestRedisCache_IncrAndTTL(t *testing.T) {
	c, server := testutil.NewRedis(t)
	ctx := context.Background()

	n, err := c.Incr(ctx, "counter")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, n, int64(1))
	testutil.AssertNoError(t, c.Expire(ctx, "counter", time.Minute))

	ttl, err := c.TTL(ctx, "counter")
	testutil.AssertNoError(t, err)
	testutil.AssertTrue(t, ttl > 0 && ttl <= time.Minute, "ttl should be set")

	server.FastForward(2 * time.Minute)
	v, err := c.Get(ctx, "counter")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, v, "")
}

func TestJitterTTL(t *testing.T) {
	base := 100 * time.Second
	for i := 0; i < 50; i++ {
		got := cache.JitterTTL(base)
		if got > base || got < 90*time.Second {
			t.Fatalf("jitter out of range: %v", got)
		}
	}
	testutil.AssertEqual(t, cache.JitterTTL(0), time.Duration(0))
}
