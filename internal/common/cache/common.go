package cache

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"
)

// NullCacheValue marks a cached miss so absent records do not hit the database on every lookup.
const NullCacheValue = "$NULL$"

// GetWithCached implements cache-aside with null value caching.
//
// On a hit the cached value is unmarshalled and returned. On a miss fn is
// called; a result for which isEmpty reports true is stored as NullCacheValue
// with emptyTTL, anything else is marshalled and stored with ttl. Cache
// failures degrade to calling fn.
//
// Example:
//
//	user, err := GetWithCached(ctx, c, "user:sid:S1", time.Hour, 5*time.Minute,
//		func(u *User) bool { return u == nil },
//		marshalUser,
//		unmarshalUser,
//		func(ctx context.Context) (*User, error) { return repo.load(ctx, "S1") })
func GetWithCached[T any](
	ctx context.Context,
	cache Cache,
	key string,
	ttl time.Duration,
	emptyTTL time.Duration,
	isEmpty func(T) bool,
	marshal func(T) string,
	unmarshal func(string) (T, error),
	fn func(context.Context) (T, error),
) (T, error) {
	var zero T

	if cached, err := cache.Get(ctx, key); err == nil && cached != "" {
		if cached == NullCacheValue {
			return zero, nil
		}
		if result, err := unmarshal(cached); err == nil {
			return result, nil
		}
	}

	data, err := fn(ctx)
	if err != nil {
		return zero, err
	}

	if isEmpty(data) {
		_ = cache.Set(ctx, key, NullCacheValue, emptyTTL)
		return zero, nil
	}

	if payload := marshal(data); payload != "" {
		_ = cache.Set(ctx, key, payload, ttl)
	}
	return data, nil
}

// UpdateCached runs fn and then invalidates keys so the next read reloads them.
func UpdateCached(
	ctx context.Context,
	cache Cache,
	fn func(context.Context) error,
	keys ...string,
) error {
	if err := fn(ctx); err != nil {
		return err
	}
	if cache != nil && len(keys) > 0 {
		_ = cache.Del(ctx, keys...)
	}
	return nil
}

// JitterTTL shortens ttl by up to 10% so related keys do not expire together.
func JitterTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return ttl
	}
	maxJitter := int64(ttl / 10)
	if maxJitter <= 0 {
		return ttl
	}
	n, err := rand.Int(rand.Reader, big.NewInt(maxJitter+1))
	if err != nil {
		return ttl
	}
	return ttl - time.Duration(n.Int64())
}
