package repository

import (
	"context"
	"strconv"
	"time"

	"campusdesk/internal/common/cache"
)

const (
	revokedKeyPrefix = "auth:revoked:"
	cutoffKeyPrefix  = "auth:cutoff:"

	defaultRedisTimeout = 200 * time.Millisecond
	defaultLocalTTL     = time.Minute
)

// RevocationRepository records revoked tokens in Redis behind a local LRU.
// With a nil cache every method is a no-op and no token is ever revoked.
type RevocationRepository struct {
	cache        cache.Cache
	local        *cache.LRU[bool]
	redisTimeout time.Duration
	localTTL     time.Duration
}

func NewRevocationRepository(cacheClient cache.Cache, local *cache.LRU[bool], redisTimeout, localTTL time.Duration) *RevocationRepository {
	if redisTimeout <= 0 {
		redisTimeout = defaultRedisTimeout
	}
	if localTTL <= 0 {
		localTTL = defaultLocalTTL
	}
	return &RevocationRepository{
		cache:        cacheClient,
		local:        local,
		redisTimeout: redisTimeout,
		localTTL:     localTTL,
	}
}

// Enabled reports whether revocation is backed by a store.
func (r *RevocationRepository) Enabled() bool {
	return r != nil && r.cache != nil
}

// Revoke marks jti as revoked for ttl, normally the token's remaining lifetime.
func (r *RevocationRepository) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if !r.Enabled() || jti == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Second
	}
	ctxCache, cancel := context.WithTimeout(ctx, r.redisTimeout)
	defer cancel()
	if err := r.cache.Set(ctxCache, revokedKeyPrefix+jti, "1", ttl); err != nil {
		return err
	}
	if r.local != nil {
		r.local.Set(jti, true, r.localTTL)
	}
	return nil
}

// RevokeAllBefore rejects every token for sid issued before at. The cutoff is kept for ttl,
// which must cover the longest token lifetime.
func (r *RevocationRepository) RevokeAllBefore(ctx context.Context, sid string, at time.Time, ttl time.Duration) error {
	if !r.Enabled() || sid == "" {
		return nil
	}
	ctxCache, cancel := context.WithTimeout(ctx, r.redisTimeout)
	defer cancel()
	return r.cache.Set(ctxCache, cutoffKeyPrefix+sid, strconv.FormatInt(at.Unix(), 10), ttl)
}

// IsRevoked reports whether the token identified by jti, issued to sid at issuedAt, was revoked.
func (r *RevocationRepository) IsRevoked(ctx context.Context, jti, sid string, issuedAt time.Time) (bool, error) {
	if !r.Enabled() {
		return false, nil
	}
	if r.local != nil && jti != "" {
		if val, ok := r.local.Get(jti); ok && val {
			return true, nil
		}
	}

	ctxCache, cancel := context.WithTimeout(ctx, r.redisTimeout)
	defer cancel()

	revoked := false
	if jti != "" {
		n, err := r.cache.Exists(ctxCache, revokedKeyPrefix+jti)
		if err != nil {
			return false, err
		}
		revoked = n > 0
	}
	if !revoked && sid != "" {
		raw, err := r.cache.Get(ctxCache, cutoffKeyPrefix+sid)
		if err != nil {
			return false, err
		}
		if raw != "" {
			cutoff, err := strconv.ParseInt(raw, 10, 64)
			if err == nil && issuedAt.Unix() < cutoff {
				revoked = true
			}
		}
	}

	if revoked && r.local != nil && jti != "" {
		r.local.Set(jti, true, r.localTTL)
	}
	return revoked, nil
}
