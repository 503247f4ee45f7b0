package repository

import (
	"context"
	"errors"
	"time"

	"campusdesk/internal/common/cache"
	"campusdesk/internal/common/db"
	"campusdesk/internal/user/model"

	"github.com/google/uuid"
)

// UserRepository is the credential store.
type UserRepository interface {
	Create(ctx context.Context, tx db.Transaction, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetBySid(ctx context.Context, sid string) (*model.User, error)
	// GetActiveBySid is GetBySid with the row confirmed in the database.
	GetActiveBySid(ctx context.Context, sid string) (*model.User, error)
	// GetCredentialsBySid reads straight from the database and includes the password hash.
	GetCredentialsBySid(ctx context.Context, tx db.Transaction, sid string) (*model.User, error)
	ExistsBySid(ctx context.Context, tx db.Transaction, sid string) (bool, error)
	UpdatePassword(ctx context.Context, tx db.Transaction, userID, newHash string) error
	AppendProblem(ctx context.Context, tx db.Transaction, userID, problemID string, at time.Time) error
	ListProblemIDs(ctx context.Context, userID string) ([]string, error)
}

type SQLUserRepository struct {
	dbProvider db.Provider
	cache      cache.Cache
	ttl        time.Duration
	emptyTTL   time.Duration
	now        func() time.Time
}

func NewUserRepository(provider db.Provider, cacheClient cache.Cache) *SQLUserRepository {
	return NewUserRepositoryWithTTL(provider, cacheClient, defaultUserCacheTTL, defaultUserCacheEmptyTTL)
}

func NewUserRepositoryWithTTL(provider db.Provider, cacheClient cache.Cache, ttl, emptyTTL time.Duration) *SQLUserRepository {
	if ttl <= 0 {
		ttl = defaultUserCacheTTL
	}
	if emptyTTL <= 0 {
		emptyTTL = defaultUserCacheEmptyTTL
	}
	return &SQLUserRepository{
		dbProvider: provider,
		cache:      cacheClient,
		ttl:        ttl,
		emptyTTL:   emptyTTL,
		now:        time.Now,
	}
}

const userColumns = "id, sid, name, password_hash, role, created_at, updated_at"

// Create inserts user. A missing ID is generated and timestamps default to now.
func (r *SQLUserRepository) Create(ctx context.Context, tx db.Transaction, user *model.User) error {
	if user == nil {
		return errors.New("user is nil")
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = model.RoleStudent
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = r.now().UTC()
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}

	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return err
	}
	query := "INSERT INTO users (" + userColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?)"
	_, err = querier.Exec(ctx, query,
		user.ID, user.SID, user.Name, user.PasswordHash, string(user.Role),
		toMicros(user.CreatedAt), toMicros(user.UpdatedAt))
	if err != nil {
		if _, ok := db.UniqueViolation(err); ok {
			return ErrDuplicateSid
		}
		return err
	}
	// Drop a cached miss for this sid left by the pre-check.
	if r.cache != nil && tx == nil {
		_ = r.cache.Del(ctx, userSidKey(user.SID), userIDKey(user.ID))
	}
	return nil
}

func (r *SQLUserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getCached(ctx, userIDKey(id), func(ctx context.Context) (*model.User, error) {
		return r.getOne(ctx, nil, "id", id)
	})
}

func (r *SQLUserRepository) GetBySid(ctx context.Context, sid string) (*model.User, error) {
	return r.getCached(ctx, userSidKey(sid), func(ctx context.Context) (*model.User, error) {
		return r.getOne(ctx, nil, "sid", sid)
	})
}

// GetActiveBySid serves the profile from the cache but checks that its row still
// exists. A cached profile whose row is gone is evicted and sid is reloaded.
func (r *SQLUserRepository) GetActiveBySid(ctx context.Context, sid string) (*model.User, error) {
	user, err := r.GetBySid(ctx, sid)
	if err != nil || r.cache == nil {
		return user, err
	}

	querier, err := db.GetProviderQuerier(r.dbProvider, nil)
	if err != nil {
		return nil, err
	}
	var one int
	err = querier.QueryRow(ctx, "SELECT 1 FROM users WHERE id = ?", user.ID).Scan(&one)
	if err == nil {
		return user, nil
	}
	if !db.IsNoRows(err) {
		return nil, err
	}

	_ = r.cache.Del(ctx, userSidKey(sid), userIDKey(user.ID))
	user, err = r.getOne(ctx, nil, "sid", sid)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (r *SQLUserRepository) GetCredentialsBySid(ctx context.Context, tx db.Transaction, sid string) (*model.User, error) {
	return r.getOne(ctx, tx, "sid", sid)
}

func (r *SQLUserRepository) ExistsBySid(ctx context.Context, tx db.Transaction, sid string) (bool, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return false, err
	}
	var one int
	if err := querier.QueryRow(ctx, "SELECT 1 FROM users WHERE sid = ?", sid).Scan(&one); err != nil {
		if db.IsNoRows(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *SQLUserRepository) UpdatePassword(ctx context.Context, tx db.Transaction, userID, newHash string) error {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return err
	}

	var sid string
	if err := querier.QueryRow(ctx, "SELECT sid FROM users WHERE id = ?", userID).Scan(&sid); err != nil {
		if db.IsNoRows(err) {
			return ErrUserNotFound
		}
		return err
	}

	update := func(ctx context.Context) error {
		result, err := querier.Exec(ctx, "UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?",
			newHash, toMicros(r.now()), userID)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrUserNotFound
		}
		return nil
	}

	if r.cache == nil {
		return update(ctx)
	}
	return cache.UpdateCached(ctx, r.cache, update, userIDKey(userID), userSidKey(sid))
}

func (r *SQLUserRepository) AppendProblem(ctx context.Context, tx db.Transaction, userID, problemID string, at time.Time) error {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return err
	}
	_, err = querier.Exec(ctx, "INSERT INTO user_problems (user_id, problem_id, linked_at) VALUES (?, ?, ?)",
		userID, problemID, toMicros(at))
	if err != nil {
		if _, ok := db.UniqueViolation(err); ok {
			return ErrAlreadyLinked
		}
		return err
	}
	return nil
}

func (r *SQLUserRepository) ListProblemIDs(ctx context.Context, userID string) ([]string, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, nil)
	if err != nil {
		return nil, err
	}
	rows, err := querier.Query(ctx,
		"SELECT problem_id FROM user_problems WHERE user_id = ? ORDER BY seq", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *SQLUserRepository) getCached(ctx context.Context, key string, load func(context.Context) (*model.User, error)) (*model.User, error) {
	if r.cache == nil {
		user, err := load(ctx)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = ""
		return user, nil
	}

	user, err := cache.GetWithCached[*model.User](
		ctx,
		r.cache,
		key,
		cache.JitterTTL(r.ttl),
		cache.JitterTTL(r.emptyTTL),
		func(user *model.User) bool { return user == nil },
		marshalUser,
		unmarshalUser,
		func(ctx context.Context) (*model.User, error) {
			user, err := load(ctx)
			if err != nil {
				if errors.Is(err, ErrUserNotFound) {
					return nil, nil
				}
				return nil, err
			}
			user.PasswordHash = ""
			return user, nil
		},
	)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// getOne loads a single user by a unique column; column is never user input.
func (r *SQLUserRepository) getOne(ctx context.Context, tx db.Transaction, column, value string) (*model.User, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return nil, err
	}
	row := querier.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE "+column+" = ?", value)
	user, err := scanUser(row)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func scanUser(scanner db.Scanner) (*model.User, error) {
	var user model.User
	var role string
	var createdAt, updatedAt int64

	err := scanner.Scan(
		&user.ID,
		&user.SID,
		&user.Name,
		&user.PasswordHash,
		&role,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.Role = model.Role(role)
	user.CreatedAt = fromMicros(createdAt)
	user.UpdatedAt = fromMicros(updatedAt)
	return &user, nil
}
