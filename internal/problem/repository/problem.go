package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"campusdesk/internal/common/cache"
	"campusdesk/internal/common/db"
	"campusdesk/internal/problem/model"

	"github.com/google/uuid"
)

const (
	defaultProblemCacheTTL      = 10 * time.Minute
	defaultProblemCacheEmptyTTL = time.Minute
	problemViewKeyPrefix        = "problem:view:"
)

var ErrProblemNotFound = errors.New("problem not found")

// ProblemRepository is the problem entity store. Problems are never deleted.
type ProblemRepository interface {
	Insert(ctx context.Context, tx db.Transaction, problem *model.Problem) (string, error)
	GetByID(ctx context.Context, id string) (*model.ProblemView, error)
	ListAll(ctx context.Context) ([]*model.ProblemView, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*model.ProblemView, error)
	Update(ctx context.Context, tx db.Transaction, id string, patch model.Patch) error
}

type SQLProblemRepository struct {
	dbProvider db.Provider
	cache      cache.Cache
	ttl        time.Duration
	emptyTTL   time.Duration
	now        func() time.Time
}

func NewProblemRepository(provider db.Provider, cacheClient cache.Cache) *SQLProblemRepository {
	return NewProblemRepositoryWithTTL(provider, cacheClient, defaultProblemCacheTTL, defaultProblemCacheEmptyTTL)
}

func NewProblemRepositoryWithTTL(provider db.Provider, cacheClient cache.Cache, ttl, emptyTTL time.Duration) *SQLProblemRepository {
	if ttl <= 0 {
		ttl = defaultProblemCacheTTL
	}
	if emptyTTL <= 0 {
		emptyTTL = defaultProblemCacheEmptyTTL
	}
	return &SQLProblemRepository{
		dbProvider: provider,
		cache:      cacheClient,
		ttl:        ttl,
		emptyTTL:   emptyTTL,
		now:        time.Now,
	}
}

const problemViewSelect = `
	SELECT p.id, p.title, p.description, p.tags, p.status, p.response, p.created_by,
	       p.created_at, p.updated_at, u.name, u.sid
	FROM problems p
	JOIN users u ON u.id = p.created_by`

// Insert stores problem and returns its id. A missing ID, status or timestamp is filled in.
func (r *SQLProblemRepository) Insert(ctx context.Context, tx db.Transaction, problem *model.Problem) (string, error) {
	if problem == nil {
		return "", errors.New("problem is nil")
	}
	if problem.ID == "" {
		problem.ID = uuid.NewString()
	}
	if problem.Status == "" {
		problem.Status = model.StatusPending
	}
	if problem.Tags == nil {
		problem.Tags = []string{}
	}
	if problem.CreatedAt.IsZero() {
		problem.CreatedAt = r.now().UTC()
	}
	if problem.UpdatedAt.IsZero() {
		problem.UpdatedAt = problem.CreatedAt
	}

	tags, err := json.Marshal(problem.Tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}

	var response sql.NullString
	if problem.Response != nil {
		response = sql.NullString{String: *problem.Response, Valid: true}
	}

	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return "", err
	}
	query := `INSERT INTO problems (id, title, description, tags, status, response, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = querier.Exec(ctx, query,
		problem.ID, problem.Title, problem.Description, string(tags), string(problem.Status), response,
		problem.CreatedBy, toMicros(problem.CreatedAt), toMicros(problem.UpdatedAt))
	if err != nil {
		return "", err
	}
	return problem.ID, nil
}

func (r *SQLProblemRepository) GetByID(ctx context.Context, id string) (*model.ProblemView, error) {
	if r.cache != nil {
		view, err := cache.GetWithCached[*model.ProblemView](
			ctx,
			r.cache,
			problemViewKey(id),
			cache.JitterTTL(r.ttl),
			cache.JitterTTL(r.emptyTTL),
			func(view *model.ProblemView) bool { return view == nil },
			marshalProblemView,
			unmarshalProblemView,
			func(ctx context.Context) (*model.ProblemView, error) {
				view, err := r.getByIDFromDB(ctx, id)
				if err != nil {
					if errors.Is(err, ErrProblemNotFound) {
						return nil, nil
					}
					return nil, err
				}
				return view, nil
			},
		)
		if err != nil {
			return nil, err
		}
		if view == nil {
			return nil, ErrProblemNotFound
		}
		return view, nil
	}
	return r.getByIDFromDB(ctx, id)
}

// ListAll returns every problem in insertion order.
func (r *SQLProblemRepository) ListAll(ctx context.Context) ([]*model.ProblemView, error) {
	return r.list(ctx, problemViewSelect+" ORDER BY p.seq")
}

// ListByOwner returns the problems created by ownerID in insertion order.
func (r *SQLProblemRepository) ListByOwner(ctx context.Context, ownerID string) ([]*model.ProblemView, error) {
	return r.list(ctx, problemViewSelect+" WHERE p.created_by = ? ORDER BY p.seq", ownerID)
}

// Update applies patch and stamps updated_at. The last write wins.
func (r *SQLProblemRepository) Update(ctx context.Context, tx db.Transaction, id string, patch model.Patch) error {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return err
	}

	sets := "updated_at = ?"
	args := []interface{}{toMicros(r.now())}
	if patch.Response != nil {
		sets += ", response = ?"
		args = append(args, *patch.Response)
	}
	if patch.Status != nil {
		sets += ", status = ?"
		args = append(args, string(*patch.Status))
	}
	args = append(args, id)

	update := func(ctx context.Context) error {
		result, err := querier.Exec(ctx, "UPDATE problems SET "+sets+" WHERE id = ?", args...)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrProblemNotFound
		}
		return nil
	}

	if r.cache == nil {
		return update(ctx)
	}
	return cache.UpdateCached(ctx, r.cache, update, problemViewKey(id))
}

func (r *SQLProblemRepository) getByIDFromDB(ctx context.Context, id string) (*model.ProblemView, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, nil)
	if err != nil {
		return nil, err
	}
	row := querier.QueryRow(ctx, problemViewSelect+" WHERE p.id = ?", id)
	view, err := scanProblemView(row)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrProblemNotFound
		}
		return nil, err
	}
	return view, nil
}

func (r *SQLProblemRepository) list(ctx context.Context, query string, args ...interface{}) ([]*model.ProblemView, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, nil)
	if err != nil {
		return nil, err
	}
	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	views := make([]*model.ProblemView, 0)
	for rows.Next() {
		view, err := scanProblemView(rows)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return views, nil
}

func scanProblemView(scanner db.Scanner) (*model.ProblemView, error) {
	var view model.ProblemView
	var tags, status string
	var response sql.NullString
	var createdAt, updatedAt int64

	err := scanner.Scan(
		&view.ID,
		&view.Title,
		&view.Description,
		&tags,
		&status,
		&response,
		&view.CreatedBy,
		&createdAt,
		&updatedAt,
		&view.Owner.Name,
		&view.Owner.SID,
	)
	if err != nil {
		return nil, err
	}

	view.Tags = []string{}
	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &view.Tags); err != nil {
			return nil, fmt.Errorf("decode tags of problem %s: %w", view.ID, err)
		}
	}
	view.Status = model.Status(status)
	if response.Valid {
		text := response.String
		view.Response = &text
	}
	view.CreatedAt = fromMicros(createdAt)
	view.UpdatedAt = fromMicros(updatedAt)
	view.Owner.ID = view.CreatedBy
	return &view, nil
}

func toMicros(t time.Time) int64 {
	return t.UTC().UnixMicro()
}

func fromMicros(v int64) time.Time {
	return time.UnixMicro(v).UTC()
}
