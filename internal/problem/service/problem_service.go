package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"campusdesk/internal/authz"
	"campusdesk/internal/common/db"
	"campusdesk/internal/problem/model"
	"campusdesk/internal/problem/repository"
	usermodel "campusdesk/internal/user/model"
	pkgerrors "campusdesk/pkg/errors"
	"campusdesk/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 5000
	maxResponseLen    = 5000
	maxTags           = 10
	maxTagLen         = 32
)

// ProblemLinker appends a problem to its owner's problem list.
type ProblemLinker interface {
	AppendProblem(ctx context.Context, tx db.Transaction, userID, problemID string, at time.Time) error
}

// ProblemService drives the problem lifecycle: students submit, professors respond.
type ProblemService struct {
	dbProvider db.Provider
	repo       repository.ProblemRepository
	linker     ProblemLinker
	now        func() time.Time
}

// NewProblemService creates a new ProblemService.
func NewProblemService(provider db.Provider, repo repository.ProblemRepository, linker ProblemLinker) *ProblemService {
	return &ProblemService{dbProvider: provider, repo: repo, linker: linker, now: time.Now}
}

// SubmitInput represents a new grievance.
type SubmitInput struct {
	Title       string
	Description string
	Tags        []string
}

// RespondInput represents a professor's response. An empty Status means INPROGRESS.
type RespondInput struct {
	Response string
	Status   string
}

// Submit records a problem for a student. The insert and the link to the owner commit together.
func (s *ProblemService) Submit(ctx context.Context, actor *usermodel.User, input SubmitInput) (*model.ProblemView, error) {
	if err := authz.RequireRole(actor, usermodel.RoleStudent); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, pkgerrors.New(pkgerrors.RequiredFieldEmpty).WithMessage("Title and description are required")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return nil, pkgerrors.ValidationError("title", "is too long")
	}
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		return nil, pkgerrors.ValidationError("description", "is too long")
	}
	tags, err := validateTags(input.Tags)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	problem := &model.Problem{
		Title:       title,
		Description: description,
		Tags:        tags,
		Status:      model.StatusPending,
		CreatedBy:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.withTransaction(ctx, func(tx db.Transaction) error {
		id, err := s.repo.Insert(ctx, tx, problem)
		if err != nil {
			return pkgerrors.Wrap(fmt.Errorf("insert problem failed: %w", err), pkgerrors.ProblemCreateFailed)
		}
		if err := s.linker.AppendProblem(ctx, tx, actor.ID, id, now); err != nil {
			return pkgerrors.Wrap(fmt.Errorf("link problem to owner failed: %w", err), pkgerrors.ProblemCreateFailed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "problem submitted", zap.String("problem_id", problem.ID), zap.Strings("tags", tags))
	return &model.ProblemView{
		Problem: *problem,
		Owner:   model.Owner{ID: actor.ID, Name: actor.Name, SID: actor.SID},
	}, nil
}

// ListForRole returns a student's own problems, or every problem for a professor.
func (s *ProblemService) ListForRole(ctx context.Context, actor *usermodel.User) ([]*model.ProblemView, error) {
	if err := authz.RequireRole(actor, usermodel.RoleStudent, usermodel.RoleProfessor); err != nil {
		return nil, err
	}

	var (
		views []*model.ProblemView
		err   error
	)
	if authz.IsProfessor(actor) {
		views, err = s.repo.ListAll(ctx)
	} else {
		views, err = s.repo.ListByOwner(ctx, actor.ID)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(fmt.Errorf("list problems failed: %w", err), pkgerrors.DatabaseError)
	}
	return views, nil
}

// GetForRole returns one problem. Students only see their own; other ids read as not found.
func (s *ProblemService) GetForRole(ctx context.Context, actor *usermodel.User, id string) (*model.ProblemView, error) {
	if err := authz.RequireRole(actor, usermodel.RoleStudent, usermodel.RoleProfessor); err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.InvalidParams).WithMessage("Invalid problem id")
	}

	view, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if authz.IsStudent(actor) && !authz.IsOwner(actor, view.CreatedBy) {
		return nil, pkgerrors.New(pkgerrors.ProblemNotFound)
	}
	return view, nil
}

// Respond records a professor's response and sets the status, whatever it was before.
func (s *ProblemService) Respond(ctx context.Context, actor *usermodel.User, id string, input RespondInput) (*model.ProblemView, error) {
	if err := authz.RequireRole(actor, usermodel.RoleProfessor); err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.InvalidParams).WithMessage("Invalid problem id")
	}

	text := strings.TrimSpace(input.Response)
	if text == "" {
		return nil, pkgerrors.New(pkgerrors.RequiredFieldEmpty).WithMessage("Response is required")
	}
	if utf8.RuneCountInString(text) > maxResponseLen {
		return nil, pkgerrors.ValidationError("response", "is too long")
	}

	status := model.StatusInProgress
	if strings.TrimSpace(input.Status) != "" {
		parsed, ok := model.ParseStatus(input.Status)
		if !ok {
			return nil, pkgerrors.New(pkgerrors.InvalidStatus).WithDetail("status", input.Status)
		}
		status = parsed
	}

	if err := s.repo.Update(ctx, nil, id, model.Patch{Response: &text, Status: &status}); err != nil {
		if errors.Is(err, repository.ErrProblemNotFound) {
			return nil, pkgerrors.New(pkgerrors.ProblemNotFound)
		}
		return nil, pkgerrors.Wrap(fmt.Errorf("update problem failed: %w", err), pkgerrors.ProblemUpdateFailed)
	}

	logger.Info(ctx, "problem responded", zap.String("problem_id", id), zap.String("status", string(status)))
	return s.getByID(ctx, id)
}

func (s *ProblemService) getByID(ctx context.Context, id string) (*model.ProblemView, error) {
	view, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProblemNotFound) {
			return nil, pkgerrors.New(pkgerrors.ProblemNotFound)
		}
		return nil, pkgerrors.Wrap(fmt.Errorf("get problem failed: %w", err), pkgerrors.DatabaseError)
	}
	return view, nil
}

func (s *ProblemService) withTransaction(ctx context.Context, fn func(tx db.Transaction) error) error {
	database, err := db.CurrentDatabase(s.dbProvider)
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.DatabaseError)
	}
	if err := database.Transaction(ctx, fn); err != nil {
		if _, ok := err.(*pkgerrors.Error); ok {
			return err
		}
		return pkgerrors.Wrap(fmt.Errorf("transaction failed: %w", err), pkgerrors.TransactionFailed)
	}
	return nil
}

func validateTags(raw []string) ([]string, error) {
	tags := model.NormalizeTags(raw)
	if len(tags) > maxTags {
		return nil, pkgerrors.New(pkgerrors.TooManyTags).WithMessagef("At most %d tags are allowed", maxTags)
	}
	for _, tag := range tags {
		if utf8.RuneCountInString(tag) > maxTagLen {
			return nil, pkgerrors.New(pkgerrors.InvalidTag).WithDetail("tag", tag)
		}
	}
	return tags, nil
}
