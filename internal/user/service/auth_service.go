package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"campusdesk/internal/common/cache"
	"campusdesk/internal/user/model"
	"campusdesk/internal/user/repository"
	pkgerrors "campusdesk/pkg/errors"
	"campusdesk/pkg/utils/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultLoginFailTTL   = 15 * time.Minute
	defaultLoginFailLimit = 5
)

// Revoker records and checks revoked tokens.
type Revoker interface {
	Enabled() bool
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	RevokeAllBefore(ctx context.Context, sid string, at time.Time, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti, sid string, issuedAt time.Time) (bool, error)
}

// AuthServiceConfig holds configuration for AuthService.
type AuthServiceConfig struct {
	BcryptCost     int
	LoginFailTTL   time.Duration
	LoginFailLimit int
}

// AuthService handles account and session flows.
type AuthService struct {
	users          repository.UserRepository
	tokens         *TokenManager
	revoker        Revoker
	loginFailCache cache.Cache
	config         AuthServiceConfig
	dummyHash      []byte
	now            func() time.Time
}

// NewAuthService creates a new AuthService. revoker and loginFailCache may be nil.
func NewAuthService(
	users repository.UserRepository,
	tokens *TokenManager,
	revoker Revoker,
	loginFailCache cache.Cache,
	cfg AuthServiceConfig,
) *AuthService {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.LoginFailTTL == 0 {
		cfg.LoginFailTTL = defaultLoginFailTTL
	}
	if cfg.LoginFailLimit == 0 {
		cfg.LoginFailLimit = defaultLoginFailLimit
	}

	// compared against when the sid is unknown so both failure paths cost one bcrypt round
	dummyHash, err := bcrypt.GenerateFromPassword([]byte("campusdesk-dummy-password"), cfg.BcryptCost)
	if err != nil {
		dummyHash = nil
	}

	return &AuthService{
		users:          users,
		tokens:         tokens,
		revoker:        revoker,
		loginFailCache: loginFailCache,
		config:         cfg,
		dummyHash:      dummyHash,
		now:            time.Now,
	}
}

// RegisterInput represents input for account creation.
type RegisterInput struct {
	SID      string
	Name     string
	Password string
	Role     string
}

// LoginInput represents input for login.
type LoginInput struct {
	SID      string
	Password string
	IP       string
}

// ChangePasswordInput represents input for a password change.
type ChangePasswordInput struct {
	SID         string
	OldPassword string
	NewPassword string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      model.Profile
}

// Register creates an account. The password is stored only as a bcrypt hash.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	sid := normalizeSid(input.SID)
	name := strings.TrimSpace(input.Name)
	if err := validateSid(sid); err != nil {
		return nil, err
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}
	role, ok := model.ParseRole(input.Role)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.InvalidRole).WithDetail("role", input.Role)
	}

	exists, err := s.users.ExistsBySid(ctx, nil, sid)
	if err != nil {
		return nil, pkgerrors.Wrap(fmt.Errorf("check sid failed: %w", err), pkgerrors.DatabaseError)
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.SidAlreadyExists)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.config.BcryptCost)
	if err != nil {
		return nil, pkgerrors.Wrap(fmt.Errorf("hash password failed: %w", err), pkgerrors.InternalServerError)
	}

	user := &model.User{
		SID:          sid,
		Name:         name,
		PasswordHash: string(passwordHash),
		Role:         role,
	}
	if err := s.users.Create(ctx, nil, user); err != nil {
		return nil, mapUserCreateError(err)
	}

	logger.Info(ctx, "user registered", zap.String("sid", sid), zap.String("role", string(role)))
	user.PasswordHash = ""
	return user, nil
}

// Login verifies credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	sid := normalizeSid(input.SID)
	if sid == "" || input.Password == "" {
		return LoginResult{}, pkgerrors.New(pkgerrors.RequiredFieldEmpty).WithMessage("Both fields are required")
	}

	if err := s.checkLoginLimit(ctx, sid, input.IP); err != nil {
		return LoginResult{}, err
	}

	user, err := s.users.GetCredentialsBySid(ctx, nil, sid)
	if err != nil {
		if stderrors.Is(err, repository.ErrUserNotFound) {
			if s.dummyHash != nil {
				_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(input.Password))
			}
			s.recordLoginFailure(ctx, sid, input.IP)
			return LoginResult{}, pkgerrors.New(pkgerrors.InvalidCredentials)
		}
		return LoginResult{}, pkgerrors.Wrap(fmt.Errorf("get user failed: %w", err), pkgerrors.DatabaseError)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		s.recordLoginFailure(ctx, sid, input.IP)
		return LoginResult{}, pkgerrors.New(pkgerrors.InvalidCredentials)
	}

	s.clearLoginFailure(ctx, sid, input.IP)

	token, claims, err := s.tokens.Issue(user.SID, user.Role)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{
		Token:     token,
		ExpiresAt: claims.ExpiresAtTime(),
		User:      user.Profile(),
	}, nil
}

// Authenticate verifies raw, checks revocation and resolves the live user behind it.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*model.User, *Claims, error) {
	claims, err := s.tokens.Verify(raw)
	if err != nil {
		return nil, nil, err
	}

	if s.revoker != nil && s.revoker.Enabled() {
		revoked, err := s.revoker.IsRevoked(ctx, claims.ID, claims.SID, claims.IssuedAtTime())
		if err != nil {
			return nil, nil, pkgerrors.Wrap(fmt.Errorf("check token revocation failed: %w", err), pkgerrors.ServiceUnavailable)
		}
		if revoked {
			return nil, nil, pkgerrors.New(pkgerrors.TokenRevoked)
		}
	}

	user, err := s.users.GetActiveBySid(ctx, claims.SID)
	if err != nil {
		if stderrors.Is(err, repository.ErrUserNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.UserNotFound).WithMessage("Unauthorized - user not found")
		}
		return nil, nil, pkgerrors.Wrap(fmt.Errorf("get user failed: %w", err), pkgerrors.DatabaseError)
	}
	return user, claims, nil
}

// Logout revokes the presented token until its natural expiry.
func (s *AuthService) Logout(ctx context.Context, claims *Claims) error {
	if claims == nil || s.revoker == nil || !s.revoker.Enabled() {
		return nil
	}
	ttl := claims.ExpiresAtTime().Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.revoker.Revoke(ctx, claims.ID, ttl); err != nil {
		return pkgerrors.Wrap(fmt.Errorf("revoke token failed: %w", err), pkgerrors.CacheError)
	}
	return nil
}

// ChangePassword replaces the actor's password and revokes the actor's earlier tokens.
func (s *AuthService) ChangePassword(ctx context.Context, actor *model.User, claims *Claims, input ChangePasswordInput) error {
	if actor == nil {
		return pkgerrors.New(pkgerrors.Unauthorized)
	}
	sid := normalizeSid(input.SID)
	if sid == "" || input.OldPassword == "" || input.NewPassword == "" {
		return pkgerrors.New(pkgerrors.RequiredFieldEmpty).WithMessage("All fields are required")
	}
	if sid != actor.SID {
		return pkgerrors.New(pkgerrors.Forbidden).WithMessage("You can only change your own password")
	}
	if err := validatePassword(input.NewPassword); err != nil {
		return err
	}

	user, err := s.users.GetCredentialsBySid(ctx, nil, sid)
	if err != nil {
		if stderrors.Is(err, repository.ErrUserNotFound) {
			return pkgerrors.New(pkgerrors.UserNotFound)
		}
		return pkgerrors.Wrap(fmt.Errorf("get user failed: %w", err), pkgerrors.DatabaseError)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.OldPassword)); err != nil {
		return pkgerrors.New(pkgerrors.PasswordMismatch)
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), s.config.BcryptCost)
	if err != nil {
		return pkgerrors.Wrap(fmt.Errorf("hash password failed: %w", err), pkgerrors.InternalServerError)
	}
	if err := s.users.UpdatePassword(ctx, nil, user.ID, string(newHash)); err != nil {
		if stderrors.Is(err, repository.ErrUserNotFound) {
			return pkgerrors.New(pkgerrors.UserNotFound)
		}
		return pkgerrors.Wrap(fmt.Errorf("update password failed: %w", err), pkgerrors.UserUpdateFailed)
	}

	// The password is already changed; revocation failures are logged, not returned.
	if s.revoker != nil && s.revoker.Enabled() {
		now := s.now()
		if err := s.revoker.RevokeAllBefore(ctx, sid, now, s.tokens.TTL()); err != nil {
			logger.Error(ctx, "revoke earlier tokens failed", zap.String("sid", sid), zap.Error(err))
		}
		if claims != nil {
			if err := s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAtTime().Sub(now)); err != nil {
				logger.Error(ctx, "revoke current token failed", zap.String("sid", sid), zap.Error(err))
			}
		}
	}

	logger.Info(ctx, "password changed", zap.String("sid", sid))
	return nil
}

// Check returns the actor's profile with the ids of the problems they submitted.
func (s *AuthService) Check(ctx context.Context, actor *model.User) (model.Profile, error) {
	if actor == nil {
		return model.Profile{}, pkgerrors.New(pkgerrors.Unauthorized)
	}
	profile := actor.Profile()
	ids, err := s.users.ListProblemIDs(ctx, actor.ID)
	if err != nil {
		return model.Profile{}, pkgerrors.Wrap(fmt.Errorf("list problem ids failed: %w", err), pkgerrors.DatabaseError)
	}
	profile.Problems = ids
	return profile, nil
}

func mapUserCreateError(err error) error {
	if stderrors.Is(err, repository.ErrDuplicateSid) {
		return pkgerrors.New(pkgerrors.SidAlreadyExists)
	}
	return pkgerrors.Wrap(fmt.Errorf("create user failed: %w", err), pkgerrors.DatabaseError)
}
