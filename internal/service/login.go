package service

import (
	"context"
	"errors"
	"strings"

	"github.com/quiniela/platform/internal/domain"
	"github.com/quiniela/platform/internal/identity"
	"github.com/quiniela/platform/internal/repository"
)

// LoginGuard tracks failed logins. guard.Lockout implements it.
type LoginGuard interface {
	CheckLocked(ctx context.Context, email string) error
	RecordAttempt(ctx context.Context, email, ip string, success bool)
}

// LoginInput holds the login request fields.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// LoginService performs password logins against the identity provider.
type LoginService struct {
	db       repository.DBTX
	provider identity.Provider
	users    repository.UserRepository
	lockout  LoginGuard
}

// NewLoginService creates a LoginService. lockout may be nil.
func NewLoginService(db repository.DBTX, provider identity.Provider, users repository.UserRepository, lockout LoginGuard) *LoginService {
	return &LoginService{db: db, provider: provider, users: users, lockout: lockout}
}

// Login verifies credentials and returns a bearer token with the user row.
func (s *LoginService) Login(ctx context.Context, in LoginInput, ip string) (*LoginResult, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.ErrValidation("email and password are required")
	}

	if s.lockout != nil {
		if err := s.lockout.CheckLocked(ctx, email); err != nil {
			return nil, err
		}
	}

	sess, err := s.provider.SignIn(ctx, email, in.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			s.record(ctx, email, ip, false)
			return nil, domain.ErrUnauthorized("invalid email or password")
		}
		return nil, domain.ErrUpstream("identity provider", err)
	}
	s.record(ctx, email, ip, true)

	user, err := s.users.FindByAuthID(ctx, s.db, sess.Subject.ID)
	if err != nil {
		return nil, upstream("lookup user", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound("user for subject", sess.Subject.ID)
	}
	return &LoginResult{Token: sess.AccessToken, User: user}, nil
}

func (s *LoginService) record(ctx context.Context, email, ip string, success bool) {
	if s.lockout != nil {
		s.lockout.RecordAttempt(ctx, email, ip, success)
	}
}
