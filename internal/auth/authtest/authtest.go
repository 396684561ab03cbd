// Package authtest builds an auth.Guard backed by in-memory users for
// handler tests. A user's bearer token is Token(user).
package authtest

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/quiniela/platform/internal/auth"
	"github.com/quiniela/platform/internal/domain"
	"github.com/quiniela/platform/internal/identity"
	"github.com/quiniela/platform/internal/repository"
)

// Token returns the bearer token accepted for u.
func Token(u *domain.User) string { return "token-" + u.AuthID }

// NewUser returns a user with a fresh ID and subject.
func NewUser(name, role string) *domain.User {
	id := uuid.New()
	return &domain.User{
		ID:     id,
		AuthID: "sub-" + id.String(),
		Email:  name + "@x.com",
		Name:   name,
		Role:   role,
	}
}

// NewGuard returns a Guard that accepts Token(u) for each of users.
func NewGuard(users ...*domain.User) *auth.Guard {
	store := &userStore{byAuthID: make(map[string]*domain.User)}
	for _, u := range users {
		store.byAuthID[u.AuthID] = u
	}
	return auth.NewGuard(nil, tokenProvider{}, store)
}

type tokenProvider struct {
	identity.Provider
}

func (tokenProvider) ValidateToken(_ context.Context, token string) (identity.Subject, error) {
	sub, ok := strings.CutPrefix(token, "token-")
	if !ok || sub == "" {
		return identity.Subject{}, identity.ErrInvalidToken
	}
	return identity.Subject{ID: sub}, nil
}

type userStore struct {
	repository.UserRepository
	mu       sync.Mutex
	byAuthID map[string]*domain.User
}

func (s *userStore) FindByAuthID(_ context.Context, _ repository.DBTX, authID string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byAuthID[authID], nil
}
