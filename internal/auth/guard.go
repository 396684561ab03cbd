// Package auth resolves bearer tokens to application users and gates
// handlers on role.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/quiniela/platform/internal/domain"
	"github.com/quiniela/platform/internal/identity"
	"github.com/quiniela/platform/internal/repository"
)

// Guard resolves the caller of an inbound request. Every call re-validates
// the token with the identity provider; nothing is cached.
type Guard struct {
	db       repository.DBTX
	provider identity.Provider
	users    repository.UserRepository
}

// NewGuard creates a Guard.
func NewGuard(db repository.DBTX, provider identity.Provider, users repository.UserRepository) *Guard {
	return &Guard{db: db, provider: provider, users: users}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// Resolve returns the application user for the request's bearer token.
// Errors carry KindUnauthorized, KindNotFound or KindUpstream.
func (g *Guard) Resolve(r *http.Request) (*domain.User, error) {
	token, ok := BearerToken(r)
	if !ok {
		return nil, domain.ErrUnauthorized("missing bearer token")
	}
	return g.ResolveToken(r.Context(), token)
}

// ResolveToken is Resolve for an already-extracted token.
func (g *Guard) ResolveToken(ctx context.Context, token string) (*domain.User, error) {
	sub, err := g.provider.ValidateToken(ctx, token)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidToken) {
			return nil, domain.ErrUnauthorized("invalid or expired token")
		}
		return nil, domain.ErrUpstream("identity provider", err)
	}
	if sub.ID == "" {
		return nil, domain.ErrUnauthorized("token has no subject")
	}

	user, err := g.users.FindByAuthID(ctx, g.db, sub.ID)
	if err != nil {
		return nil, domain.ErrUpstream("lookup user", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound("user for subject", sub.ID)
	}
	return user, nil
}

// ResolveAdmin is Resolve plus a role check that fails with KindForbidden.
func (g *Guard) ResolveAdmin(r *http.Request) (*domain.User, error) {
	user, err := g.Resolve(r)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, domain.ErrForbidden("admin role required")
	}
	return user, nil
}
