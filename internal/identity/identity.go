// Package identity adapts identity providers: the hosted GoTrue-compatible
// auth service used in production and a local Postgres-backed provider.
package identity

import (
	"context"
	"errors"
)

// Errors returned by providers. Callers translate them to domain errors.
var (
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrCredentialExists   = errors.New("credential already exists")
	ErrCredentialNotFound = errors.New("credential not found")
)

// Subject is the identity a token resolves to.
type Subject struct {
	ID    string
	Email string
}

// Session is issued on password login.
type Session struct {
	AccessToken string
	Subject     Subject
}

// Provider is the identity-provider surface the application consumes.
type Provider interface {
	// ValidateToken exchanges a bearer token for its subject.
	ValidateToken(ctx context.Context, token string) (Subject, error)

	// SignIn performs a password login.
	SignIn(ctx context.Context, email, password string) (Session, error)

	// CreateCredential provisions a password credential and returns its subject ID.
	CreateCredential(ctx context.Context, email, password string) (string, error)

	// DeleteCredential removes a credential by subject ID.
	DeleteCredential(ctx context.Context, subjectID string) error

	// FindSubjectByEmail returns the subject ID for an email, or ErrCredentialNotFound.
	FindSubjectByEmail(ctx context.Context, email string) (string, error)
}
