package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/quiniela/platform/internal/domain"
	"github.com/quiniela/platform/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// LocalProvider stores credentials in auth_users and issues HS256 tokens.
type LocalProvider struct {
	db     repository.DBTX
	creds  repository.CredentialRepository
	jwtMgr *JWTManager
	cost   int
}

// NewLocalProvider creates a LocalProvider.
func NewLocalProvider(db repository.DBTX, creds repository.CredentialRepository, jwtMgr *JWTManager) *LocalProvider {
	return &LocalProvider{db: db, creds: creds, jwtMgr: jwtMgr, cost: bcrypt.DefaultCost}
}

// ValidateToken checks the signature and that the credential still exists.
func (p *LocalProvider) ValidateToken(ctx context.Context, token string) (Subject, error) {
	claims, err := p.jwtMgr.ValidateToken(token)
	if err != nil {
		return Subject{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Subject{}, ErrInvalidToken
	}
	cred, err := p.creds.FindByID(ctx, p.db, id)
	if err != nil {
		return Subject{}, fmt.Errorf("find credential: %w", err)
	}
	if cred == nil {
		return Subject{}, ErrInvalidToken
	}
	return Subject{ID: cred.ID.String(), Email: cred.Email}, nil
}

// SignIn verifies the password and issues a token.
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (Session, error) {
	cred, err := p.creds.FindByEmail(ctx, p.db, strings.TrimSpace(email))
	if err != nil {
		return Session{}, fmt.Errorf("find credential: %w", err)
	}
	if cred == nil {
		return Session{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	token, err := p.jwtMgr.GenerateToken(cred.ID, cred.Email)
	if err != nil {
		return Session{}, fmt.Errorf("generate token: %w", err)
	}
	return Session{
		AccessToken: token,
		Subject:     Subject{ID: cred.ID.String(), Email: cred.Email},
	}, nil
}

// CreateCredential hashes the password and inserts an auth_users row.
func (p *LocalProvider) CreateCredential(ctx context.Context, email, password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	cred := &domain.Credential{
		ID:           uuid.New(),
		Email:        strings.TrimSpace(email),
		PasswordHash: string(hash),
	}
	if err := p.creds.Create(ctx, p.db, cred); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return "", ErrCredentialExists
		}
		return "", fmt.Errorf("create credential: %w", err)
	}
	return cred.ID.String(), nil
}

// DeleteCredential removes an auth_users row.
func (p *LocalProvider) DeleteCredential(ctx context.Context, subjectID string) error {
	id, err := uuid.Parse(subjectID)
	if err != nil {
		return ErrCredentialNotFound
	}
	deleted, err := p.creds.Delete(ctx, p.db, id)
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	if !deleted {
		return ErrCredentialNotFound
	}
	return nil
}

// FindSubjectByEmail returns the credential ID for an email.
func (p *LocalProvider) FindSubjectByEmail(ctx context.Context, email string) (string, error) {
	cred, err := p.creds.FindByEmail(ctx, p.db, email)
	if err != nil {
		return "", fmt.Errorf("find credential: %w", err)
	}
	if cred == nil {
		return "", ErrCredentialNotFound
	}
	return cred.ID.String(), nil
}
