package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/quiniela/platform/internal/domain"
)

// PgCredentialRepository implements CredentialRepository using pgx.
type PgCredentialRepository struct{}

// NewPgCredentialRepository creates a new PgCredentialRepository.
func NewPgCredentialRepository() *PgCredentialRepository {
	return &PgCredentialRepository{}
}

func (r *PgCredentialRepository) findOne(ctx context.Context, db DBTX, where string, arg interface{}) (*domain.Credential, error) {
	row := db.QueryRow(ctx,
		`SELECT id, email, password_hash, created_at FROM auth_users WHERE `+where, arg)

	c := &domain.Credential{}
	err := row.Scan(&c.ID, &c.Email, &c.PasswordHash, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// FindByEmail returns a credential by email (case-insensitive), or nil if not found.
func (r *PgCredentialRepository) FindByEmail(ctx context.Context, db DBTX, email string) (*domain.Credential, error) {
	return r.findOne(ctx, db, `lower(email) = lower($1)`, email)
}

// FindByID returns a credential by ID, or nil if not found.
func (r *PgCredentialRepository) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Credential, error) {
	return r.findOne(ctx, db, `id = $1`, id)
}

// Create inserts a new credential.
func (r *PgCredentialRepository) Create(ctx context.Context, db DBTX, cred *domain.Credential) error {
	if cred.ID == uuid.Nil {
		cred.ID = uuid.New()
	}
	_, err := db.Exec(ctx,
		`INSERT INTO auth_users (id, email, password_hash) VALUES ($1, $2, $3)`,
		cred.ID, cred.Email, cred.PasswordHash)
	return err
}

// Delete removes a credential.
func (r *PgCredentialRepository) Delete(ctx context.Context, db DBTX, id uuid.UUID) (bool, error) {
	tag, err := db.Exec(ctx, `DELETE FROM auth_users WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
