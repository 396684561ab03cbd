package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/quiniela/platform/internal/domain"
)

const userColumns = `id, auth_id, email, name, role, created_at`

// PgUserRepository implements UserRepository using pgx.
type PgUserRepository struct{}

// NewPgUserRepository creates a new PgUserRepository.
func NewPgUserRepository() *PgUserRepository {
	return &PgUserRepository{}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	u := &domain.User{}
	err := row.Scan(&u.ID, &u.AuthID, &u.Email, &u.Name, &u.Role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// FindByAuthID returns the user linked to authID, or nil if not found.
func (r *PgUserRepository) FindByAuthID(ctx context.Context, db DBTX, authID string) (*domain.User, error) {
	return scanUser(db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE auth_id = $1`, authID))
}

// FindByID returns a user by ID, or nil if not found.
func (r *PgUserRepository) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.User, error) {
	return scanUser(db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// List returns all users ordered by name.
func (r *PgUserRepository) List(ctx context.Context, db DBTX) ([]domain.User, error) {
	rows, err := db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.AuthID, &u.Email, &u.Name, &u.Role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Create inserts a new user.
func (r *PgUserRepository) Create(ctx context.Context, db DBTX, user *domain.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	return db.QueryRow(ctx,
		`INSERT INTO users (id, auth_id, email, name, role)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		user.ID, user.AuthID, user.Email, user.Name, user.Role,
	).Scan(&user.CreatedAt)
}

// UpsertByAuthID inserts the user or refreshes email, name and role on the existing auth_id row.
func (r *PgUserRepository) UpsertByAuthID(ctx context.Context, db DBTX, user *domain.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	return db.QueryRow(ctx,
		`INSERT INTO users (id, auth_id, email, name, role)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (auth_id) DO UPDATE
		   SET email = EXCLUDED.email, name = EXCLUDED.name, role = EXCLUDED.role
		 RETURNING id, created_at`,
		user.ID, user.AuthID, user.Email, user.Name, user.Role,
	).Scan(&user.ID, &user.CreatedAt)
}

// Update modifies name, email and role.
func (r *PgUserRepository) Update(ctx context.Context, db DBTX, user *domain.User) (bool, error) {
	tag, err := db.Exec(ctx,
		`UPDATE users SET name = $2, email = $3, role = $4 WHERE id = $1`,
		user.ID, user.Name, user.Email, user.Role)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes a user, returning the deleted row so callers can clean up its credential.
func (r *PgUserRepository) Delete(ctx context.Context, db DBTX, id uuid.UUID) (*domain.User, error) {
	return scanUser(db.QueryRow(ctx,
		`DELETE FROM users WHERE id = $1 RETURNING `+userColumns, id))
}
