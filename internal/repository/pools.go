package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/quiniela/platform/internal/domain"
)

// PgPoolRepository implements PoolRepository using pgx.
type PgPoolRepository struct{}

// NewPgPoolRepository creates a new PgPoolRepository.
func NewPgPoolRepository() *PgPoolRepository {
	return &PgPoolRepository{}
}

// FindByID returns a pool, or nil if not found.
func (r *PgPoolRepository) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Pool, error) {
	p := &domain.Pool{}
	err := db.QueryRow(ctx,
		`SELECT id, name, season_id, created_at FROM pools WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.SeasonID, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// List returns all pools, newest first.
func (r *PgPoolRepository) List(ctx context.Context, db DBTX) ([]domain.Pool, error) {
	rows, err := db.Query(ctx,
		`SELECT id, name, season_id, created_at FROM pools ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list pools: %w", err)
	}
	defer rows.Close()

	pools := []domain.Pool{}
	for rows.Next() {
		var p domain.Pool
		if err := rows.Scan(&p.ID, &p.Name, &p.SeasonID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pool: %w", err)
		}
		pools = append(pools, p)
	}
	return pools, rows.Err()
}

// Create inserts a pool.
func (r *PgPoolRepository) Create(ctx context.Context, db DBTX, pool *domain.Pool) error {
	if pool.ID == uuid.Nil {
		pool.ID = uuid.New()
	}
	return db.QueryRow(ctx,
		`INSERT INTO pools (id, name, season_id) VALUES ($1, $2, $3) RETURNING created_at`,
		pool.ID, pool.Name, pool.SeasonID,
	).Scan(&pool.CreatedAt)
}

// Update modifies name and season and fills in the stored CreatedAt.
func (r *PgPoolRepository) Update(ctx context.Context, db DBTX, pool *domain.Pool) (bool, error) {
	err := db.QueryRow(ctx,
		`UPDATE pools SET name = $2, season_id = $3 WHERE id = $1 RETURNING created_at`,
		pool.ID, pool.Name, pool.SeasonID,
	).Scan(&pool.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes a pool; memberships and picks cascade.
func (r *PgPoolRepository) Delete(ctx context.Context, db DBTX, id uuid.UUID) (bool, error) {
	tag, err := db.Exec(ctx, `DELETE FROM pools WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
