package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/quiniela/platform/internal/domain"
)

// PgMembershipRepository implements MembershipRepository using pgx.
type PgMembershipRepository struct{}

// NewPgMembershipRepository creates a new PgMembershipRepository.
func NewPgMembershipRepository() *PgMembershipRepository {
	return &PgMembershipRepository{}
}

// Exists reports whether the membership row is present.
func (r *PgMembershipRepository) Exists(ctx context.Context, db DBTX, userID, poolID uuid.UUID) (bool, error) {
	var exists bool
	err := db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM user_pools WHERE user_id = $1 AND pool_id = $2)`,
		userID, poolID).Scan(&exists)
	return exists, err
}

// Insert adds a membership. A concurrent insert for the same pair loses on the
// unique key and reports false instead of failing.
func (r *PgMembershipRepository) Insert(ctx context.Context, db DBTX, userID, poolID uuid.UUID) (bool, error) {
	tag, err := db.Exec(ctx,
		`INSERT INTO user_pools (user_id, pool_id) VALUES ($1, $2)
		 ON CONFLICT (user_id, pool_id) DO NOTHING`,
		userID, poolID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ListPoolsForUser returns the pools a user belongs to, ordered by name.
func (r *PgMembershipRepository) ListPoolsForUser(ctx context.Context, db DBTX, userID uuid.UUID) ([]domain.PoolSummary, error) {
	rows, err := db.Query(ctx,
		`SELECT p.id, p.name
		 FROM user_pools up
		 JOIN pools p ON p.id = up.pool_id
		 WHERE up.user_id = $1
		 ORDER BY p.name ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list pools for user: %w", err)
	}
	defer rows.Close()

	pools := []domain.PoolSummary{}
	for rows.Next() {
		var p domain.PoolSummary
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("scan pool summary: %w", err)
		}
		pools = append(pools, p)
	}
	return pools, rows.Err()
}

// ListMembers returns a pool's members ordered by name.
func (r *PgMembershipRepository) ListMembers(ctx context.Context, db DBTX, poolID uuid.UUID) ([]domain.PoolMember, error) {
	rows, err := db.Query(ctx,
		`SELECT u.id, u.name
		 FROM user_pools up
		 JOIN users u ON u.id = up.user_id
		 WHERE up.pool_id = $1
		 ORDER BY u.name ASC`, poolID)
	if err != nil {
		return nil, fmt.Errorf("list pool members: %w", err)
	}
	defer rows.Close()

	members := []domain.PoolMember{}
	for rows.Next() {
		var m domain.PoolMember
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, fmt.Errorf("scan pool member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
