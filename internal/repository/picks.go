package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/quiniela/platform/internal/domain"
)

// PgPickRepository implements PickRepository using pgx.
type PgPickRepository struct{}

// NewPgPickRepository creates a new PgPickRepository.
func NewPgPickRepository() *PgPickRepository {
	return &PgPickRepository{}
}

// UpsertBatch writes every entry in a single INSERT ... ON CONFLICT statement, so
// the batch commits or fails as a whole. A row that already exists for the
// (user, pool, game) triple has its prediction replaced.
func (r *PgPickRepository) UpsertBatch(ctx context.Context, db DBTX, userID, poolID uuid.UUID, entries []domain.PickEntry) error {
	if len(entries) == 0 {
		return nil
	}

	gameIDs := make([]uuid.UUID, len(entries))
	predictions := make([]string, len(entries))
	for i, e := range entries {
		gameIDs[i] = e.GameID
		predictions[i] = string(e.Prediction)
	}

	_, err := db.Exec(ctx, `
		INSERT INTO picks (user_id, pool_id, game_id, prediction)
		SELECT $1, $2, g.game_id, g.prediction
		FROM unnest($3::uuid[], $4::text[]) AS g(game_id, prediction)
		ON CONFLICT (user_id, pool_id, game_id)
		DO UPDATE SET prediction = EXCLUDED.prediction, updated_at = now()`,
		userID, poolID, gameIDs, predictions)
	if err != nil {
		return fmt.Errorf("upsert picks: %w", err)
	}
	return nil
}

// ListByUser returns the user's picks in a pool.
func (r *PgPickRepository) ListByUser(ctx context.Context, db DBTX, userID, poolID uuid.UUID) ([]domain.PickEntry, error) {
	rows, err := db.Query(ctx,
		`SELECT game_id, prediction FROM picks WHERE user_id = $1 AND pool_id = $2`,
		userID, poolID)
	if err != nil {
		return nil, fmt.Errorf("list picks: %w", err)
	}
	defer rows.Close()

	entries := []domain.PickEntry{}
	for rows.Next() {
		var e domain.PickEntry
		var prediction string
		if err := rows.Scan(&e.GameID, &prediction); err != nil {
			return nil, fmt.Errorf("scan pick: %w", err)
		}
		e.Prediction = domain.Prediction(prediction)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
