package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/quiniela/platform/internal/domain"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// UserRepository provides access to users.
type UserRepository interface {
	// FindByAuthID returns the user linked to an identity-provider subject, or nil.
	FindByAuthID(ctx context.Context, db DBTX, authID string) (*domain.User, error)

	// FindByID returns a user by ID, or nil.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.User, error)

	// List returns all users ordered by name.
	List(ctx context.Context, db DBTX) ([]domain.User, error)

	// Create inserts a new user; ID and CreatedAt are filled in.
	Create(ctx context.Context, db DBTX, user *domain.User) error

	// UpsertByAuthID inserts or updates the row keyed on auth_id.
	UpsertByAuthID(ctx context.Context, db DBTX, user *domain.User) error

	// Update modifies name, email and role. Returns false when no row matched.
	Update(ctx context.Context, db DBTX, user *domain.User) (bool, error)

	// Delete removes a user and returns the deleted row, or nil when absent.
	Delete(ctx context.Context, db DBTX, id uuid.UUID) (*domain.User, error)
}

// PoolRepository provides access to pools.
type PoolRepository interface {
	// FindByID returns a pool, or nil.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Pool, error)

	// List returns all pools, newest first.
	List(ctx context.Context, db DBTX) ([]domain.Pool, error)

	// Create inserts a pool; ID and CreatedAt are filled in.
	Create(ctx context.Context, db DBTX, pool *domain.Pool) error

	// Update modifies name and season; CreatedAt is filled in. Returns false when no row matched.
	Update(ctx context.Context, db DBTX, pool *domain.Pool) (bool, error)

	// Delete removes a pool. Returns false when no row matched.
	Delete(ctx context.Context, db DBTX, id uuid.UUID) (bool, error)
}

// MembershipRepository provides access to user_pools.
type MembershipRepository interface {
	// Exists reports whether (userID, poolID) is already a membership.
	Exists(ctx context.Context, db DBTX, userID, poolID uuid.UUID) (bool, error)

	// Insert adds a membership. Returns false when the unique key already existed.
	Insert(ctx context.Context, db DBTX, userID, poolID uuid.UUID) (bool, error)

	// ListPoolsForUser returns the pools a user belongs to.
	ListPoolsForUser(ctx context.Context, db DBTX, userID uuid.UUID) ([]domain.PoolSummary, error)

	// ListMembers returns the members of a pool ordered by name.
	ListMembers(ctx context.Context, db DBTX, poolID uuid.UUID) ([]domain.PoolMember, error)
}

// PickRepository provides access to picks.
type PickRepository interface {
	// UpsertBatch writes all picks in one statement keyed on (user_id, pool_id, game_id).
	// Entries must not repeat a game ID.
	UpsertBatch(ctx context.Context, db DBTX, userID, poolID uuid.UUID, entries []domain.PickEntry) error

	// ListByUser returns the user's picks in a pool.
	ListByUser(ctx context.Context, db DBTX, userID, poolID uuid.UUID) ([]domain.PickEntry, error)
}

// ScheduleRepository provides read access to seasons, weeks, games and teams.
type ScheduleRepository interface {
	// ListSeasons returns seasons, newest year first.
	ListSeasons(ctx context.Context, db DBTX) ([]domain.Season, error)

	// FindSeason returns a season by ID, or nil.
	FindSeason(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Season, error)

	// ListWeekNumbers returns the week numbers defined for a season, ascending.
	ListWeekNumbers(ctx context.Context, db DBTX, seasonID uuid.UUID) ([]int, error)

	// ListGames returns the season's games with teams resolved, ordered by kickoff.
	ListGames(ctx context.Context, db DBTX, seasonID uuid.UUID) ([]domain.Game, error)

	// TieFlags returns tie_allowed for each requested game that exists.
	TieFlags(ctx context.Context, db DBTX, gameIDs []uuid.UUID) (map[uuid.UUID]bool, error)
}

// CredentialRepository provides access to auth_users (local identity backend).
type CredentialRepository interface {
	// FindByEmail returns a credential by email, or nil.
	FindByEmail(ctx context.Context, db DBTX, email string) (*domain.Credential, error)

	// FindByID returns a credential by ID, or nil.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Credential, error)

	// Create inserts a new credential.
	Create(ctx context.Context, db DBTX, cred *domain.Credential) error

	// Delete removes a credential. Returns false when no row matched.
	Delete(ctx context.Context, db DBTX, id uuid.UUID) (bool, error)
}

// OutboxRepository provides access to the event_outbox table.
type OutboxRepository interface {
	// Insert writes an outbox event (within the same transaction as the change it describes).
	Insert(ctx context.Context, db DBTX, draft domain.OutboxDraft) error

	// FetchUnpublished returns unpublished events, oldest first.
	FetchUnpublished(ctx context.Context, db DBTX, limit int) ([]domain.OutboxDraft, error)

	// MarkPublished stamps published_at on the given events.
	MarkPublished(ctx context.Context, db DBTX, ids []uuid.UUID) error
}
