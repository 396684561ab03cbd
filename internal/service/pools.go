package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/quiniela/platform/internal/domain"
	"github.com/quiniela/platform/internal/repository"
)

// CreatePoolInput holds the admin create-pool request fields.
type CreatePoolInput struct {
	Name     string  `json:"name"`
	SeasonID *string `json:"season_id"`
}

// UpdatePoolInput holds the admin update-pool request fields.
type UpdatePoolInput struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	SeasonID *string `json:"season_id"`
}

// PoolAdminService implements admin CRUD over pools.
type PoolAdminService struct {
	db       repository.DBTX
	pools    repository.PoolRepository
	schedule repository.ScheduleRepository
}

// NewPoolAdminService creates a new PoolAdminService.
func NewPoolAdminService(db repository.DBTX, pools repository.PoolRepository, schedule repository.ScheduleRepository) *PoolAdminService {
	return &PoolAdminService{db: db, pools: pools, schedule: schedule}
}

// List returns all pools.
func (s *PoolAdminService) List(ctx context.Context) ([]domain.Pool, error) {
	pools, err := s.pools.List(ctx, s.db)
	if err != nil {
		return nil, upstream("list pools", err)
	}
	if pools == nil {
		pools = []domain.Pool{}
	}
	return pools, nil
}

// Create inserts a pool.
func (s *PoolAdminService) Create(ctx context.Context, in CreatePoolInput) (*domain.Pool, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.ErrValidation("name is required")
	}
	seasonID, err := s.season(ctx, in.SeasonID)
	if err != nil {
		return nil, err
	}

	pool := &domain.Pool{Name: name, SeasonID: seasonID}
	if err := s.pools.Create(ctx, s.db, pool); err != nil {
		return nil, upstream("create pool", err)
	}
	return pool, nil
}

// Update replaces a pool's name and season.
func (s *PoolAdminService) Update(ctx context.Context, in UpdatePoolInput) (*domain.Pool, error) {
	id, err := domain.ParseID("id", in.ID)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.ErrValidation("name is required")
	}
	seasonID, err := s.season(ctx, in.SeasonID)
	if err != nil {
		return nil, err
	}

	pool := &domain.Pool{ID: id, Name: name, SeasonID: seasonID}
	ok, err := s.pools.Update(ctx, s.db, pool)
	if err != nil {
		return nil, upstream("update pool", err)
	}
	if !ok {
		return nil, domain.ErrNotFound("pool", id.String())
	}
	return pool, nil
}

// Delete removes a pool along with its memberships and picks.
func (s *PoolAdminService) Delete(ctx context.Context, rawID string) error {
	id, err := domain.ParseID("id", rawID)
	if err != nil {
		return err
	}
	ok, err := s.pools.Delete(ctx, s.db, id)
	if err != nil {
		return upstream("delete pool", err)
	}
	if !ok {
		return domain.ErrNotFound("pool", id.String())
	}
	return nil
}

func (s *PoolAdminService) season(ctx context.Context, raw *string) (*uuid.UUID, error) {
	id, err := domain.ParseOptionalID("season_id", raw)
	if err != nil || id == nil {
		return nil, err
	}
	season, err := s.schedule.FindSeason(ctx, s.db, *id)
	if err != nil {
		return nil, upstream("find season", err)
	}
	if season == nil {
		return nil, domain.ErrValidation("unknown season_id " + id.String())
	}
	return id, nil
}
