package service

import (
	"context"
	"log/slog"

	"github.com/quiniela/platform/internal/cache"
	"github.com/quiniela/platform/internal/domain"
	"github.com/quiniela/platform/internal/repository"
)

// ScheduleService assembles week-grouped schedules.
type ScheduleService struct {
	db       repository.DBTX
	schedule repository.ScheduleRepository
	cache    cache.ScheduleCache
	logger   *slog.Logger
}

// NewScheduleService creates a new ScheduleService. A nil cache disables caching.
func NewScheduleService(db repository.DBTX, schedule repository.ScheduleRepository, c cache.ScheduleCache, logger *slog.Logger) *ScheduleService {
	if c == nil {
		c = cache.Noop{}
	}
	return &ScheduleService{db: db, schedule: schedule, cache: c, logger: logger}
}

// Seasons lists seasons, newest first.
func (s *ScheduleService) Seasons(ctx context.Context) ([]domain.Season, error) {
	seasons, err := s.schedule.ListSeasons(ctx, s.db)
	if err != nil {
		return nil, upstream("list seasons", err)
	}
	if seasons == nil {
		seasons = []domain.Season{}
	}
	return seasons, nil
}

// Get returns the schedule for the season, or for the latest season when
// rawSeasonID is empty. Cache failures fall through to the store.
func (s *ScheduleService) Get(ctx context.Context, rawSeasonID string) (*domain.Schedule, error) {
	season, err := s.resolveSeason(ctx, rawSeasonID)
	if err != nil {
		return nil, err
	}

	if cached, ok, err := s.cache.Get(ctx, season.ID); err != nil {
		s.logger.Warn("schedule cache read failed", "season_id", season.ID, "error", err)
	} else if ok {
		return cached, nil
	}

	weeks, err := s.schedule.ListWeekNumbers(ctx, s.db, season.ID)
	if err != nil {
		return nil, upstream("list weeks", err)
	}
	games, err := s.schedule.ListGames(ctx, s.db, season.ID)
	if err != nil {
		return nil, upstream("list games", err)
	}

	sched := &domain.Schedule{Season: *season, Weeks: domain.GroupByWeek(weeks, games)}
	if err := s.cache.Set(ctx, season.ID, sched); err != nil {
		s.logger.Warn("schedule cache write failed", "season_id", season.ID, "error", err)
	}
	return sched, nil
}

func (s *ScheduleService) resolveSeason(ctx context.Context, raw string) (*domain.Season, error) {
	if raw == "" {
		seasons, err := s.schedule.ListSeasons(ctx, s.db)
		if err != nil {
			return nil, upstream("list seasons", err)
		}
		if len(seasons) == 0 {
			return nil, domain.ErrNotFound("season", "latest")
		}
		return &seasons[0], nil
	}

	id, err := domain.ParseID("season_id", raw)
	if err != nil {
		return nil, err
	}
	season, err := s.schedule.FindSeason(ctx, s.db, id)
	if err != nil {
		return nil, upstream("find season", err)
	}
	if season == nil {
		return nil, domain.ErrNotFound("season", id.String())
	}
	return season, nil
}
