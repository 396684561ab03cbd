package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/quiniela/platform/internal/domain"
)

// PgScheduleRepository implements ScheduleRepository using pgx.
type PgScheduleRepository struct{}

// NewPgScheduleRepository creates a new PgScheduleRepository.
func NewPgScheduleRepository() *PgScheduleRepository {
	return &PgScheduleRepository{}
}

// ListSeasons returns seasons, newest year first.
func (r *PgScheduleRepository) ListSeasons(ctx context.Context, db DBTX) ([]domain.Season, error) {
	rows, err := db.Query(ctx, `SELECT id, year, label FROM seasons ORDER BY year DESC`)
	if err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}
	defer rows.Close()

	seasons := []domain.Season{}
	for rows.Next() {
		var s domain.Season
		if err := rows.Scan(&s.ID, &s.Year, &s.Label); err != nil {
			return nil, fmt.Errorf("scan season: %w", err)
		}
		seasons = append(seasons, s)
	}
	return seasons, rows.Err()
}

// FindSeason returns a season, or nil if not found.
func (r *PgScheduleRepository) FindSeason(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Season, error) {
	s := &domain.Season{}
	err := db.QueryRow(ctx, `SELECT id, year, label FROM seasons WHERE id = $1`, id).
		Scan(&s.ID, &s.Year, &s.Label)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListWeekNumbers returns the week numbers of a season, ascending.
func (r *PgScheduleRepository) ListWeekNumbers(ctx context.Context, db DBTX, seasonID uuid.UUID) ([]int, error) {
	rows, err := db.Query(ctx,
		`SELECT week_number FROM weeks WHERE season_id = $1 ORDER BY week_number ASC`, seasonID)
	if err != nil {
		return nil, fmt.Errorf("list weeks: %w", err)
	}
	defer rows.Close()

	weeks := []int{}
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan week: %w", err)
		}
		weeks = append(weeks, n)
	}
	return weeks, rows.Err()
}

// ListGames returns a season's games with home and away teams, ordered by kickoff.
func (r *PgScheduleRepository) ListGames(ctx context.Context, db DBTX, seasonID uuid.UUID) ([]domain.Game, error) {
	rows, err := db.Query(ctx, `
		SELECT g.id, g.kickoff_at, g.status, g.tie_allowed, w.week_number,
		       h.id, h.name, h.short_name,
		       a.id, a.name, a.short_name
		FROM games g
		JOIN weeks w ON w.id = g.week_id
		JOIN teams h ON h.id = g.home_team_id
		JOIN teams a ON a.id = g.away_team_id
		WHERE w.season_id = $1
		ORDER BY g.kickoff_at ASC`, seasonID)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	games := []domain.Game{}
	for rows.Next() {
		var g domain.Game
		if err := rows.Scan(&g.ID, &g.KickoffAt, &g.Status, &g.TieAllowed, &g.WeekNumber,
			&g.Home.ID, &g.Home.Name, &g.Home.ShortName,
			&g.Away.ID, &g.Away.Name, &g.Away.ShortName); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// TieFlags returns tie_allowed per game for the IDs that exist.
func (r *PgScheduleRepository) TieFlags(ctx context.Context, db DBTX, gameIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	flags := make(map[uuid.UUID]bool, len(gameIDs))
	if len(gameIDs) == 0 {
		return flags, nil
	}

	rows, err := db.Query(ctx,
		`SELECT id, tie_allowed FROM games WHERE id = ANY($1)`, gameIDs)
	if err != nil {
		return nil, fmt.Errorf("load tie flags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var tie bool
		if err := rows.Scan(&id, &tie); err != nil {
			return nil, fmt.Errorf("scan tie flag: %w", err)
		}
		flags[id] = tie
	}
	return flags, rows.Err()
}
