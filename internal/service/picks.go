package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/quiniela/platform/internal/domain"
	"github.com/quiniela/platform/internal/repository"
)

// PickInput is one submitted (game, prediction) pair before validation.
type PickInput struct {
	GameID     string          `json:"game_id"`
	Prediction json.RawMessage `json:"prediction"`
}

// SubmitInput holds a bulk pick submission.
type SubmitInput struct {
	PoolID string      `json:"pool_id"`
	Picks  []PickInput `json:"picks"`
}

// PickService persists picks with last-write-wins semantics per (user, pool, game).
type PickService struct {
	db       repository.DBTX
	tx       repository.Transactor
	pools    repository.PoolRepository
	schedule repository.ScheduleRepository
	picks    repository.PickRepository
	outbox   repository.OutboxRepository
	logger   *slog.Logger
}

// NewPickService creates a new PickService.
func NewPickService(
	db repository.DBTX,
	tx repository.Transactor,
	pools repository.PoolRepository,
	schedule repository.ScheduleRepository,
	picks repository.PickRepository,
	outbox repository.OutboxRepository,
	logger *slog.Logger,
) *PickService {
	return &PickService{db: db, tx: tx, pools: pools, schedule: schedule, picks: picks, outbox: outbox, logger: logger}
}

// Submit validates and upserts a batch of picks in one transaction.
func (s *PickService) Submit(ctx context.Context, user *domain.User, in SubmitInput) (int, error) {
	poolID, err := domain.ParseID("pool_id", in.PoolID)
	if err != nil {
		return 0, err
	}

	entries, err := normalizePicks(in.Picks)
	if err != nil {
		return 0, err
	}

	pool, err := s.pools.FindByID(ctx, s.db, poolID)
	if err != nil {
		return 0, upstream("find pool", err)
	}
	if pool == nil {
		return 0, domain.ErrValidation("unknown pool_id " + poolID.String())
	}

	if err := s.checkGames(ctx, entries); err != nil {
		return 0, err
	}

	err = s.tx.InTx(ctx, func(tx repository.DBTX) error {
		if err := s.picks.UpsertBatch(ctx, tx, user.ID, poolID, entries); err != nil {
			return err
		}

		draft, err := domain.NewOutboxDraft(domain.AggregatePicks, poolID.String(), domain.EventPicksSubmitted,
			map[string]interface{}{"pool_id": poolID, "user_id": user.ID, "picks": entries})
		if err != nil {
			return err
		}
		return s.outbox.Insert(ctx, tx, draft)
	})
	if err != nil {
		return 0, upstream("save picks", err)
	}

	s.logger.Debug("picks saved", "user_id", user.ID, "pool_id", poolID, "count", len(entries))
	return len(entries), nil
}

// ListByUser returns the caller's picks in a pool.
func (s *PickService) ListByUser(ctx context.Context, user *domain.User, rawPoolID string) ([]domain.PickEntry, error) {
	poolID, err := domain.ParseID("pool_id", rawPoolID)
	if err != nil {
		return nil, err
	}
	picks, err := s.picks.ListByUser(ctx, s.db, user.ID, poolID)
	if err != nil {
		return nil, upstream("list picks", err)
	}
	if picks == nil {
		picks = []domain.PickEntry{}
	}
	return picks, nil
}

// normalizePicks drops entries without a game id, parses the rest and
// collapses duplicate games to the last submitted value.
func normalizePicks(in []PickInput) ([]domain.PickEntry, error) {
	index := make(map[uuid.UUID]int, len(in))
	entries := make([]domain.PickEntry, 0, len(in))

	for i, p := range in {
		raw := strings.TrimSpace(p.GameID)
		if raw == "" {
			continue
		}
		gameID, err := uuid.Parse(raw)
		if err != nil {
			return nil, domain.ErrValidation(fmt.Sprintf("picks[%d]: invalid game_id", i))
		}
		if len(p.Prediction) == 0 || string(p.Prediction) == "null" {
			return nil, domain.ErrValidation(fmt.Sprintf("picks[%d]: prediction is required", i))
		}
		var pred domain.Prediction
		if err := json.Unmarshal(p.Prediction, &pred); err != nil {
			return nil, domain.ErrValidation(fmt.Sprintf("picks[%d]: %v", i, err))
		}

		if at, ok := index[gameID]; ok {
			entries[at].Prediction = pred
			continue
		}
		index[gameID] = len(entries)
		entries = append(entries, domain.PickEntry{GameID: gameID, Prediction: pred})
	}

	if len(entries) == 0 {
		return nil, domain.ErrValidation("picks is required")
	}
	return entries, nil
}

func (s *PickService) checkGames(ctx context.Context, entries []domain.PickEntry) error {
	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.GameID
	}

	flags, err := s.schedule.TieFlags(ctx, s.db, ids)
	if err != nil {
		return upstream("load games", err)
	}
	for _, e := range entries {
		tieAllowed, ok := flags[e.GameID]
		if !ok {
			return domain.ErrValidation("unknown game_id " + e.GameID.String())
		}
		if e.Prediction == domain.PredictionTie && !tieAllowed {
			return domain.ErrValidation("tie is not allowed for game " + e.GameID.String())
		}
	}
	return nil
}
