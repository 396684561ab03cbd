package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/quiniela/platform/internal/domain"
	"github.com/quiniela/platform/internal/repository"
)

// MembershipService handles pool joins and membership listings.
type MembershipService struct {
	db      repository.DBTX
	tx      repository.Transactor
	pools   repository.PoolRepository
	members repository.MembershipRepository
	outbox  repository.OutboxRepository
	logger  *slog.Logger
}

// NewMembershipService creates a new MembershipService.
func NewMembershipService(
	db repository.DBTX,
	tx repository.Transactor,
	pools repository.PoolRepository,
	members repository.MembershipRepository,
	outbox repository.OutboxRepository,
	logger *slog.Logger,
) *MembershipService {
	return &MembershipService{db: db, tx: tx, pools: pools, members: members, outbox: outbox, logger: logger}
}

// JoinResult reports whether the caller was already a member.
type JoinResult struct {
	AlreadyMember bool
}

// Join adds user to the pool. Joining a pool twice is a successful no-op; a
// racing insert that loses on the unique key is reported as already joined.
func (s *MembershipService) Join(ctx context.Context, user *domain.User, rawPoolID string) (JoinResult, error) {
	poolID, err := domain.ParseID("pool_id", rawPoolID)
	if err != nil {
		return JoinResult{}, err
	}

	pool, err := s.pools.FindByID(ctx, s.db, poolID)
	if err != nil {
		return JoinResult{}, upstream("find pool", err)
	}
	if pool == nil {
		return JoinResult{}, domain.ErrNotFound("pool", poolID.String())
	}

	exists, err := s.members.Exists(ctx, s.db, user.ID, poolID)
	if err != nil {
		return JoinResult{}, upstream("check membership", err)
	}
	if exists {
		return JoinResult{AlreadyMember: true}, nil
	}

	var inserted bool
	err = s.tx.InTx(ctx, func(tx repository.DBTX) error {
		var err error
		inserted, err = s.members.Insert(ctx, tx, user.ID, poolID)
		if err != nil || !inserted {
			return err
		}

		draft, err := domain.NewOutboxDraft(domain.AggregatePool, poolID.String(), domain.EventPoolMemberJoined,
			map[string]string{"pool_id": poolID.String(), "user_id": user.ID.String()})
		if err != nil {
			return err
		}
		return s.outbox.Insert(ctx, tx, draft)
	})
	if err != nil {
		return JoinResult{}, upstream("insert membership", err)
	}

	if !inserted {
		s.logger.Info("concurrent join resolved by unique key", "user_id", user.ID, "pool_id", poolID)
		return JoinResult{AlreadyMember: true}, nil
	}

	s.logger.Info("user joined pool", "user_id", user.ID, "pool_id", poolID)
	return JoinResult{}, nil
}

// ListMine returns the pools the user belongs to.
func (s *MembershipService) ListMine(ctx context.Context, user *domain.User) ([]domain.PoolSummary, error) {
	pools, err := s.members.ListPoolsForUser(ctx, s.db, user.ID)
	if err != nil {
		return nil, upstream("list pools", err)
	}
	if pools == nil {
		pools = []domain.PoolSummary{}
	}
	return pools, nil
}

// Members lists a pool's members. Only members and admins may see the list.
func (s *MembershipService) Members(ctx context.Context, user *domain.User, poolID uuid.UUID) ([]domain.PoolMember, error) {
	pool, err := s.pools.FindByID(ctx, s.db, poolID)
	if err != nil {
		return nil, upstream("find pool", err)
	}
	if pool == nil {
		return nil, domain.ErrNotFound("pool", poolID.String())
	}

	if !user.IsAdmin() {
		ok, err := s.members.Exists(ctx, s.db, user.ID, poolID)
		if err != nil {
			return nil, upstream("check membership", err)
		}
		if !ok {
			return nil, domain.ErrForbidden("not a member of this pool")
		}
	}

	members, err := s.members.ListMembers(ctx, s.db, poolID)
	if err != nil {
		return nil, upstream("list members", err)
	}
	if members == nil {
		members = []domain.PoolMember{}
	}
	return members, nil
}
