package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/quiniela/platform/internal/auth"
	"github.com/quiniela/platform/internal/domain"
	"github.com/quiniela/platform/internal/service"
)

// MembershipService is the subset of service.MembershipService used here.
type MembershipService interface {
	Join(ctx context.Context, user *domain.User, rawPoolID string) (service.JoinResult, error)
	ListMine(ctx context.Context, user *domain.User) ([]domain.PoolSummary, error)
	Members(ctx context.Context, user *domain.User, poolID uuid.UUID) ([]domain.PoolMember, error)
}

// Resolver resolves the caller of a request. *auth.Guard implements it.
type Resolver interface {
	Resolve(r *http.Request) (*domain.User, error)
}

// PoolHandler serves the caller's pool memberships.
type PoolHandler struct {
	members  MembershipService
	resolver Resolver
	logger   *slog.Logger
}

// NewPoolHandler creates a new PoolHandler.
func NewPoolHandler(members MembershipService, resolver Resolver, logger *slog.Logger) *PoolHandler {
	return &PoolHandler{members: members, resolver: resolver, logger: logger}
}

// Mine handles GET /pools/mine.
func (h *PoolHandler) Mine(w http.ResponseWriter, r *http.Request) {
	pools, err := h.members.ListMine(r.Context(), auth.UserFromContext(r.Context()))
	if err != nil {
		WriteError(h.logger, w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"pools": pools})
}

type joinRequest struct {
	PoolID string `json:"pool_id"`
}

// Join handles POST /pools/join. The route is mounted outside the
// authenticated group and resolves the caller itself.
func (h *PoolHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := DecodeJSON(r, &req); err != nil {
		badBody(w)
		return
	}
	if req.PoolID == "" {
		RespondError(w, domain.ErrValidation("pool_id is required"))
		return
	}

	user, err := h.resolver.Resolve(r)
	if err != nil {
		WriteError(h.logger, w, r, err)
		return
	}

	res, err := h.members.Join(r.Context(), user, req.PoolID)
	if err != nil {
		WriteError(h.logger, w, r, err)
		return
	}
	if res.AlreadyMember {
		RespondJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "message": "already a member"})
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

// Members handles GET /pools/{id}/members.
func (h *PoolHandler) Members(w http.ResponseWriter, r *http.Request) {
	poolID, err := domain.ParseID("pool id", chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, err)
		return
	}

	members, err := h.members.Members(r.Context(), auth.UserFromContext(r.Context()), poolID)
	if err != nil {
		WriteError(h.logger, w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"members": members})
}
