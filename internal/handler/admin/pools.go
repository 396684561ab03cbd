package admin

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/quiniela/platform/internal/domain"
	"github.com/quiniela/platform/internal/handler"
	"github.com/quiniela/platform/internal/service"
)

// PoolService is the subset of service.PoolAdminService used here.
type PoolService interface {
	List(ctx context.Context) ([]domain.Pool, error)
	Create(ctx context.Context, in service.CreatePoolInput) (*domain.Pool, error)
	Update(ctx context.Context, in service.UpdatePoolInput) (*domain.Pool, error)
	Delete(ctx context.Context, rawID string) error
}

// PoolAdminHandler handles admin pool management.
type PoolAdminHandler struct {
	pools  PoolService
	logger *slog.Logger
}

// NewPoolAdminHandler creates a new PoolAdminHandler.
func NewPoolAdminHandler(pools PoolService, logger *slog.Logger) *PoolAdminHandler {
	return &PoolAdminHandler{pools: pools, logger: logger}
}

// List handles GET /admin/pools.
func (h *PoolAdminHandler) List(w http.ResponseWriter, r *http.Request) {
	pools, err := h.pools.List(r.Context())
	if err != nil {
		handler.WriteError(h.logger, w, r, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, map[string]interface{}{"pools": pools})
}

// Create handles POST /admin/pools.
func (h *PoolAdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CreatePoolInput
	if err := handler.DecodeJSON(r, &in); err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	pool, err := h.pools.Create(r.Context(), in)
	if err != nil {
		handler.WriteError(h.logger, w, r, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "pool": pool})
}

// Update handles PUT /admin/pools.
func (h *PoolAdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in service.UpdatePoolInput
	if err := handler.DecodeJSON(r, &in); err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	pool, err := h.pools.Update(r.Context(), in)
	if err != nil {
		handler.WriteError(h.logger, w, r, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "pool": pool})
}

// Delete handles DELETE /admin/pools with body {"id": ...}.
func (h *PoolAdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	if err := h.pools.Delete(r.Context(), req.ID); err != nil {
		handler.WriteError(h.logger, w, r, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
