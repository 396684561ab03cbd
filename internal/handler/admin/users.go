// Package admin serves the role-gated CRUD endpoints under /admin.
package admin

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/quiniela/platform/internal/domain"
	"github.com/quiniela/platform/internal/handler"
	"github.com/quiniela/platform/internal/service"
)

// UserService is the subset of service.UserAdminService used here.
type UserService interface {
	List(ctx context.Context) ([]domain.User, error)
	Create(ctx context.Context, in service.CreateUserInput) (*domain.User, error)
	Update(ctx context.Context, in service.UpdateUserInput) (*domain.User, error)
	Delete(ctx context.Context, rawID string) error
}

// UserAdminHandler handles admin user management.
type UserAdminHandler struct {
	users  UserService
	logger *slog.Logger
}

// NewUserAdminHandler creates a new UserAdminHandler.
func NewUserAdminHandler(users UserService, logger *slog.Logger) *UserAdminHandler {
	return &UserAdminHandler{users: users, logger: logger}
}

// List handles GET /admin/users.
func (h *UserAdminHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		handler.WriteError(h.logger, w, r, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

// Create handles POST /admin/users.
func (h *UserAdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CreateUserInput
	if err := handler.DecodeJSON(r, &in); err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	user, err := h.users.Create(r.Context(), in)
	if err != nil {
		handler.WriteError(h.logger, w, r, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "id": user.ID})
}

// Update handles PUT /admin/users.
func (h *UserAdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateUserInput
	if err := handler.DecodeJSON(r, &in); err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	user, err := h.users.Update(r.Context(), in)
	if err != nil {
		handler.WriteError(h.logger, w, r, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "user": user})
}

type deleteRequest struct {
	ID string `json:"id"`
}

// Delete handles DELETE /admin/users with body {"id": ...}.
func (h *UserAdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	if err := h.users.Delete(r.Context(), req.ID); err != nil {
		handler.WriteError(h.logger, w, r, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
