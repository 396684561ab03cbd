package handler

import (
	"net/http"

	"github.com/quiniela/platform/internal/auth"
	"github.com/quiniela/platform/internal/domain"
)

// IdentityHandler reports the resolved caller.
type IdentityHandler struct{}

// NewIdentityHandler creates a new IdentityHandler.
func NewIdentityHandler() *IdentityHandler {
	return &IdentityHandler{}
}

// Me handles GET /identity/me.
func (h *IdentityHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		RespondError(w, domain.ErrUnauthorized("not authenticated"))
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}
