package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/quiniela/platform/internal/service"
)

// Authenticator is the subset of service.LoginService used here.
type Authenticator interface {
	Login(ctx context.Context, in service.LoginInput, ip string) (*service.LoginResult, error)
}

// AuthHandler handles the login endpoint.
type AuthHandler struct {
	login  Authenticator
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(login Authenticator, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{login: login, logger: logger}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input service.LoginInput
	if err := DecodeJSON(r, &input); err != nil {
		badBody(w)
		return
	}

	result, err := h.login.Login(r.Context(), input, ClientIP(r))
	if err != nil {
		WriteError(h.logger, w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, result)
}
