package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/quiniela/platform/internal/domain"
	"github.com/quiniela/platform/internal/identity"
	"github.com/quiniela/platform/internal/repository"
)

// BootstrapAdmin holds the bootstrap admin account settings.
type BootstrapAdmin struct {
	Email    string
	Password string
	Name     string
}

// EnsureAdmin provisions the bootstrap credential when absent and upserts an
// admin users row keyed on its subject. Safe to run on every start.
func EnsureAdmin(ctx context.Context, db repository.DBTX, provider identity.Provider, users repository.UserRepository, admin BootstrapAdmin, logger *slog.Logger) (*domain.User, error) {
	if err := domain.ValidateEmail(admin.Email); err != nil {
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}
	if admin.Name == "" {
		admin.Name = "admin"
	}

	authID, err := provider.FindSubjectByEmail(ctx, admin.Email)
	switch {
	case errors.Is(err, identity.ErrCredentialNotFound):
		authID, err = provider.CreateCredential(ctx, admin.Email, admin.Password)
		if err != nil {
			return nil, fmt.Errorf("bootstrap admin: create credential: %w", err)
		}
		logger.Info("bootstrap admin credential created", "email", admin.Email)
	case err != nil:
		return nil, fmt.Errorf("bootstrap admin: find credential: %w", err)
	}

	user := &domain.User{AuthID: authID, Email: admin.Email, Name: admin.Name, Role: domain.RoleAdmin}
	if err := users.UpsertByAuthID(ctx, db, user); err != nil {
		return nil, fmt.Errorf("bootstrap admin: upsert user: %w", err)
	}

	logger.Info("bootstrap admin ready", "user_id", user.ID, "email", admin.Email)
	return user, nil
}
