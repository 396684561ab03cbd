package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/quiniela/platform/internal/domain"
	"github.com/quiniela/platform/internal/identity"
	"github.com/quiniela/platform/internal/repository"
)

// CreateUserInput holds the admin create-user request fields.
type CreateUserInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// UpdateUserInput holds the admin update-user request fields. Nil fields are left unchanged.
type UpdateUserInput struct {
	ID    string  `json:"id"`
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Role  *string `json:"role"`
}

// UserAdminService implements admin CRUD over users.
type UserAdminService struct {
	db       repository.DBTX
	provider identity.Provider
	users    repository.UserRepository
	logger   *slog.Logger
}

// NewUserAdminService creates a new UserAdminService.
func NewUserAdminService(db repository.DBTX, provider identity.Provider, users repository.UserRepository, logger *slog.Logger) *UserAdminService {
	return &UserAdminService{db: db, provider: provider, users: users, logger: logger}
}

// List returns all users.
func (s *UserAdminService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx, s.db)
	if err != nil {
		return nil, upstream("list users", err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// Create provisions a credential and then the profile row. If the profile
// write fails the credential is deleted again.
func (s *UserAdminService) Create(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if in.Email == "" || in.Password == "" || in.Name == "" {
		return nil, domain.ErrValidation("email, password and name are required")
	}
	if in.Role == "" {
		in.Role = domain.RoleUser
	}
	if err := domain.ValidateRole(in.Role); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if err := domain.ValidateEmail(in.Email); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if err := domain.ValidatePassword(in.Password); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	authID, err := s.provider.CreateCredential(ctx, in.Email, in.Password)
	if err != nil {
		if errors.Is(err, identity.ErrCredentialExists) {
			return nil, domain.ErrConflict("email already registered")
		}
		return nil, domain.ErrUpstream("create credential", err)
	}

	user := &domain.User{AuthID: authID, Email: in.Email, Name: in.Name, Role: in.Role}
	if err := s.users.Create(ctx, s.db, user); err != nil {
		if delErr := s.provider.DeleteCredential(ctx, authID); delErr != nil {
			s.logger.Warn("orphaned credential after failed profile write",
				"auth_id", authID, "email", in.Email, "error", delErr)
		}
		return nil, upstream("create user profile", err)
	}

	s.logger.Info("user created", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Update modifies name, email or role. Email changes are not pushed to the
// identity provider.
func (s *UserAdminService) Update(ctx context.Context, in UpdateUserInput) (*domain.User, error) {
	id, err := domain.ParseID("id", in.ID)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, upstream("find user", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound("user", id.String())
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.ErrValidation("name must not be empty")
		}
		user.Name = name
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if err := domain.ValidateEmail(email); err != nil {
			return nil, domain.ErrValidation(err.Error())
		}
		user.Email = email
	}
	if in.Role != nil {
		if err := domain.ValidateRole(*in.Role); err != nil {
			return nil, domain.ErrValidation(err.Error())
		}
		user.Role = *in.Role
	}

	ok, err := s.users.Update(ctx, s.db, user)
	if err != nil {
		return nil, upstream("update user", err)
	}
	if !ok {
		return nil, domain.ErrNotFound("user", id.String())
	}
	return user, nil
}

// Delete removes the profile row, then deletes the credential on a
// best-effort basis. A credential failure is logged and not returned.
func (s *UserAdminService) Delete(ctx context.Context, rawID string) error {
	id, err := domain.ParseID("id", rawID)
	if err != nil {
		return err
	}

	deleted, err := s.users.Delete(ctx, s.db, id)
	if err != nil {
		return upstream("delete user", err)
	}
	if deleted == nil {
		return domain.ErrNotFound("user", id.String())
	}

	if err := s.provider.DeleteCredential(ctx, deleted.AuthID); err != nil && !errors.Is(err, identity.ErrCredentialNotFound) {
		s.logger.Warn("credential delete failed after user delete",
			"user_id", deleted.ID, "auth_id", deleted.AuthID, "error", err)
	}

	s.logger.Info("user deleted", "user_id", deleted.ID)
	return nil
}
