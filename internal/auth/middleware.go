package auth

import (
	"context"
	"net/http"

	"github.com/quiniela/platform/internal/domain"
)

type contextKey string

const userKey contextKey = "auth_user"

// ErrorWriter renders a resolution failure. Handlers pass their own so the
// status mapping stays in one place.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// UserFromContext extracts the resolved user from request context.
func UserFromContext(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userKey).(*domain.User)
	return user
}

// WithUser stores a resolved user in ctx.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// Authenticate returns middleware that resolves the caller and stores it in context.
func Authenticate(g *Guard, onErr ErrorWriter) func(http.Handler) http.Handler {
	return middleware(g.Resolve, onErr)
}

// RequireAdmin returns middleware that resolves the caller and requires role admin.
func RequireAdmin(g *Guard, onErr ErrorWriter) func(http.Handler) http.Handler {
	return middleware(g.ResolveAdmin, onErr)
}

func middleware(resolve func(*http.Request) (*domain.User, error), onErr ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := resolve(r)
			if err != nil {
				onErr(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}
