package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/quiniela/platform/internal/domain"
	"github.com/quiniela/platform/internal/identity"
	"github.com/quiniela/platform/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	identity.Provider
	subjects map[string]identity.Subject
	err      error
}

func (p *stubProvider) ValidateToken(_ context.Context, token string) (identity.Subject, error) {
	if p.err != nil {
		return identity.Subject{}, p.err
	}
	sub, ok := p.subjects[token]
	if !ok {
		return identity.Subject{}, identity.ErrInvalidToken
	}
	return sub, nil
}

type stubUsers struct {
	repository.UserRepository
	byAuth map[string]*domain.User
	err    error
}

func (s *stubUsers) FindByAuthID(_ context.Context, _ repository.DBTX, authID string) (*domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.byAuth[authID], nil
}

var (
	adminUser = &domain.User{ID: uuid.New(), AuthID: "sub-admin", Email: "admin@x.com", Name: "Admin", Role: domain.RoleAdmin}
	plainUser = &domain.User{ID: uuid.New(), AuthID: "sub-ana", Email: "ana@x.com", Name: "Ana", Role: domain.RoleUser}
)

func newTestGuard() *Guard {
	provider := &stubProvider{subjects: map[string]identity.Subject{
		"admin-token":  {ID: "sub-admin"},
		"ana-token":    {ID: "sub-ana"},
		"orphan-token": {ID: "sub-orphan"},
		"empty-token":  {},
	}}
	users := &stubUsers{byAuth: map[string]*domain.User{
		"sub-admin": adminUser,
		"sub-ana":   plainUser,
	}}
	return NewGuard(nil, provider, users)
}

func requestWith(header string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		r.Header.Set("Authorization", header)
	}
	return r
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"BEARER  abc ", "abc", true},
		{"", "", false},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"Bearer ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, ok := BearerToken(requestWith(tt.header))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve(t *testing.T) {
	g := newTestGuard()

	tests := []struct {
		name     string
		header   string
		wantUser *domain.User
		wantKind domain.Kind
	}{
		{"missing header", "", nil, domain.KindUnauthorized},
		{"wrong scheme", "Token ana-token", nil, domain.KindUnauthorized},
		{"invalid token", "Bearer nope", nil, domain.KindUnauthorized},
		{"no subject", "Bearer empty-token", nil, domain.KindUnauthorized},
		{"unknown identity", "Bearer orphan-token", nil, domain.KindNotFound},
		{"user", "Bearer ana-token", plainUser, 0},
		{"admin", "Bearer admin-token", adminUser, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := g.Resolve(requestWith(tt.header))
			if tt.wantUser == nil {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, domain.KindOf(err))
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUser.ID, user.ID)
		})
	}
}

func TestResolve_ProviderFailureIsUpstream(t *testing.T) {
	g := NewGuard(nil, &stubProvider{err: errors.New("dial tcp: refused")}, &stubUsers{})
	_, err := g.Resolve(requestWith("Bearer x"))
	assert.Equal(t, domain.KindUpstream, domain.KindOf(err))
}

func TestResolve_StoreFailureIsUpstream(t *testing.T) {
	provider := &stubProvider{subjects: map[string]identity.Subject{"t": {ID: "s"}}}
	g := NewGuard(nil, provider, &stubUsers{err: errors.New("conn reset")})
	_, err := g.Resolve(requestWith("Bearer t"))
	assert.Equal(t, domain.KindUpstream, domain.KindOf(err))
}

func TestResolveAdmin(t *testing.T) {
	g := newTestGuard()

	user, err := g.ResolveAdmin(requestWith("Bearer admin-token"))
	require.NoError(t, err)
	assert.True(t, user.IsAdmin())

	_, err = g.ResolveAdmin(requestWith("Bearer ana-token"))
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	_, err = g.ResolveAdmin(requestWith(""))
	assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
}

func TestMiddleware(t *testing.T) {
	g := newTestGuard()
	var gotErr error
	onErr := func(w http.ResponseWriter, r *http.Request, err error) {
		gotErr = err
		w.WriteHeader(http.StatusTeapot)
	}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := UserFromContext(r.Context())
		require.NotNil(t, u)
		_, _ = w.Write([]byte(u.Name))
	})

	t.Run("authenticate passes user through", func(t *testing.T) {
		rec := httptest.NewRecorder()
		Authenticate(g, onErr)(next).ServeHTTP(rec, requestWith("Bearer ana-token"))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Ana", rec.Body.String())
	})

	t.Run("require admin rejects user", func(t *testing.T) {
		gotErr = nil
		rec := httptest.NewRecorder()
		RequireAdmin(g, onErr)(next).ServeHTTP(rec, requestWith("Bearer ana-token"))
		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Equal(t, domain.KindForbidden, domain.KindOf(gotErr))
	})
}
