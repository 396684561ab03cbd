//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/quiniela/platform/internal/domain"
	"github.com/quiniela/platform/test/integration/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	env := testutil.NewTestEnv(t)
	resp := env.GET("/health", "")
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}

func TestLogin_Success(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.CreateUser("ana@x.com", "secret1", "Ana", domain.RoleUser)

	resp := env.POST("/auth/login", map[string]string{"email": "ana@x.com", "password": "secret1"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Token string      `json:"token"`
		User  domain.User `json:"user"`
	}
	testutil.DecodeJSON(t, resp, &result)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "Ana", result.User.Name)
	assert.Equal(t, domain.RoleUser, result.User.Role)
}

func TestLogin_WrongPassword(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.CreateUser("ana@x.com", "secret1", "Ana", domain.RoleUser)

	resp := env.POST("/auth/login", map[string]string{"email": "ana@x.com", "password": "nope123"}, "")
	testutil.AssertErrorCode(t, resp, http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestMe_ReturnsCaller(t *testing.T) {
	env := testutil.NewTestEnv(t)
	user, token := env.UserWithToken("ana@x.com", "Ana", domain.RoleUser)

	resp := env.GET("/identity/me", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		User domain.User `json:"user"`
	}
	testutil.DecodeJSON(t, resp, &result)
	assert.Equal(t, user.ID, result.User.ID)
	assert.Equal(t, "ana@x.com", result.User.Email)
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	env := testutil.NewTestEnv(t)

	for _, path := range []string{"/identity/me", "/pools/mine", "/schedule", "/seasons", "/picks/by_user?pool_id=x"} {
		resp := env.GET(path, "")
		testutil.AssertErrorCode(t, resp, http.StatusUnauthorized, "UNAUTHORIZED")
	}
}

func TestProtectedRoutes_RejectGarbageToken(t *testing.T) {
	env := testutil.NewTestEnv(t)
	resp := env.GET("/identity/me", "not-a-jwt")
	testutil.AssertErrorCode(t, resp, http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestTokenWithoutUserRow_IsNotFound(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, err := env.Provider.CreateCredential(t.Context(), "ghost@x.com", "secret1")
	require.NoError(t, err)
	sess, err := env.Provider.SignIn(t.Context(), "ghost@x.com", "secret1")
	require.NoError(t, err)

	resp := env.GET("/identity/me", sess.AccessToken)
	testutil.AssertErrorCode(t, resp, http.StatusNotFound, "NOT_FOUND")

	resp = env.POST("/auth/login", map[string]string{"email": "ghost@x.com", "password": "secret1"}, "")
	testutil.AssertErrorCode(t, resp, http.StatusNotFound, "NOT_FOUND")
}
