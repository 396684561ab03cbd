//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/quiniela/platform/internal/domain"
	"github.com/quiniela/platform/test/integration/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listUsers(t *testing.T, env *testutil.TestEnv, token string) []domain.User {
	t.Helper()
	resp := env.GET("/admin/users", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result struct {
		Users []domain.User `json:"users"`
	}
	testutil.DecodeJSON(t, resp, &result)
	return result.Users
}

func TestAdmin_RequiresAdminRole(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, userToken := env.UserWithToken("ana@x.com", "Ana", domain.RoleUser)

	for _, path := range []string{"/admin/users", "/admin/pools", "/admin/tables?name=users"} {
		resp := env.GET(path, "")
		testutil.AssertErrorCode(t, resp, http.StatusUnauthorized, "UNAUTHORIZED")

		resp = env.GET(path, userToken)
		testutil.AssertErrorCode(t, resp, http.StatusForbidden, "FORBIDDEN")
	}
}

func TestAdmin_UserLifecycle(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, admin := env.UserWithToken("boss@x.com", "Boss", domain.RoleAdmin)

	resp := env.POST("/admin/users", map[string]string{
		"email": "ana@x.com", "password": "secret1", "name": "Ana", "role": "user",
	}, admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var created struct {
		OK bool      `json:"ok"`
		ID uuid.UUID `json:"id"`
	}
	testutil.DecodeJSON(t, resp, &created)
	assert.True(t, created.OK)

	var found *domain.User
	for _, u := range listUsers(t, env, admin) {
		if u.ID == created.ID {
			u := u
			found = &u
		}
	}
	require.NotNil(t, found, "created user missing from list")
	assert.Equal(t, "Ana", found.Name)
	assert.Equal(t, domain.RoleUser, found.Role)

	anaToken := env.Login("ana@x.com", "secret1")
	assert.NotEmpty(t, anaToken)

	resp = env.DELETE("/admin/users", map[string]string{"id": created.ID.String()}, admin)
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	for _, u := range listUsers(t, env, admin) {
		assert.NotEqual(t, created.ID, u.ID)
	}

	resp = env.POST("/auth/login", map[string]string{"email": "ana@x.com", "password": "secret1"}, "")
	testutil.AssertErrorCode(t, resp, http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestAdmin_CreateUserValidation(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, admin := env.UserWithToken("boss@x.com", "Boss", domain.RoleAdmin)

	resp := env.POST("/admin/users", map[string]string{"email": "ana@x.com"}, admin)
	testutil.AssertErrorCode(t, resp, http.StatusBadRequest, "VALIDATION_ERROR")

	resp = env.POST("/admin/users", map[string]string{
		"email": "ana@x.com", "password": "secret1", "name": "Ana", "role": "owner",
	}, admin)
	testutil.AssertErrorCode(t, resp, http.StatusBadRequest, "VALIDATION_ERROR")

	resp = env.POST("/admin/users", map[string]string{
		"email": "boss@x.com", "password": "secret1", "name": "Dup", "role": "user",
	}, admin)
	testutil.AssertErrorCode(t, resp, http.StatusConflict, "CONFLICT")
}

func TestAdmin_UpdateUser(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, admin := env.UserWithToken("boss@x.com", "Boss", domain.RoleAdmin)
	ana := env.CreateUser("ana@x.com", "secret1", "Ana", domain.RoleUser)

	resp := env.PUT("/admin/users", map[string]string{"id": ana.ID.String(), "name": "Ana Maria", "role": "admin"}, admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result struct {
		User domain.User `json:"user"`
	}
	testutil.DecodeJSON(t, resp, &result)
	assert.Equal(t, "Ana Maria", result.User.Name)
	assert.Equal(t, domain.RoleAdmin, result.User.Role)
	assert.Equal(t, "ana@x.com", result.User.Email)

	resp = env.PUT("/admin/users", map[string]string{"id": uuid.NewString(), "name": "x"}, admin)
	testutil.AssertErrorCode(t, resp, http.StatusNotFound, "NOT_FOUND")
}

func TestAdmin_DeleteUnknownUser(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, admin := env.UserWithToken("boss@x.com", "Boss", domain.RoleAdmin)

	resp := env.DELETE("/admin/users", map[string]string{"id": uuid.NewString()}, admin)
	testutil.AssertErrorCode(t, resp, http.StatusNotFound, "NOT_FOUND")
}

func TestAdmin_PoolLifecycle(t *testing.T) {
	env := testutil.NewTestEnv(t)
	s := env.SeedSchedule(2024)
	_, admin := env.UserWithToken("boss@x.com", "Boss", domain.RoleAdmin)

	resp := env.POST("/admin/pools", map[string]string{"name": "Office", "season_id": s.SeasonID.String()}, admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var created struct {
		OK   bool        `json:"ok"`
		Pool domain.Pool `json:"pool"`
	}
	testutil.DecodeJSON(t, resp, &created)
	require.NotNil(t, created.Pool.SeasonID)
	assert.Equal(t, s.SeasonID, *created.Pool.SeasonID)

	resp = env.PUT("/admin/pools", map[string]string{"id": created.Pool.ID.String(), "name": "Office 2024"}, admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated struct {
		Pool domain.Pool `json:"pool"`
	}
	testutil.DecodeJSON(t, resp, &updated)
	assert.Equal(t, "Office 2024", updated.Pool.Name)
	assert.False(t, updated.Pool.CreatedAt.IsZero())
	assert.True(t, created.Pool.CreatedAt.Equal(updated.Pool.CreatedAt))

	resp = env.GET("/admin/pools", admin)
	var list struct {
		Pools []domain.Pool `json:"pools"`
	}
	testutil.DecodeJSON(t, resp, &list)
	require.Len(t, list.Pools, 1)

	resp = env.DELETE("/admin/pools", map[string]string{"id": created.Pool.ID.String()}, admin)
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = env.GET("/admin/pools", admin)
	testutil.DecodeJSON(t, resp, &list)
	assert.Empty(t, list.Pools)
}

func TestAdmin_CreatePoolValidation(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, admin := env.UserWithToken("boss@x.com", "Boss", domain.RoleAdmin)

	resp := env.POST("/admin/pools", map[string]string{"name": ""}, admin)
	testutil.AssertErrorCode(t, resp, http.StatusBadRequest, "VALIDATION_ERROR")

	resp = env.POST("/admin/pools", map[string]string{"name": "Office", "season_id": uuid.NewString()}, admin)
	testutil.AssertErrorCode(t, resp, http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestAdmin_TablePeek(t *testing.T) {
	env := testutil.NewTestEnv(t)
	s := env.SeedSchedule(2024)
	_, admin := env.UserWithToken("boss@x.com", "Boss", domain.RoleAdmin)

	resp := env.GET("/admin/tables?name=seasons", admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result struct {
		Table string                   `json:"table"`
		Data  []map[string]interface{} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	assert.Equal(t, "seasons", result.Table)
	require.Len(t, result.Data, 1)
	assert.Equal(t, s.SeasonID.String(), result.Data[0]["id"])

	resp = env.GET("/admin/tables?name=auth_users", admin)
	testutil.AssertErrorCode(t, resp, http.StatusBadRequest, "VALIDATION_ERROR")
}
