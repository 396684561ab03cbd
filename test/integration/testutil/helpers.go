//go:build integration

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/quiniela/platform/internal/domain"
	"github.com/quiniela/platform/internal/repository"
)

// Do performs a request with an optional JSON body and bearer token.
func (env *TestEnv) Do(method, path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			env.t.Fatalf("%s %s: encode: %v", method, path, err)
		}
	}
	req, err := http.NewRequest(method, env.Server.URL+path, &buf)
	if err != nil {
		env.t.Fatalf("%s %s: new request: %v", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

// GET performs a GET request with an optional token.
func (env *TestEnv) GET(path, token string) *http.Response {
	env.t.Helper()
	return env.Do(http.MethodGet, path, nil, token)
}

// POST performs a POST request with an optional token.
func (env *TestEnv) POST(path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	return env.Do(http.MethodPost, path, body, token)
}

// PUT performs a PUT request with an optional token.
func (env *TestEnv) PUT(path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	return env.Do(http.MethodPut, path, body, token)
}

// DELETE performs a DELETE request with a JSON body.
func (env *TestEnv) DELETE(path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	return env.Do(http.MethodDelete, path, body, token)
}

// CreateUser provisions a credential and a users row directly, bypassing the
// admin API.
func (env *TestEnv) CreateUser(email, password, name, role string) *domain.User {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	authID, err := env.Provider.CreateCredential(ctx, email, password)
	if err != nil {
		env.t.Fatalf("CreateUser: credential: %v", err)
	}
	user := &domain.User{AuthID: authID, Email: email, Name: name, Role: role}
	if err := repository.NewPgUserRepository().Create(ctx, env.Pool, user); err != nil {
		env.t.Fatalf("CreateUser: insert: %v", err)
	}
	return user
}

// Login signs in through the API and returns the bearer token.
func (env *TestEnv) Login(email, password string) string {
	env.t.Helper()
	resp := env.POST("/auth/login", map[string]string{"email": email, "password": password}, "")
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		env.t.Fatalf("Login %s: expected 200, got %d", email, resp.StatusCode)
	}
	var result struct {
		Token string `json:"token"`
	}
	DecodeJSON(env.t, resp, &result)
	return result.Token
}

// UserWithToken creates a user and logs them in.
func (env *TestEnv) UserWithToken(email, name, role string) (*domain.User, string) {
	env.t.Helper()
	const password = "secret123"
	user := env.CreateUser(email, password, name, role)
	return user, env.Login(email, password)
}

// Seeded is a season with one week and two games. TieGame allows a tie;
// NoTieGame does not.
type Seeded struct {
	SeasonID  uuid.UUID
	WeekID    uuid.UUID
	TieGame   uuid.UUID
	NoTieGame uuid.UUID
}

// SeedSchedule inserts a season, a week, three teams and two games.
func (env *TestEnv) SeedSchedule(year int) Seeded {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var s Seeded
	err := env.Pool.QueryRow(ctx,
		"INSERT INTO seasons (year, label) VALUES ($1, $2) RETURNING id",
		year, fmt.Sprintf("NFL %d", year)).Scan(&s.SeasonID)
	if err != nil {
		env.t.Fatalf("SeedSchedule: season: %v", err)
	}
	err = env.Pool.QueryRow(ctx,
		"INSERT INTO weeks (season_id, week_number) VALUES ($1, 1) RETURNING id", s.SeasonID).Scan(&s.WeekID)
	if err != nil {
		env.t.Fatalf("SeedSchedule: week: %v", err)
	}

	teams := make([]uuid.UUID, 3)
	for i, short := range []string{"KC", "BUF", "PHI"} {
		err = env.Pool.QueryRow(ctx,
			"INSERT INTO teams (name, short_name) VALUES ($1, $2) RETURNING id",
			short+" team", fmt.Sprintf("%s%d", short, year)).Scan(&teams[i])
		if err != nil {
			env.t.Fatalf("SeedSchedule: team: %v", err)
		}
	}

	kickoff := time.Date(year, time.September, 7, 20, 0, 0, 0, time.UTC)
	insertGame := `INSERT INTO games (week_id, home_team_id, away_team_id, kickoff_at, tie_allowed)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := env.Pool.QueryRow(ctx, insertGame, s.WeekID, teams[0], teams[1], kickoff, true).Scan(&s.TieGame); err != nil {
		env.t.Fatalf("SeedSchedule: game: %v", err)
	}
	if err := env.Pool.QueryRow(ctx, insertGame, s.WeekID, teams[2], teams[0], kickoff.Add(3*time.Hour), false).Scan(&s.NoTieGame); err != nil {
		env.t.Fatalf("SeedSchedule: game: %v", err)
	}
	return s
}

// SeedPool inserts a pool bound to seasonID.
func (env *TestEnv) SeedPool(name string, seasonID uuid.UUID) uuid.UUID {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var id uuid.UUID
	err := env.Pool.QueryRow(ctx,
		"INSERT INTO pools (name, season_id) VALUES ($1, $2) RETURNING id", name, seasonID).Scan(&id)
	if err != nil {
		env.t.Fatalf("SeedPool: %v", err)
	}
	return id
}
