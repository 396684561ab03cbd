// Package client is a Go client for the quiniela HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/quiniela/platform/internal/domain"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api: %d: %s", e.Status, e.Message)
}

// Client calls the API on behalf of one bearer token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a client for baseURL. token may be empty until Login.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Token returns the bearer token in use.
func (c *Client) Token() string { return c.token }

// Login exchanges email and password for a token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.User, error) {
	var resp struct {
		Token string       `json:"token"`
		User  *domain.User `json:"user"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &resp); err != nil {
		return nil, err
	}
	c.token = resp.Token
	return resp.User, nil
}

// Me returns the caller's user row.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var resp struct {
		User *domain.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/identity/me", nil, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// MyPools lists the pools the caller belongs to.
func (c *Client) MyPools(ctx context.Context) ([]domain.PoolSummary, error) {
	var resp struct {
		Pools []domain.PoolSummary `json:"pools"`
	}
	if err := c.do(ctx, http.MethodGet, "/pools/mine", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Pools, nil
}

// Join joins a pool. alreadyMember is true when the call was a no-op.
func (c *Client) Join(ctx context.Context, poolID uuid.UUID) (alreadyMember bool, err error) {
	var resp struct {
		OK      bool   `json:"ok"`
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/pools/join", map[string]string{"pool_id": poolID.String()}, &resp); err != nil {
		return false, err
	}
	return resp.Message != "", nil
}

// Members lists a pool's members.
func (c *Client) Members(ctx context.Context, poolID uuid.UUID) ([]domain.PoolMember, error) {
	var resp struct {
		Members []domain.PoolMember `json:"members"`
	}
	if err := c.do(ctx, http.MethodGet, "/pools/"+poolID.String()+"/members", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Members, nil
}

// Seasons lists seasons, newest first.
func (c *Client) Seasons(ctx context.Context) ([]domain.Season, error) {
	var resp struct {
		Seasons []domain.Season `json:"seasons"`
	}
	if err := c.do(ctx, http.MethodGet, "/seasons", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Seasons, nil
}

// Schedule returns a season's games grouped by week. A nil seasonID selects
// the latest season.
func (c *Client) Schedule(ctx context.Context, seasonID *uuid.UUID) (*domain.Schedule, error) {
	path := "/schedule"
	if seasonID != nil {
		path += "?season_id=" + url.QueryEscape(seasonID.String())
	}
	var sched domain.Schedule
	if err := c.do(ctx, http.MethodGet, path, nil, &sched); err != nil {
		return nil, err
	}
	return &sched, nil
}

// Picks returns the caller's picks in a pool.
func (c *Client) Picks(ctx context.Context, poolID uuid.UUID) ([]domain.PickEntry, error) {
	var resp struct {
		Data []domain.PickEntry `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/picks/by_user?pool_id="+url.QueryEscape(poolID.String()), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// SavePick upserts one pick.
func (c *Client) SavePick(ctx context.Context, poolID, gameID uuid.UUID, p domain.Prediction) error {
	body := map[string]string{
		"pool_id":    poolID.String(),
		"game_id":    gameID.String(),
		"prediction": string(p),
	}
	return c.do(ctx, http.MethodPost, "/picks", body, nil)
}

// SavePicks upserts a batch of picks atomically.
func (c *Client) SavePicks(ctx context.Context, poolID uuid.UUID, picks []domain.PickEntry) error {
	body := map[string]interface{}{
		"pool_id": poolID.String(),
		"picks":   picks,
	}
	return c.do(ctx, http.MethodPost, "/picks/bulk", body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		_ = json.Unmarshal(respBody, &e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Code: e.Code, Message: e.Error}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
