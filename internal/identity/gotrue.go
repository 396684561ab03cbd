package identity

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
)

// GoTrueConfig configures a GoTrue-compatible auth service client.
type GoTrueConfig struct {
	BaseURL    string
	AnonKey    string
	ServiceKey string
	Timeout    time.Duration
}

// GoTrueProvider talks to a hosted GoTrue auth API (/auth/v1).
type GoTrueProvider struct {
	cfg    GoTrueConfig
	client *http.Client
}

// NewGoTrueProvider creates a GoTrue provider.
func NewGoTrueProvider(cfg GoTrueConfig) *GoTrueProvider {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &GoTrueProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type gotrueUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type gotrueError struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
	Error   string `json:"error"`
	Desc    string `json:"error_description"`
}

func (e gotrueError) text() string {
	for _, s := range []string{e.Message, e.Desc, e.Error} {
		if s != "" {
			return s
		}
	}
	return "unknown error"
}

// ValidateToken resolves a bearer token via GET /auth/v1/user.
func (p *GoTrueProvider) ValidateToken(ctx context.Context, token string) (Subject, error) {
	var u gotrueUser
	status, err := p.do(ctx, http.MethodGet, "/auth/v1/user", p.cfg.AnonKey, token, nil, &u)
	if err != nil {
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return Subject{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		return Subject{}, err
	}
	if u.ID == "" {
		return Subject{}, ErrInvalidToken
	}
	return Subject{ID: u.ID, Email: u.Email}, nil
}

// SignIn performs a password grant via POST /auth/v1/token.
func (p *GoTrueProvider) SignIn(ctx context.Context, email, password string) (Session, error) {
	body := map[string]string{"email": email, "password": password}
	var resp struct {
		AccessToken string     `json:"access_token"`
		User        gotrueUser `json:"user"`
	}
	status, err := p.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", p.cfg.AnonKey, p.cfg.AnonKey, body, &resp)
	if err != nil {
		if status == http.StatusBadRequest || status == http.StatusUnauthorized {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	return Session{
		AccessToken: resp.AccessToken,
		Subject:     Subject{ID: resp.User.ID, Email: resp.User.Email},
	}, nil
}

// CreateCredential provisions a confirmed user via POST /auth/v1/admin/users.
func (p *GoTrueProvider) CreateCredential(ctx context.Context, email, password string) (string, error) {
	body := map[string]interface{}{
		"email":         email,
		"password":      password,
		"email_confirm": true,
	}
	var u gotrueUser
	status, err := p.do(ctx, http.MethodPost, "/auth/v1/admin/users", p.cfg.ServiceKey, p.cfg.ServiceKey, body, &u)
	if err != nil {
		if status == http.StatusUnprocessableEntity || status == http.StatusConflict {
			return "", fmt.Errorf("%w: %v", ErrCredentialExists, err)
		}
		return "", err
	}
	if u.ID == "" {
		return "", fmt.Errorf("gotrue: create user returned no id")
	}
	return u.ID, nil
}

// DeleteCredential removes a user via DELETE /auth/v1/admin/users/{id}.
func (p *GoTrueProvider) DeleteCredential(ctx context.Context, subjectID string) error {
	status, err := p.do(ctx, http.MethodDelete, "/auth/v1/admin/users/"+url.PathEscape(subjectID), p.cfg.ServiceKey, p.cfg.ServiceKey, nil, nil)
	if err != nil {
		if status == http.StatusNotFound {
			return ErrCredentialNotFound
		}
		return err
	}
	return nil
}

// FindSubjectByEmail pages through GET /auth/v1/admin/users.
func (p *GoTrueProvider) FindSubjectByEmail(ctx context.Context, email string) (string, error) {
	const perPage = 100
	for page := 1; ; page++ {
		var resp struct {
			Users []gotrueUser `json:"users"`
		}
		path := fmt.Sprintf("/auth/v1/admin/users?page=%d&per_page=%d", page, perPage)
		if _, err := p.do(ctx, http.MethodGet, path, p.cfg.ServiceKey, p.cfg.ServiceKey, nil, &resp); err != nil {
			return "", err
		}
		for _, u := range resp.Users {
			if strings.EqualFold(u.Email, email) {
				return u.ID, nil
			}
		}
		if len(resp.Users) < perPage {
			return "", ErrCredentialNotFound
		}
	}
}

// do sends a request with the apikey and bearer headers. The returned status
// is 0 when the request never produced a response.
func (p *GoTrueProvider) do(ctx context.Context, method, path, apiKey, bearer string, in, out interface{}) (int, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.cfg.BaseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", apiKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("gotrue %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var ge gotrueError
		_ = json.Unmarshal(respBody, &ge)
		return resp.StatusCode, fmt.Errorf("gotrue %s %s: status %d: %s", method, trimQuery(path), resp.StatusCode, ge.text())
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func trimQuery(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}
