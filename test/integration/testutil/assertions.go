//go:build integration

package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
)

// DecodeJSON reads and decodes a JSON response body into dst.
func DecodeJSON(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
}

// AssertStatus checks that the response has the expected HTTP status code.
func AssertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

// AssertErrorCode checks the status and the {"error","code"} body.
func AssertErrorCode(t *testing.T, resp *http.Response, status int, expectedCode string) {
	t.Helper()
	AssertStatus(t, resp, status)
	var errResp struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	DecodeJSON(t, resp, &errResp)
	if errResp.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (error: %s)", expectedCode, errResp.Code, errResp.Error)
	}
}

// CountPicks returns the number of stored picks for a user in a pool.
func CountPicks(t *testing.T, env *TestEnv, userID, poolID uuid.UUID) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var count int
	err := env.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM picks WHERE user_id = $1 AND pool_id = $2", userID, poolID).Scan(&count)
	if err != nil {
		t.Fatalf("CountPicks: %v", err)
	}
	return count
}

// CountOutboxEvents returns the number of outbox rows of one event type.
func CountOutboxEvents(t *testing.T, env *TestEnv, eventType string) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var count int
	err := env.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM event_outbox WHERE event_type = $1", eventType).Scan(&count)
	if err != nil {
		t.Fatalf("CountOutboxEvents: %v", err)
	}
	return count
}
