//go:build integration

package testutil

import (
	"context"
	"time"
)

// CleanAll truncates every application table.
func (env *TestEnv) CleanAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tables := []string{
		"picks",
		"user_pools",
		"pools",
		"games",
		"weeks",
		"seasons",
		"teams",
		"users",
		"auth_users",
		"event_outbox",
		"login_attempts",
	}
	for _, table := range tables {
		_, _ = env.Pool.Exec(ctx, "TRUNCATE TABLE "+table+" CASCADE")
	}
}
