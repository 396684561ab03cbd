package guard

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/quiniela/platform/internal/domain"
	"github.com/quiniela/platform/internal/repository"
)

const (
	MaxAttempts   = 5
	LockoutWindow = 15 * time.Minute
)

// Lockout tracks login attempts in login_attempts.
type Lockout struct {
	db     repository.DBTX
	logger *slog.Logger
	now    func() time.Time
}

// NewLockout creates a Lockout.
func NewLockout(db repository.DBTX, logger *slog.Logger) *Lockout {
	return &Lockout{db: db, logger: logger, now: time.Now}
}

// RecordAttempt inserts a login attempt row. Failures are logged, not returned.
func (l *Lockout) RecordAttempt(ctx context.Context, email, ip string, success bool) {
	_, err := l.db.Exec(ctx, `
		INSERT INTO login_attempts (email, ip_address, success)
		VALUES ($1, $2, $3)`,
		strings.ToLower(email), ip, success)
	if err != nil {
		l.logger.Warn("record login attempt failed", "email", email, "error", err)
	}
}

// CheckLocked returns a TooManyRequests error if the account has >= MaxAttempts
// failed logins within the lockout window.
func (l *Lockout) CheckLocked(ctx context.Context, email string) error {
	var count int
	err := l.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM login_attempts
		WHERE email = $1 AND success = false
		  AND created_at > $2`,
		strings.ToLower(email), l.now().Add(-LockoutWindow)).Scan(&count)
	if err != nil {
		// fail open on DB error
		l.logger.Warn("lockout check failed", "email", email, "error", err)
		return nil
	}
	if count >= MaxAttempts {
		return domain.ErrTooManyRequests("too many failed login attempts, try again later")
	}
	return nil
}
