// Package guard holds request guards: per-key rate limiting, login lockout
// and a circuit breaker for upstream calls.
package guard

import "time"

// Result is the outcome of a guard check.
type Result struct {
	Allowed    bool          `json:"allowed"`
	Reason     string        `json:"reason,omitempty"`
	Guard      string        `json:"guard,omitempty"` // which guard blocked
	RetryAfter time.Duration `json:"-"`
}

func allow() Result { return Result{Allowed: true} }
