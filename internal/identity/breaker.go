package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/quiniela/platform/internal/guard"
)

// ErrUnavailable is returned while the provider circuit is open.
var ErrUnavailable = errors.New("identity provider unavailable")

const breakerKey = "identity"

// BreakerProvider wraps a Provider with a circuit breaker. Only transport and
// server failures count against the circuit; rejected tokens or passwords do not.
type BreakerProvider struct {
	next    Provider
	breaker *guard.CircuitBreaker
}

// WithCircuitBreaker wraps p.
func WithCircuitBreaker(p Provider, cb *guard.CircuitBreaker) *BreakerProvider {
	return &BreakerProvider{next: p, breaker: cb}
}

func (b *BreakerProvider) allow(ctx context.Context) error {
	if res := b.breaker.Check(ctx, breakerKey); !res.Allowed {
		return fmt.Errorf("%w: %s", ErrUnavailable, res.Reason)
	}
	return nil
}

func (b *BreakerProvider) record(err error) {
	switch {
	case err == nil,
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrCredentialExists),
		errors.Is(err, ErrCredentialNotFound),
		errors.Is(err, context.Canceled):
		b.breaker.RecordSuccess(breakerKey)
	default:
		b.breaker.RecordFailure(breakerKey)
	}
}

func (b *BreakerProvider) ValidateToken(ctx context.Context, token string) (Subject, error) {
	if err := b.allow(ctx); err != nil {
		return Subject{}, err
	}
	sub, err := b.next.ValidateToken(ctx, token)
	b.record(err)
	return sub, err
}

func (b *BreakerProvider) SignIn(ctx context.Context, email, password string) (Session, error) {
	if err := b.allow(ctx); err != nil {
		return Session{}, err
	}
	sess, err := b.next.SignIn(ctx, email, password)
	b.record(err)
	return sess, err
}

func (b *BreakerProvider) CreateCredential(ctx context.Context, email, password string) (string, error) {
	if err := b.allow(ctx); err != nil {
		return "", err
	}
	id, err := b.next.CreateCredential(ctx, email, password)
	b.record(err)
	return id, err
}

func (b *BreakerProvider) DeleteCredential(ctx context.Context, subjectID string) error {
	if err := b.allow(ctx); err != nil {
		return err
	}
	err := b.next.DeleteCredential(ctx, subjectID)
	b.record(err)
	return err
}

func (b *BreakerProvider) FindSubjectByEmail(ctx context.Context, email string) (string, error) {
	if err := b.allow(ctx); err != nil {
		return "", err
	}
	id, err := b.next.FindSubjectByEmail(ctx, email)
	b.record(err)
	return id, err
}
