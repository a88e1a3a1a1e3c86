package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/realmguard/internal/realm/domain"
	"github.com/aussiebroadwan/realmguard/internal/realm/store"
	"github.com/aussiebroadwan/realmguard/pkg/slogx"
)

const (
	DefaultMaxLoginAttempts = 5
	DefaultLockoutWindow    = 15 * time.Minute
)

// ThrottleStatus is a snapshot of one throttle key.
type ThrottleStatus struct {
	State      domain.ThrottleState
	Failures   int
	RetryAfter time.Duration // zero unless State is Locked
}

// LoginThrottle counts failed logins per domain.ThrottleKey. Counters live in
// the store so every replica sees the same lockouts.
type LoginThrottle struct {
	Store       store.Store
	MaxAttempts int
	Window      time.Duration
	Clock       func() time.Time
}

func NewLoginThrottle(s store.Store, maxAttempts int, window time.Duration) *LoginThrottle {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxLoginAttempts
	}
	if window <= 0 {
		window = DefaultLockoutWindow
	}
	return &LoginThrottle{Store: s, MaxAttempts: maxAttempts, Window: window}
}

func (t *LoginThrottle) now() time.Time {
	if t.Clock != nil {
		return t.Clock().UTC()
	}
	return time.Now().UTC()
}

// Check reports the current state of key without modifying it.
func (t *LoginThrottle) Check(ctx context.Context, key domain.ThrottleKey) (ThrottleStatus, error) {
	attempt, err := t.Store.LoginAttempts().GetAttempt(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return ThrottleStatus{State: domain.ThrottleOpen}, nil
	}
	if err != nil {
		return ThrottleStatus{}, unavailable(err)
	}
	return t.status(attempt, t.now()), nil
}

// Reserve charges one attempt to key before the secret is checked. The
// increment and the threshold test are one store statement, so concurrent
// logins for the same key are numbered and only the first MaxAttempts of a
// window get a verdict. Later ones fail with a *RateLimitedError. The
// returned status describes key as it stands if the reserved attempt fails.
func (t *LoginThrottle) Reserve(ctx context.Context, key domain.ThrottleKey) (ThrottleStatus, error) {
	now := t.now()
	attempt, err := t.Store.LoginAttempts().IncrementAttempt(ctx, key, t.MaxAttempts, now, now.Add(t.Window))
	if err != nil {
		return ThrottleStatus{}, unavailable(err)
	}

	st := t.status(attempt, now)
	if attempt.Failures > t.MaxAttempts {
		return st, &RateLimitedError{RetryAfter: st.RetryAfter}
	}
	return st, nil
}

// Escalated logs a failed reserved attempt that left key in warning or
// locked state.
func (t *LoginThrottle) Escalated(ctx context.Context, key domain.ThrottleKey, st ThrottleStatus) {
	if st.State == domain.ThrottleOpen {
		return
	}
	slogx.FromContext(ctx).Warn("login throttle escalated",
		slog.String("realm", key.Realm.String()),
		slog.String("scope_key", key.ScopeKey),
		slog.String("client", key.Client),
		slog.String("state", st.State.String()),
		slog.Int("failures", st.Failures),
	)
}

// Release returns a reserved attempt whose login ended in a store failure.
func (t *LoginThrottle) Release(ctx context.Context, key domain.ThrottleKey) error {
	if err := t.Store.LoginAttempts().ReleaseAttempt(ctx, key); err != nil {
		return unavailable(err)
	}
	return nil
}

// Reset clears key after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, key domain.ThrottleKey) error {
	if err := t.Store.LoginAttempts().ResetAttempts(ctx, key); err != nil {
		return unavailable(err)
	}
	return nil
}

func (t *LoginThrottle) status(a domain.LoginAttempt, now time.Time) ThrottleStatus {
	st := ThrottleStatus{State: a.StateAt(now, t.MaxAttempts), Failures: a.Failures}
	if st.State == domain.ThrottleOpen && !now.Before(a.WindowEndsAt) {
		st.Failures = 0
	}
	if st.State == domain.ThrottleLocked {
		st.RetryAfter = a.WindowEndsAt.Sub(now)
	}
	return st
}
