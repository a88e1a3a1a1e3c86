package service

import (
	"errors"
	"fmt"
	"time"
)

// Authentication outcomes. These are the only kinds callers see; anything
// finer grained stays in the logs.
var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrRateLimited        = errors.New("rate_limited")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrUnavailable        = errors.New("unavailable")
)

// Provisioning outcomes.
var (
	ErrInvalidInput    = errors.New("invalid_input")
	ErrDuplicate       = errors.New("duplicate")
	ErrNotFound        = errors.New("not_found")
	ErrCrossTenantRole = errors.New("role belongs to another tenant")
	ErrCrossRealmRole  = errors.New("role belongs to another realm")
)

var (
	ErrBootstrapAlready      = errors.New("system already bootstrapped")
	ErrBootstrapUnauthorized = errors.New("unauthorized bootstrap attempt")
	ErrBootstrapDisabled     = errors.New("bootstrap disabled")
)

// RateLimitedError carries how long the caller should wait before retrying.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("%s: retry after %s", ErrRateLimited, e.RetryAfter.Round(time.Second))
}

func (e *RateLimitedError) Is(target error) bool { return target == ErrRateLimited }

// unavailable marks a store failure as retryable. It must never be folded
// into an authentication outcome.
func unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
