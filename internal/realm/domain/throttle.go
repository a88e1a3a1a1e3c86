package domain

import (
	"strings"
	"time"
)

// ThrottleKey partitions login attempt counters. Counters for different
// keys never influence each other.
type ThrottleKey struct {
	Realm    Realm
	ScopeKey string // lower-cased email for platform, tenant id for tenant
	Client   string // client address
}

// PlatformThrottleKey keys platform logins by account email and client.
func PlatformThrottleKey(email, client string) ThrottleKey {
	return ThrottleKey{Realm: RealmPlatform, ScopeKey: NormalizeEmail(email), Client: client}
}

// TenantThrottleKey keys tenant logins by tenant and client.
func TenantThrottleKey(tenantID, client string) ThrottleKey {
	return ThrottleKey{Realm: RealmTenant, ScopeKey: strings.TrimSpace(tenantID), Client: client}
}

func (k ThrottleKey) String() string {
	return k.Realm.String() + ":" + k.ScopeKey + ":" + k.Client
}

// LoginAttempt is the persisted counter for one ThrottleKey.
type LoginAttempt struct {
	Key          ThrottleKey
	Failures     int
	WindowEndsAt time.Time
	UpdatedAt    time.Time
}

// ThrottleState is the externally observable state of a ThrottleKey.
type ThrottleState int

const (
	ThrottleOpen ThrottleState = iota
	ThrottleWarning
	ThrottleLocked
)

func (s ThrottleState) String() string {
	switch s {
	case ThrottleWarning:
		return "warning"
	case ThrottleLocked:
		return "locked"
	default:
		return "open"
	}
}

// StateAt classifies the counter against maxAttempts at time now. A
// counter whose window has elapsed is Open regardless of its failures.
func (a LoginAttempt) StateAt(now time.Time, maxAttempts int) ThrottleState {
	if a.Failures == 0 || !now.Before(a.WindowEndsAt) {
		return ThrottleOpen
	}
	switch {
	case a.Failures >= maxAttempts:
		return ThrottleLocked
	case a.Failures == maxAttempts-1:
		return ThrottleWarning
	default:
		return ThrottleOpen
	}
}
