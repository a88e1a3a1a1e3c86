package domain

import "time"

// Tenant is an independent business unit with its own users and roles.
type Tenant struct {
	ID                 string
	Name               string
	Slug               string // unique, used for tenant discovery
	Status             Status
	SubscriptionStatus SubscriptionStatus
	TrialEndsAt        *time.Time
	SubscriptionEndsAt *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// SubscriptionBlocked reports whether the subscription state alone forbids
// logins: an expired subscription, or a trial whose end has passed. A trial
// without an end date is open-ended.
func (t Tenant) SubscriptionBlocked(now time.Time) bool {
	switch t.SubscriptionStatus {
	case SubscriptionExpired:
		return true
	case SubscriptionTrial:
		return t.TrialEndsAt != nil && t.TrialEndsAt.Before(now)
	default:
		return false
	}
}

// AcceptsLogins combines the status gate with the subscription gate.
func (t Tenant) AcceptsLogins(now time.Time) bool {
	return t.Status == StatusActive && !t.SubscriptionBlocked(now)
}

// TenantUser is an identity bound to exactly one tenant. TenantID never
// changes after creation, and Email is only unique within the tenant.
type TenantUser struct {
	ID           string
	TenantID     string
	Name         string
	Email        string // stored lower-cased
	PasswordHash string
	Status       Status
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u TenantUser) Active() bool { return u.Status == StatusActive }

// Filter scopes follow-up queries to the user's own tenant. It is used
// between a successful password check and credential issuance, when no
// VerifiedIdentity exists yet.
func (u TenantUser) Filter() TenantFilter {
	return TenantFilter{tenantID: u.TenantID}
}

// TenantRole belongs to one tenant and can only be attached to users of
// that tenant.
type TenantRole struct {
	ID        string
	TenantID  string
	Slug      string
	Name      string
	Abilities []string
	CreatedAt time.Time
	UpdatedAt time.Time
}
