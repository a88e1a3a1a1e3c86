package domain

import "time"

// PlatformAccount is an operator identity that is not bound to any tenant.
// Accounts are never deleted; they are disabled through Status.
type PlatformAccount struct {
	ID           string
	Name         string
	Email        string // stored lower-cased
	PasswordHash string // argon2id PHC string
	Status       Status
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (a PlatformAccount) Active() bool { return a.Status == StatusActive }

// PlatformRole is a role with no tenant. It can only be attached to
// platform accounts.
type PlatformRole struct {
	ID        string
	Slug      string
	Name      string
	Abilities []string
	CreatedAt time.Time
	UpdatedAt time.Time
}
