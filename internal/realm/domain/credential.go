package domain

import (
	"slices"
	"time"
)

// Credential is the ledger record of an issued bearer token. Only the
// fingerprint of the opaque value is stored.
type Credential struct {
	ID         string
	TokenHash  string // base64url SHA-256 of the opaque token
	Realm      Realm
	OwnerID    string // PlatformAccount.ID or TenantUser.ID depending on Realm
	TenantID   string // empty for the platform realm
	Abilities  []string
	IssuedAt   time.Time
	ExpiresAt  time.Time
	RevokedAt  *time.Time
	LastUsedAt *time.Time
}

func (c Credential) Revoked() bool { return c.RevokedAt != nil }

func (c Credential) Expired(now time.Time) bool { return !now.Before(c.ExpiresAt) }

// Usable reports whether the credential may still authenticate requests.
func (c Credential) Usable(now time.Time) bool {
	return !c.Revoked() && !c.Expired(now)
}

// VerifiedIdentity is what the realm guard hands to downstream handlers
// once a credential has been resolved.
type VerifiedIdentity struct {
	CredentialID string
	Realm        Realm
	OwnerID      string
	Abilities    []string
	ExpiresAt    time.Time

	tenantID string
}

// NewVerifiedIdentity derives a VerifiedIdentity from a stored credential.
// The tenant scope comes from the credential and nowhere else.
func NewVerifiedIdentity(c Credential) VerifiedIdentity {
	v := VerifiedIdentity{
		CredentialID: c.ID,
		Realm:        c.Realm,
		OwnerID:      c.OwnerID,
		Abilities:    slices.Clone(c.Abilities),
		ExpiresAt:    c.ExpiresAt,
	}
	if c.Realm == RealmTenant {
		v.tenantID = c.TenantID
	}
	return v
}

// Can is a membership test against the ability snapshot.
func (v VerifiedIdentity) Can(ability string) bool {
	return slices.Contains(v.Abilities, ability)
}

// TenantFilter returns the mandatory tenant scope for tenant-realm
// identities. It is false for platform identities.
func (v VerifiedIdentity) TenantFilter() (TenantFilter, bool) {
	if v.Realm != RealmTenant || v.tenantID == "" {
		return TenantFilter{}, false
	}
	return TenantFilter{tenantID: v.tenantID}, true
}

// TenantFilter is the credential-derived constraint every tenant-realm data
// query must apply. Outside this package it can only be obtained from a
// VerifiedIdentity or, for platform operators acting on a tenant they
// addressed explicitly, from PlatformTenantFilter.
type TenantFilter struct {
	tenantID string
}

// PlatformTenantFilter scopes a platform-realm operation to one tenant. It
// refuses anything other than a platform identity.
func PlatformTenantFilter(v VerifiedIdentity, tenantID string) (TenantFilter, bool) {
	if v.Realm != RealmPlatform || tenantID == "" {
		return TenantFilter{}, false
	}
	return TenantFilter{tenantID: tenantID}, true
}

func (f TenantFilter) TenantID() string { return f.tenantID }

func (f TenantFilter) IsZero() bool { return f.tenantID == "" }
