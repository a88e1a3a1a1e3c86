package domain

import "strings"

// Identity is either a platform account or a tenant user. Realm-sensitive
// code switches on Realm() and then reads the matching variant; the two
// variants never share a type.
type Identity struct {
	realm    Realm
	platform PlatformAccount
	tenant   TenantUser
}

func PlatformIdentity(a PlatformAccount) Identity {
	return Identity{realm: RealmPlatform, platform: a}
}

func TenantIdentity(u TenantUser) Identity {
	return Identity{realm: RealmTenant, tenant: u}
}

func (i Identity) Realm() Realm { return i.realm }

// Platform returns the account when the identity is in the platform realm.
func (i Identity) Platform() (PlatformAccount, bool) {
	return i.platform, i.realm == RealmPlatform
}

// Tenant returns the user when the identity is in the tenant realm.
func (i Identity) Tenant() (TenantUser, bool) {
	return i.tenant, i.realm == RealmTenant
}

// ID returns the id of whichever variant is set.
func (i Identity) ID() string {
	switch i.realm {
	case RealmPlatform:
		return i.platform.ID
	case RealmTenant:
		return i.tenant.ID
	default:
		return ""
	}
}

// TenantID is empty for platform identities.
func (i Identity) TenantID() string {
	if i.realm == RealmTenant {
		return i.tenant.TenantID
	}
	return ""
}

// NormalizeEmail lower-cases and trims an address. Emails are compared
// case-insensitively and stored in this form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
