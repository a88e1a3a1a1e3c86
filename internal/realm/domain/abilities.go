package domain

// Abilities guarding the platform provisioning API.
const (
	AbilityTenantsRead      = "tenants.read"
	AbilityTenantsWrite     = "tenants.write"
	AbilityPlatformAccounts = "platform.accounts.write"
	AbilityPlatformRoles    = "platform.roles.write"
	AbilityTenantUsersRead  = "users.read"
	PlatformAdminRoleSlug   = "platform-admin"
)

// PlatformAdminAbilities is granted to the bootstrap role.
var PlatformAdminAbilities = []string{
	AbilityTenantsRead,
	AbilityTenantsWrite,
	AbilityPlatformAccounts,
	AbilityPlatformRoles,
}
