package realmsdk

import "time"

type Realm string

const (
	RealmPlatform Realm = "platform"
	RealmTenant   Realm = "tenant"
)

// ============================================================================
// Authentication
// ============================================================================

// LoginRequest is the body of POST /auth/{realm}/login. Tenant logins name
// the tenant with exactly one of TenantID or TenantSlug. Platform logins
// send neither.
type LoginRequest struct {
	Email      string `json:"email"                 validate:"required,email,max=255"`
	Password   string `json:"password"              validate:"required,max=1024"`
	TenantID   string `json:"tenant_id,omitempty"   validate:"omitempty,max=64,excluded_with=TenantSlug"`
	TenantSlug string `json:"tenant_slug,omitempty" validate:"omitempty,max=64"`
}

// TokenResponse describes a freshly issued credential.
type TokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	Realm     Realm     `json:"realm"`
	Abilities []string  `json:"abilities"`
	ExpiresAt time.Time `json:"expires_at"`
	ExpiresIn int64     `json:"expires_in"` // seconds
}

type LoginResponse struct {
	TokenResponse

	User   User    `json:"user"`
	Tenant *Tenant `json:"tenant,omitempty"`
}

type MeResponse struct {
	Realm     Realm     `json:"realm"`
	User      User      `json:"user"`
	Tenant    *Tenant   `json:"tenant,omitempty"`
	Abilities []string  `json:"abilities"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ValidateResponse struct {
	Valid     bool      `json:"valid"`
	Realm     Realm     `json:"realm"`
	Subject   string    `json:"subject"`
	TenantID  string    `json:"tenant_id,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// ============================================================================
// Resources
// ============================================================================

// User is a platform account or a tenant user.
type User struct {
	ID          string     `json:"id"`
	TenantID    string     `json:"tenant_id,omitempty"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Status      string     `json:"status"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

type Tenant struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Slug               string     `json:"slug"`
	Status             string     `json:"status"`
	SubscriptionStatus string     `json:"subscription_status"`
	TrialEndsAt        *time.Time `json:"trial_ends_at,omitempty"`
	SubscriptionEndsAt *time.Time `json:"subscription_ends_at,omitempty"`
}

// TenantSummary is what tenant discovery reveals to anonymous callers.
type TenantSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Role struct {
	ID        string   `json:"id"`
	TenantID  string   `json:"tenant_id,omitempty"`
	Slug      string   `json:"slug"`
	Name      string   `json:"name"`
	Abilities []string `json:"abilities"`
}

type UserList struct {
	Users []User `json:"users"`
}

// ============================================================================
// Provisioning
// ============================================================================

type CreateTenantRequest struct {
	Name               string     `json:"name"                           validate:"required,max=255"`
	Slug               string     `json:"slug"                           validate:"required,slug"`
	Status             string     `json:"status,omitempty"               validate:"omitempty,oneof=active inactive suspended"`
	SubscriptionStatus string     `json:"subscription_status,omitempty"  validate:"omitempty,oneof=trial active expired"`
	TrialEndsAt        *time.Time `json:"trial_ends_at,omitempty"`
	SubscriptionEndsAt *time.Time `json:"subscription_ends_at,omitempty"`
}

// UpdateTenantRequest only applies the fields that are present.
type UpdateTenantRequest struct {
	Name               *string    `json:"name,omitempty"                 validate:"omitempty,min=1,max=255"`
	Status             *string    `json:"status,omitempty"               validate:"omitempty,oneof=active inactive suspended"`
	SubscriptionStatus *string    `json:"subscription_status,omitempty"  validate:"omitempty,oneof=trial active expired"`
	TrialEndsAt        *time.Time `json:"trial_ends_at,omitempty"`
	SubscriptionEndsAt *time.Time `json:"subscription_ends_at,omitempty"`
}

type CreateRoleRequest struct {
	Slug      string   `json:"slug"      validate:"required,slug"`
	Name      string   `json:"name"      validate:"required,max=255"`
	Abilities []string `json:"abilities" validate:"dive,required,max=128"`
}

// CreateUserRequest creates a tenant user or a platform account.
type CreateUserRequest struct {
	Name     string   `json:"name"               validate:"required,max=255"`
	Email    string   `json:"email"              validate:"required,email,max=255"`
	Password string   `json:"password"           validate:"required,min=8,max=1024"`
	Status   string   `json:"status,omitempty"   validate:"omitempty,oneof=active inactive suspended"`
	RoleIDs  []string `json:"role_ids,omitempty" validate:"dive,required"`
}

type SetStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive suspended"`
}

type AssignRoleRequest struct {
	RoleID string `json:"role_id" validate:"required"`
}

// ============================================================================
// Bootstrap and health
// ============================================================================

type BootstrapRequest struct {
	Name     string `json:"name"     validate:"required,max=255"`
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=1024"`
}

type BootstrapResponse struct {
	AccountID string `json:"account_id"`
	RoleID    string `json:"role_id"`
}

type HealthResponse struct {
	Status  string            `json:"status"`
	Uptime  string            `json:"uptime"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}
