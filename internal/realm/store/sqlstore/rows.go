package sqlstore

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/aussiebroadwan/realmguard/internal/realm/domain"
)

type platformAccountRow struct {
	ID           string       `db:"id"`
	Name         string       `db:"name"`
	Email        string       `db:"email"`
	PasswordHash string       `db:"password_hash"`
	Status       string       `db:"status"`
	LastLoginAt  sql.NullTime `db:"last_login_at"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
}

func (r platformAccountRow) toDomain() domain.PlatformAccount {
	return domain.PlatformAccount{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Status:       domain.Status(r.Status),
		LastLoginAt:  mapNullTimePtr(r.LastLoginAt),
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

type platformRoleRow struct {
	ID        string    `db:"id"`
	Slug      string    `db:"slug"`
	Name      string    `db:"name"`
	Abilities string    `db:"abilities"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r platformRoleRow) toDomain() domain.PlatformRole {
	return domain.PlatformRole{
		ID:        r.ID,
		Slug:      r.Slug,
		Name:      r.Name,
		Abilities: splitAbilities(r.Abilities),
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type tenantRow struct {
	ID                 string       `db:"id"`
	Name               string       `db:"name"`
	Slug               string       `db:"slug"`
	Status             string       `db:"status"`
	SubscriptionStatus string       `db:"subscription_status"`
	TrialEndsAt        sql.NullTime `db:"trial_ends_at"`
	SubscriptionEndsAt sql.NullTime `db:"subscription_ends_at"`
	CreatedAt          time.Time    `db:"created_at"`
	UpdatedAt          time.Time    `db:"updated_at"`
}

func (r tenantRow) toDomain() domain.Tenant {
	return domain.Tenant{
		ID:                 r.ID,
		Name:               r.Name,
		Slug:               r.Slug,
		Status:             domain.Status(r.Status),
		SubscriptionStatus: domain.SubscriptionStatus(r.SubscriptionStatus),
		TrialEndsAt:        mapNullTimePtr(r.TrialEndsAt),
		SubscriptionEndsAt: mapNullTimePtr(r.SubscriptionEndsAt),
		CreatedAt:          r.CreatedAt.UTC(),
		UpdatedAt:          r.UpdatedAt.UTC(),
	}
}

type tenantUserRow struct {
	ID           string       `db:"id"`
	TenantID     string       `db:"tenant_id"`
	Name         string       `db:"name"`
	Email        string       `db:"email"`
	PasswordHash string       `db:"password_hash"`
	Status       string       `db:"status"`
	LastLoginAt  sql.NullTime `db:"last_login_at"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
}

func (r tenantUserRow) toDomain() domain.TenantUser {
	return domain.TenantUser{
		ID:           r.ID,
		TenantID:     r.TenantID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Status:       domain.Status(r.Status),
		LastLoginAt:  mapNullTimePtr(r.LastLoginAt),
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

type tenantRoleRow struct {
	ID        string    `db:"id"`
	TenantID  string    `db:"tenant_id"`
	Slug      string    `db:"slug"`
	Name      string    `db:"name"`
	Abilities string    `db:"abilities"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r tenantRoleRow) toDomain() domain.TenantRole {
	return domain.TenantRole{
		ID:        r.ID,
		TenantID:  r.TenantID,
		Slug:      r.Slug,
		Name:      r.Name,
		Abilities: splitAbilities(r.Abilities),
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type credentialRow struct {
	ID         string         `db:"id"`
	TokenHash  string         `db:"token_hash"`
	Realm      string         `db:"realm"`
	OwnerID    string         `db:"owner_id"`
	TenantID   sql.NullString `db:"tenant_id"`
	Abilities  string         `db:"abilities"`
	IssuedAt   time.Time      `db:"issued_at"`
	ExpiresAt  time.Time      `db:"expires_at"`
	RevokedAt  sql.NullTime   `db:"revoked_at"`
	LastUsedAt sql.NullTime   `db:"last_used_at"`
}

func (r credentialRow) toDomain() domain.Credential {
	return domain.Credential{
		ID:         r.ID,
		TokenHash:  r.TokenHash,
		Realm:      domain.Realm(r.Realm),
		OwnerID:    r.OwnerID,
		TenantID:   mapNullString(r.TenantID),
		Abilities:  splitAbilities(r.Abilities),
		IssuedAt:   r.IssuedAt.UTC(),
		ExpiresAt:  r.ExpiresAt.UTC(),
		RevokedAt:  mapNullTimePtr(r.RevokedAt),
		LastUsedAt: mapNullTimePtr(r.LastUsedAt),
	}
}

type loginAttemptRow struct {
	Realm        string    `db:"realm"`
	ScopeKey     string    `db:"scope_key"`
	ClientKey    string    `db:"client_key"`
	Failures     int       `db:"failures"`
	WindowEndsAt timestamp `db:"window_ends_at"`
	UpdatedAt    timestamp `db:"updated_at"`
}

func (r loginAttemptRow) toDomain() domain.LoginAttempt {
	return domain.LoginAttempt{
		Key: domain.ThrottleKey{
			Realm:    domain.Realm(r.Realm),
			ScopeKey: r.ScopeKey,
			Client:   r.ClientKey,
		},
		Failures:     r.Failures,
		WindowEndsAt: time.Time(r.WindowEndsAt).UTC(),
		UpdatedAt:    time.Time(r.UpdatedAt).UTC(),
	}
}

// timestamp scans a time column that some drivers hand back as text, such as
// sqlite values read through a RETURNING clause.
type timestamp time.Time

var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func (ts *timestamp) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*ts = timestamp(v)
		return nil
	case string:
		return ts.parse(v)
	case []byte:
		return ts.parse(string(v))
	default:
		return fmt.Errorf("sqlstore: cannot scan %T into timestamp", src)
	}
}

func (ts *timestamp) parse(s string) error {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*ts = timestamp(t)
			return nil
		}
	}
	return fmt.Errorf("sqlstore: unrecognised timestamp %q", s)
}
