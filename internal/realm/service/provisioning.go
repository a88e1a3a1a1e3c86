package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/realmguard/internal/realm/domain"
	"github.com/aussiebroadwan/realmguard/internal/realm/store"
	"github.com/aussiebroadwan/realmguard/pkg/cryptox"
	"github.com/aussiebroadwan/realmguard/pkg/idx"
	"github.com/aussiebroadwan/realmguard/pkg/slogx"
)

const MinPasswordLength = 8

// ProvisioningService manages identities, tenants and roles on behalf of
// platform operators. Tenant-scoped operations take the acting identity and
// derive the tenant filter from it.
type ProvisioningService struct {
	Store  store.Store
	Ledger *RevocationLedger
	Clock  func() time.Time
}

func (s *ProvisioningService) now() time.Time {
	if s.Clock != nil {
		return s.Clock().UTC()
	}
	return time.Now().UTC()
}

type CreateTenantInput struct {
	Name               string
	Slug               string
	Status             domain.Status
	SubscriptionStatus domain.SubscriptionStatus
	TrialEndsAt        *time.Time
	SubscriptionEndsAt *time.Time
}

// UpdateTenantInput only applies non-nil fields.
type UpdateTenantInput struct {
	Name               *string
	Status             *domain.Status
	SubscriptionStatus *domain.SubscriptionStatus
	TrialEndsAt        *time.Time
	SubscriptionEndsAt *time.Time
}

type CreateRoleInput struct {
	Slug      string
	Name      string
	Abilities []string
}

type CreateIdentityInput struct {
	Name     string
	Email    string
	Password string
	Status   domain.Status
	RoleIDs  []string
}

func (s *ProvisioningService) CreateTenant(ctx context.Context, in CreateTenantInput) (domain.Tenant, error) {
	now := s.now()

	in.Slug = strings.ToLower(strings.TrimSpace(in.Slug))
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || in.Slug == "" {
		return domain.Tenant{}, fmt.Errorf("%w: name and slug are required", ErrInvalidInput)
	}
	if in.Status == "" {
		in.Status = domain.StatusActive
	}
	if in.SubscriptionStatus == "" {
		in.SubscriptionStatus = domain.SubscriptionTrial
	}
	if !in.Status.Valid() || !in.SubscriptionStatus.Valid() {
		return domain.Tenant{}, fmt.Errorf("%w: unknown status", ErrInvalidInput)
	}

	tenant := domain.Tenant{
		ID:                 idx.New().String(),
		Name:               in.Name,
		Slug:               in.Slug,
		Status:             in.Status,
		SubscriptionStatus: in.SubscriptionStatus,
		TrialEndsAt:        utcPtr(in.TrialEndsAt),
		SubscriptionEndsAt: utcPtr(in.SubscriptionEndsAt),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.Store.Tenants().CreateTenant(ctx, tenant); err != nil {
		return domain.Tenant{}, mapStoreErr(err)
	}

	slogx.FromContext(ctx).Info("tenant created",
		slog.String("tenant_id", tenant.ID),
		slog.String("slug", tenant.Slug),
	)
	return tenant, nil
}

func (s *ProvisioningService) GetTenant(ctx context.Context, tenantID string) (domain.Tenant, error) {
	tenant, err := s.Store.Tenants().GetTenantByID(ctx, tenantID)
	if err != nil {
		return domain.Tenant{}, mapStoreErr(err)
	}
	return tenant, nil
}

// DiscoverTenant resolves a slug for the login screen. Only tenants that
// currently accept logins are returned; anything else is ErrNotFound.
func (s *ProvisioningService) DiscoverTenant(ctx context.Context, slug string) (domain.Tenant, error) {
	tenant, err := s.Store.Tenants().GetTenantBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return domain.Tenant{}, mapStoreErr(err)
	}
	if !tenant.AcceptsLogins(s.now()) {
		return domain.Tenant{}, ErrNotFound
	}
	return tenant, nil
}

func (s *ProvisioningService) UpdateTenant(
	ctx context.Context,
	tenantID string,
	in UpdateTenantInput,
) (domain.Tenant, error) {
	var tenant domain.Tenant
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		tenant, err = tx.Tenants().GetTenantByID(ctx, tenantID)
		if err != nil {
			return err
		}

		if in.Name != nil {
			if strings.TrimSpace(*in.Name) == "" {
				return fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
			}
			tenant.Name = strings.TrimSpace(*in.Name)
		}
		if in.Status != nil {
			if !in.Status.Valid() {
				return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *in.Status)
			}
			tenant.Status = *in.Status
		}
		if in.SubscriptionStatus != nil {
			if !in.SubscriptionStatus.Valid() {
				return fmt.Errorf("%w: unknown subscription status %q", ErrInvalidInput, *in.SubscriptionStatus)
			}
			tenant.SubscriptionStatus = *in.SubscriptionStatus
		}
		if in.TrialEndsAt != nil {
			tenant.TrialEndsAt = utcPtr(in.TrialEndsAt)
		}
		if in.SubscriptionEndsAt != nil {
			tenant.SubscriptionEndsAt = utcPtr(in.SubscriptionEndsAt)
		}
		tenant.UpdatedAt = s.now()

		return tx.Tenants().UpdateTenant(ctx, tenant)
	})
	if err != nil {
		return domain.Tenant{}, mapStoreErr(err)
	}

	slogx.FromContext(ctx).Info("tenant updated",
		slog.String("tenant_id", tenant.ID),
		slog.String("status", string(tenant.Status)),
		slog.String("subscription_status", string(tenant.SubscriptionStatus)),
	)
	return tenant, nil
}

func (s *ProvisioningService) CreateTenantRole(
	ctx context.Context,
	actor domain.VerifiedIdentity,
	tenantID string,
	in CreateRoleInput,
) (domain.TenantRole, error) {
	f, err := s.tenantScope(ctx, actor, tenantID)
	if err != nil {
		return domain.TenantRole{}, err
	}
	if err := normalizeRole(&in); err != nil {
		return domain.TenantRole{}, err
	}

	now := s.now()
	role := domain.TenantRole{
		ID:        idx.New().String(),
		TenantID:  f.TenantID(),
		Slug:      in.Slug,
		Name:      in.Name,
		Abilities: unionAbilities(in.Abilities),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.TenantRoles().CreateRole(ctx, role); err != nil {
		return domain.TenantRole{}, mapStoreErr(err)
	}
	return role, nil
}

func (s *ProvisioningService) CreateTenantUser(
	ctx context.Context,
	actor domain.VerifiedIdentity,
	tenantID string,
	in CreateIdentityInput,
) (domain.TenantUser, error) {
	f, err := s.tenantScope(ctx, actor, tenantID)
	if err != nil {
		return domain.TenantUser{}, err
	}
	hash, err := normalizeIdentity(&in)
	if err != nil {
		return domain.TenantUser{}, err
	}

	now := s.now()
	user := domain.TenantUser{
		ID:           idx.New().String(),
		TenantID:     f.TenantID(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Status:       in.Status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.TenantUsers().CreateUser(ctx, user); err != nil {
			return err
		}
		for _, roleID := range in.RoleIDs {
			if err := s.assignTenantRole(ctx, tx, f, user.ID, roleID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.TenantUser{}, mapStoreErr(err)
	}

	slogx.FromContext(ctx).Info("tenant user created",
		slog.String("tenant_id", user.TenantID),
		slog.String("user_id", user.ID),
		slog.Int("roles", len(in.RoleIDs)),
	)
	return user, nil
}

// SetTenantUserStatus changes a user's status. Moving a user out of active
// revokes every credential the user holds, in the same transaction as the
// status change.
func (s *ProvisioningService) SetTenantUserStatus(
	ctx context.Context,
	actor domain.VerifiedIdentity,
	tenantID, userID string,
	status domain.Status,
) (domain.TenantUser, error) {
	f, err := s.tenantScope(ctx, actor, tenantID)
	if err != nil {
		return domain.TenantUser{}, err
	}
	if !status.Valid() {
		return domain.TenantUser{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.TenantUsers().UpdateUserStatus(ctx, f, userID, status, s.now()); err != nil {
			return err
		}
		if status == domain.StatusActive {
			return nil
		}
		_, err := s.Ledger.revokeAll(ctx, tx, domain.RealmTenant, userID)
		return err
	})
	if err != nil {
		return domain.TenantUser{}, mapStoreErr(err)
	}

	user, err := s.Store.TenantUsers().GetUserByID(ctx, f, userID)
	if err != nil {
		return domain.TenantUser{}, mapStoreErr(err)
	}
	return user, nil
}

// AssignTenantRole attaches a role to a user of the same tenant.
func (s *ProvisioningService) AssignTenantRole(
	ctx context.Context,
	actor domain.VerifiedIdentity,
	tenantID, userID, roleID string,
) error {
	f, err := s.tenantScope(ctx, actor, tenantID)
	if err != nil {
		return err
	}
	if _, err := s.Store.TenantUsers().GetUserByID(ctx, f, userID); err != nil {
		return mapStoreErr(err)
	}
	return mapStoreErr(s.assignTenantRole(ctx, s.Store, f, userID, roleID))
}

func (s *ProvisioningService) assignTenantRole(
	ctx context.Context,
	q store.Store,
	f domain.TenantFilter,
	userID, roleID string,
) error {
	if _, err := q.TenantRoles().GetRoleByID(ctx, f, roleID); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		return s.explainMissingRole(ctx, q, f, userID, roleID)
	}

	err := q.TenantRoles().AssignRole(ctx, f, userID, roleID)
	if errors.Is(err, store.ErrConflict) {
		return ErrCrossTenantRole
	}
	return err
}

// explainMissingRole distinguishes a role from another tenant or realm from
// one that does not exist at all.
func (s *ProvisioningService) explainMissingRole(
	ctx context.Context,
	q store.Store,
	f domain.TenantFilter,
	userID, roleID string,
) error {
	l := slogx.FromContext(ctx)

	owner, err := q.TenantRoles().RoleTenantID(ctx, roleID)
	switch {
	case err == nil:
		l.Warn("cross-tenant role assignment rejected",
			slog.String("tenant_id", f.TenantID()),
			slog.String("user_id", userID),
			slog.String("role_id", roleID),
			slog.String("role_tenant_id", owner),
		)
		return ErrCrossTenantRole
	case !errors.Is(err, store.ErrNotFound):
		return err
	}

	if _, err := q.PlatformRoles().GetRoleByID(ctx, roleID); err == nil {
		l.Warn("cross-realm role assignment rejected",
			slog.String("tenant_id", f.TenantID()),
			slog.String("user_id", userID),
			slog.String("role_id", roleID),
		)
		return ErrCrossRealmRole
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: role %s", ErrNotFound, roleID)
}

// ListTenantUsers returns the users visible through f. The filter is the only
// tenant input; callers cannot widen it.
func (s *ProvisioningService) ListTenantUsers(ctx context.Context, f domain.TenantFilter) ([]domain.TenantUser, error) {
	if f.IsZero() {
		return nil, ErrForbidden
	}
	users, err := s.Store.TenantUsers().ListUsers(ctx, f)
	if err != nil {
		return nil, unavailable(err)
	}
	return users, nil
}

// ListUsersOfTenant is the platform operator's view of one tenant's users.
func (s *ProvisioningService) ListUsersOfTenant(
	ctx context.Context,
	actor domain.VerifiedIdentity,
	tenantID string,
) ([]domain.TenantUser, error) {
	f, err := s.tenantScope(ctx, actor, tenantID)
	if err != nil {
		return nil, err
	}
	return s.ListTenantUsers(ctx, f)
}

func (s *ProvisioningService) CreatePlatformAccount(
	ctx context.Context,
	in CreateIdentityInput,
) (domain.PlatformAccount, error) {
	hash, err := normalizeIdentity(&in)
	if err != nil {
		return domain.PlatformAccount{}, err
	}

	now := s.now()
	account := domain.PlatformAccount{
		ID:           idx.New().String(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Status:       in.Status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.PlatformAccounts().CreateAccount(ctx, account); err != nil {
			return err
		}
		for _, roleID := range in.RoleIDs {
			if err := assignPlatformRole(ctx, tx, account.ID, roleID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.PlatformAccount{}, mapStoreErr(err)
	}

	slogx.FromContext(ctx).Info("platform account created", slog.String("account_id", account.ID))
	return account, nil
}

// SetPlatformAccountStatus mirrors SetTenantUserStatus for the platform realm.
func (s *ProvisioningService) SetPlatformAccountStatus(
	ctx context.Context,
	accountID string,
	status domain.Status,
) (domain.PlatformAccount, error) {
	if !status.Valid() {
		return domain.PlatformAccount{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.PlatformAccounts().UpdateAccountStatus(ctx, accountID, status, s.now()); err != nil {
			return err
		}
		if status == domain.StatusActive {
			return nil
		}
		_, err := s.Ledger.revokeAll(ctx, tx, domain.RealmPlatform, accountID)
		return err
	})
	if err != nil {
		return domain.PlatformAccount{}, mapStoreErr(err)
	}
	account, err := s.Store.PlatformAccounts().GetAccountByID(ctx, accountID)
	if err != nil {
		return domain.PlatformAccount{}, mapStoreErr(err)
	}
	return account, nil
}

func (s *ProvisioningService) CreatePlatformRole(ctx context.Context, in CreateRoleInput) (domain.PlatformRole, error) {
	if err := normalizeRole(&in); err != nil {
		return domain.PlatformRole{}, err
	}

	now := s.now()
	role := domain.PlatformRole{
		ID:        idx.New().String(),
		Slug:      in.Slug,
		Name:      in.Name,
		Abilities: unionAbilities(in.Abilities),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.PlatformRoles().CreateRole(ctx, role); err != nil {
		return domain.PlatformRole{}, mapStoreErr(err)
	}
	return role, nil
}

func (s *ProvisioningService) AssignPlatformRole(ctx context.Context, accountID, roleID string) error {
	if _, err := s.Store.PlatformAccounts().GetAccountByID(ctx, accountID); err != nil {
		return mapStoreErr(err)
	}
	return mapStoreErr(assignPlatformRole(ctx, s.Store, accountID, roleID))
}

func assignPlatformRole(ctx context.Context, q store.Store, accountID, roleID string) error {
	if _, err := q.PlatformRoles().GetRoleByID(ctx, roleID); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if _, terr := q.TenantRoles().RoleTenantID(ctx, roleID); terr == nil {
			slogx.FromContext(ctx).Warn("cross-realm role assignment rejected",
				slog.String("account_id", accountID),
				slog.String("role_id", roleID),
			)
			return ErrCrossRealmRole
		}
		return fmt.Errorf("%w: role %s", ErrNotFound, roleID)
	}
	return q.PlatformRoles().AssignRole(ctx, accountID, roleID)
}

// tenantScope turns a platform operator's explicit tenant id into a filter
// after confirming the tenant exists.
func (s *ProvisioningService) tenantScope(
	ctx context.Context,
	actor domain.VerifiedIdentity,
	tenantID string,
) (domain.TenantFilter, error) {
	f, ok := domain.PlatformTenantFilter(actor, tenantID)
	if !ok {
		return domain.TenantFilter{}, ErrForbidden
	}
	if _, err := s.Store.Tenants().GetTenantByID(ctx, f.TenantID()); err != nil {
		return domain.TenantFilter{}, mapStoreErr(err)
	}
	return f, nil
}

func normalizeRole(in *CreateRoleInput) error {
	in.Slug = strings.ToLower(strings.TrimSpace(in.Slug))
	in.Name = strings.TrimSpace(in.Name)
	if in.Slug == "" || in.Name == "" {
		return fmt.Errorf("%w: slug and name are required", ErrInvalidInput)
	}
	for _, ability := range in.Abilities {
		if strings.ContainsAny(ability, " \t\n") {
			return fmt.Errorf("%w: ability %q contains whitespace", ErrInvalidInput, ability)
		}
	}
	return nil
}

// normalizeIdentity validates in and returns the password hash.
func normalizeIdentity(in *CreateIdentityInput) (string, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = domain.NormalizeEmail(in.Email)
	if in.Name == "" || in.Email == "" || !strings.Contains(in.Email, "@") {
		return "", fmt.Errorf("%w: name and a valid email are required", ErrInvalidInput)
	}
	if len(in.Password) < MinPasswordLength {
		return "", fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}
	if in.Status == "" {
		in.Status = domain.StatusActive
	}
	if !in.Status.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidInput, in.Status)
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return "", err
	}
	return hash, nil
}

// mapStoreErr translates repository errors into service errors. Service
// errors pass through untouched.
func mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrNotFound), errors.Is(err, ErrDuplicate),
		errors.Is(err, ErrCrossTenantRole), errors.Is(err, ErrCrossRealmRole),
		errors.Is(err, ErrForbidden), errors.Is(err, ErrUnavailable):
		return err
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrAlreadyExists):
		return ErrDuplicate
	case errors.Is(err, store.ErrConflict):
		return ErrCrossTenantRole
	default:
		return unavailable(err)
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
