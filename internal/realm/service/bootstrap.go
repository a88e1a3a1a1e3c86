package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/realmguard/internal/realm/domain"
	"github.com/aussiebroadwan/realmguard/internal/realm/store"
	"github.com/aussiebroadwan/realmguard/pkg/cryptox"
	"github.com/aussiebroadwan/realmguard/pkg/idx"
	"github.com/aussiebroadwan/realmguard/pkg/slogx"
)

type BootstrapService struct {
	Store store.Store
	Token string // Pre-configured bootstrap token
}

type BootstrapInput struct {
	Name     string
	Email    string
	Password string
}

func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	empty, err := s.Store.PlatformAccounts().IsEmpty(ctx)
	if err != nil {
		return false, unavailable(err)
	}
	return !empty, nil
}

// Bootstrap creates the first platform account together with the
// platform-admin role. It only works while no platform account exists and
// the caller presents the configured token.
func (s *BootstrapService) Bootstrap(
	ctx context.Context,
	token string,
	in BootstrapInput,
) (domain.PlatformAccount, domain.PlatformRole, error) {
	l := slogx.FromContext(ctx)

	if s.Token == "" {
		return domain.PlatformAccount{}, domain.PlatformRole{}, ErrBootstrapDisabled
	}

	// 1. Validate provided token
	if !cryptox.EqualSecret(token, s.Token) {
		l.Warn("unauthorized bootstrap attempt")
		return domain.PlatformAccount{}, domain.PlatformRole{}, ErrBootstrapUnauthorized
	}

	// 2. Check if already bootstrapped
	bootstrapped, err := s.IsBootstrapped(ctx)
	if err != nil {
		return domain.PlatformAccount{}, domain.PlatformRole{}, err
	}
	if bootstrapped {
		l.Warn("attempted bootstrap on already-bootstrapped system")
		return domain.PlatformAccount{}, domain.PlatformRole{}, ErrBootstrapAlready
	}

	// 3. Validate and hash the admin password
	identity := CreateIdentityInput{Name: in.Name, Email: in.Email, Password: in.Password}
	hash, err := normalizeIdentity(&identity)
	if err != nil {
		return domain.PlatformAccount{}, domain.PlatformRole{}, err
	}

	// 4. Create role and account in one transaction
	now := time.Now().UTC()
	account := domain.PlatformAccount{
		ID:           idx.New().String(),
		Name:         identity.Name,
		Email:        identity.Email,
		PasswordHash: hash,
		Status:       domain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	var role domain.PlatformRole

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		empty, err := tx.PlatformAccounts().IsEmpty(ctx)
		if err != nil {
			return err
		}
		if !empty {
			return ErrBootstrapAlready
		}

		role, err = tx.PlatformRoles().GetRoleBySlug(ctx, domain.PlatformAdminRoleSlug)
		if errors.Is(err, store.ErrNotFound) {
			role = domain.PlatformRole{
				ID:        idx.New().String(),
				Slug:      domain.PlatformAdminRoleSlug,
				Name:      "Platform administrator",
				Abilities: domain.PlatformAdminAbilities,
				CreatedAt: now,
				UpdatedAt: now,
			}
			err = tx.PlatformRoles().CreateRole(ctx, role)
		}
		if err != nil {
			return err
		}

		if err := tx.PlatformAccounts().CreateAccount(ctx, account); err != nil {
			return err
		}
		return tx.PlatformRoles().AssignRole(ctx, account.ID, role.ID)
	})
	if err != nil {
		if errors.Is(err, ErrBootstrapAlready) {
			return domain.PlatformAccount{}, domain.PlatformRole{}, err
		}
		l.Error("bootstrap failed", slog.Any("error", err))
		return domain.PlatformAccount{}, domain.PlatformRole{}, mapStoreErr(err)
	}

	l.Info("successfully bootstrapped system",
		slog.String("account_id", account.ID),
		slog.String("role_id", role.ID),
	)
	return account, role, nil
}
