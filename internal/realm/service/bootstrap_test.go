package service

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/realmguard/internal/realm/domain"
	"github.com/stretchr/testify/require"
)

func TestBootstrap(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	svc := &BootstrapService{Store: f.store, Token: "bootstrap-secret"}
	in := BootstrapInput{Name: "Root", Email: "root@platform.test", Password: testPassword}

	t.Run("disabled without a configured token", func(t *testing.T) {
		disabled := &BootstrapService{Store: f.store}
		_, _, err := disabled.Bootstrap(ctx, "", in)
		require.ErrorIs(t, err, ErrBootstrapDisabled)
	})

	t.Run("wrong token", func(t *testing.T) {
		_, _, err := svc.Bootstrap(ctx, "guess", in)
		require.ErrorIs(t, err, ErrBootstrapUnauthorized)
	})

	t.Run("creates the first admin", func(t *testing.T) {
		account, role, err := svc.Bootstrap(ctx, "bootstrap-secret", in)
		require.NoError(t, err)
		require.Equal(t, domain.PlatformAdminRoleSlug, role.Slug)
		require.ElementsMatch(t, domain.PlatformAdminAbilities, role.Abilities)

		res, err := f.platformLogin("root@platform.test", testPassword, "1.2.3.4")
		require.NoError(t, err)
		require.Equal(t, account.ID, res.Identity.ID())
		require.ElementsMatch(t, domain.PlatformAdminAbilities, res.Abilities)
	})

	t.Run("only once", func(t *testing.T) {
		_, _, err := svc.Bootstrap(ctx, "bootstrap-secret", in)
		require.ErrorIs(t, err, ErrBootstrapAlready)
	})
}
