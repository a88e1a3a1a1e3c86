package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"BOOTSTRAP_TOKEN", "DATABASE_DRIVER", "DATABASE_FILE", "CREDENTIAL_TTL",
		"LOGIN_MAX_ATTEMPTS", "LOGIN_LOCKOUT_WINDOW", "TRUST_PROXY_HEADERS",
		"CORS_ALLOWED_ORIGINS", "PORT",
	} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()

	assert.Empty(t, cfg.BootstrapToken)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, "realm.db", cfg.DatabaseFile)
	assert.Equal(t, 12*time.Hour, cfg.CredentialTTL)
	assert.Equal(t, 5, cfg.LoginMaxAttempts)
	assert.Equal(t, 15*time.Minute, cfg.LoginLockoutWindow)
	assert.False(t, cfg.TrustProxyHeaders)
	assert.Nil(t, cfg.CORSAllowedOrigins)
	assert.Equal(t, 8080, cfg.Port)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "Postgres")
	t.Setenv("CREDENTIAL_TTL", "90") // bare integers are minutes
	t.Setenv("LOGIN_LOCKOUT_WINDOW", "2m")
	t.Setenv("LOGIN_MAX_ATTEMPTS", "3")
	t.Setenv("TRUST_PROXY_HEADERS", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.test, ,https://b.test ")
	t.Setenv("PORT", "not-a-number")

	cfg := LoadConfig()

	require.Equal(t, "postgres", cfg.DatabaseDriver)
	require.Equal(t, 90*time.Minute, cfg.CredentialTTL)
	require.Equal(t, 2*time.Minute, cfg.LoginLockoutWindow)
	require.Equal(t, 3, cfg.LoginMaxAttempts)
	require.True(t, cfg.TrustProxyHeaders)
	require.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORSAllowedOrigins)
	require.Equal(t, 8080, cfg.Port, "unparsable values fall back to the default")
}
