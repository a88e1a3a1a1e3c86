package app

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/realmguard/pkg/realmsdk"
)

func testConfig(t *testing.T) Config {
	dir := t.TempDir()
	return Config{
		DatabaseDriver:       "sqlite",
		DatabaseFile:         filepath.Join(dir, "realm.db"),
		PepperFile:           filepath.Join(dir, "pepper"),
		CredentialTTL:        time.Hour,
		LoginMaxAttempts:     5,
		LoginLockoutWindow:   time.Minute,
		LogLevel:             "error",
		LogFormat:            "text",
		ShutdownGracePeriod:  time.Second,
		HousekeepingInterval: time.Hour,
	}
}

func TestNewServesHealth(t *testing.T) {
	application, err := New(testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Close() })

	rec := httptest.NewRecorder()
	application.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var health realmsdk.HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&health))
	require.Equal(t, "ok", health.Status)
	require.Equal(t, BuildVersion, health.Version)
}

func TestNewBootstrapDisabledByDefault(t *testing.T) {
	application, err := New(testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Close() })

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/bootstrap", nil)
	req.Header.Set(realmsdk.BootstrapTokenHeader, "anything")
	application.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	require.Contains(t, string(body), realmsdk.CodeNotFound)
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.DatabaseDriver = "mysql"

	_, err := New(cfg)
	require.ErrorContains(t, err, "unknown database driver")
}

func TestNewPostgresRequiresURL(t *testing.T) {
	cfg := testConfig(t)
	cfg.DatabaseDriver = "postgres"

	_, err := New(cfg)
	require.ErrorContains(t, err, "DATABASE_URL")
}

func TestNewRefusesEmptyPepper(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.PepperFile, nil, 0o600))

	_, err := New(cfg)
	require.ErrorContains(t, err, "failed to load pepper")
}
