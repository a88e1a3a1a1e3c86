package realm_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aussiebroadwan/realmguard/pkg/realmsdk"
)

/*
 * Common constants and helper functions for realm service end-to-end tests.
 * This includes container setup, provisioning shortcuts, and assertions.
 */

const (
	testImageName = "realmguard-test:latest"

	bootstrapToken = "test-bootstrap-token-12345"
	adminName      = "Administrator"
	adminEmail     = "admin@platform.test"
	adminPassword  = "Admin123!secret"
	userPassword   = "User123!secret"
)

// dockerReady is false when no Docker daemon is reachable; every container
// test then skips instead of failing.
var dockerReady bool

// TestMain builds the Docker image once before all tests and cleans it up
// after all tests complete.
func TestMain(m *testing.M) {
	if err := exec.Command("docker", "info").Run(); err != nil {
		fmt.Fprintln(os.Stdout, "Docker unavailable, container tests will be skipped")
		os.Exit(m.Run())
	}

	fmt.Fprintf(os.Stdout, "Building Realm Service Docker image...")
	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")
	dockerReady = true

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up Realm Service Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func requireDocker(t *testing.T) {
	t.Helper()
	if !dockerReady {
		t.Skip("docker is not available")
	}
}

// buildDockerImage builds the test Docker image.
func buildDockerImage() error {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/realmd/Dockerfile",
		"../../../")
	cmd.Dir = "."
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

// cleanupDockerImage removes the test Docker image.
func cleanupDockerImage() {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // Ignore errors - image might not exist
}

// relaxedLimits lifts the httpx limiter profiles and the login flood guard so
// tests that make many rapid requests are not throttled by them.
func relaxedLimits() map[string]string {
	return map[string]string{
		"RATELIMIT_STRICT_REQUESTS":   "1000",
		"RATELIMIT_STRICT_WINDOW_SEC": "60",
		"RATELIMIT_STRICT_BURST":      "1000",
		"RATELIMIT_MODERATE_REQUESTS": "1000",
		"RATELIMIT_MODERATE_BURST":    "1000",
		"RATELIMIT_LENIENT_REQUESTS":  "1000",
		"RATELIMIT_LENIENT_BURST":     "1000",
		"LOGIN_IP_REQUESTS":           "1000",
	}
}

// setupRealmContainer starts the realm service in a container and returns
// a client for it. extra overrides the default environment.
func setupRealmContainer(t *testing.T, extra map[string]string) *realmsdk.Client {
	t.Helper()
	requireDocker(t)
	ctx := context.Background()

	env := map[string]string{
		"BOOTSTRAP_TOKEN": bootstrapToken,
		"ENV":             "test",
		"LOG_LEVEL":       "info",
		"LOG_FORMAT":      "json",
	}
	for k, v := range extra {
		env[k] = v
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        testImageName,
			ExposedPorts: []string{"8080/tcp"},
			Env:          env,
			WaitingFor: wait.ForHTTP("/livez").
				WithPort("8080/tcp").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	return realmsdk.NewClient(fmt.Sprintf("http://%s:%s", host, mappedPort.Port()))
}

// bootstrapOperator bootstraps the platform and logs the first account in.
func bootstrapOperator(t *testing.T, client *realmsdk.Client) *realmsdk.Session {
	t.Helper()
	ctx := t.Context()

	resp, err := client.Bootstrap(ctx, bootstrapToken, realmsdk.BootstrapRequest{
		Name: adminName, Email: adminEmail, Password: adminPassword,
	})
	require.NoError(t, err, "Bootstrap should succeed")
	require.NotEmpty(t, resp.AccountID)

	session, login, err := client.Login(ctx, realmsdk.RealmPlatform, realmsdk.LoginRequest{
		Email: adminEmail, Password: adminPassword,
	})
	require.NoError(t, err, "Platform login should succeed")
	assertTokenResponse(t, &login.TokenResponse, realmsdk.RealmPlatform)
	return session
}

// provisionTenant creates a tenant with a "member" role carrying
// users.read and one user holding it.
func provisionTenant(t *testing.T, op *realmsdk.Session, slug, email string) (*realmsdk.Tenant, *realmsdk.User) {
	t.Helper()
	ctx := t.Context()

	tenant, err := op.CreateTenant(ctx, realmsdk.CreateTenantRequest{
		Name: slug, Slug: slug, SubscriptionStatus: "active",
	})
	require.NoError(t, err)

	role, err := op.CreateTenantRole(ctx, tenant.ID, realmsdk.CreateRoleRequest{
		Slug: "member", Name: "Member", Abilities: []string{"users.read"},
	})
	require.NoError(t, err)

	user, err := op.CreateTenantUser(ctx, tenant.ID, realmsdk.CreateUserRequest{
		Name: email, Email: email, Password: userPassword, RoleIDs: []string{role.ID},
	})
	require.NoError(t, err)
	return tenant, user
}

// assertTokenResponse verifies a token response has all required fields.
func assertTokenResponse(t *testing.T, resp *realmsdk.TokenResponse, realm realmsdk.Realm) {
	t.Helper()
	require.NotNil(t, resp)
	require.NotEmpty(t, resp.Token, "Token should not be empty")
	require.Equal(t, "Bearer", resp.TokenType, "Token type should be Bearer")
	require.Equal(t, realm, resp.Realm)
	require.Positive(t, resp.ExpiresIn)
}

// assertAPIError checks the status and machine readable code of err.
func assertAPIError(t *testing.T, err error, status int, code string) *realmsdk.APIError {
	t.Helper()
	var apiErr *realmsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, status, apiErr.StatusCode, apiErr.Message)
	require.Equal(t, code, apiErr.Code)
	return apiErr
}
