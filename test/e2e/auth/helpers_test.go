package auth_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcexec "github.com/testcontainers/testcontainers-go/exec"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/usama-mangi/kushim-web-sub002/pkg/authsdk"
)

/*
 * Common constants and helper functions for auth service end-to-end tests.
 * This includes container setup, CLI provisioning, and assertions.
 */

const (
	testImageName = "kushim-auth-test:latest"

	testIssuer    = "kushim-auth"
	adminEmail    = "admin@example.com"
	adminPassword = "Admin123!password"
	userPassword  = "User123!password"
)

// TestMain manages the test lifecycle, builds the Docker image once before
// all tests and cleans it up after all tests complete.
func TestMain(m *testing.M) {
	fmt.Fprintf(os.Stdout, "Building Auth Service Docker image...")

	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up Auth Service Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

// buildDockerImage builds the test Docker image.
func buildDockerImage() error {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/auth/Dockerfile",
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

// authContainer is a running auth service plus the handle used to run CLI
// commands inside it.
type authContainer struct {
	BaseURL   string
	container testcontainers.Container
}

func baseEnv() map[string]string {
	return map[string]string{
		"AUTH_ISSUER":    testIssuer,
		"AUTH_ALGORITHM": "EdDSA",
		"AUTH_NUM_KEYS":  "1",
		"ENV":            "test",
		"LOG_LEVEL":      "info",
		"LOG_FORMAT":     "json",
	}
}

// setupAuthContainer starts the auth service with relaxed rate limits.
func setupAuthContainer(t *testing.T) *authContainer {
	t.Helper()

	env := baseEnv()
	// Tests make many rapid requests which would otherwise hit the strict production limits
	env["RATELIMIT_STRICT_REQUESTS"] = "1000"
	env["RATELIMIT_STRICT_WINDOW_SEC"] = "60"
	env["RATELIMIT_STRICT_BURST"] = "1000"
	env["RATELIMIT_MODERATE_REQUESTS"] = "1000"
	env["RATELIMIT_MODERATE_BURST"] = "1000"

	return startContainer(t, env)
}

// setupAuthContainerWithDefaultRateLimits starts the auth service with the
// production rate limits, for tests that exercise the limiter itself.
func setupAuthContainerWithDefaultRateLimits(t *testing.T) *authContainer {
	t.Helper()
	return startContainer(t, baseEnv())
}

func startContainer(t *testing.T, env map[string]string) *authContainer {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env:          env,
		WaitingFor: wait.ForHTTP("/livez").
			WithPort("8080/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	return &authContainer{
		BaseURL:   fmt.Sprintf("http://%s:%s", host, mappedPort.Port()),
		container: container,
	}
}

// cli runs the auth binary inside the container and returns its output.
func (c *authContainer) cli(t *testing.T, args ...string) string {
	t.Helper()

	code, reader, err := c.container.Exec(t.Context(), append([]string{"auth"}, args...), tcexec.Multiplexed())
	require.NoError(t, err)

	out, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.Zero(t, code, "auth %v failed: %s", args, out)
	return string(out)
}

// createIdentity provisions a password identity through the CLI.
func (c *authContainer) createIdentity(t *testing.T, email, password, role string) {
	t.Helper()
	out := c.cli(t, "identity", "create", email, "--password", password, "--role", role)
	require.Contains(t, out, "created identity "+email)
}

// loginFull logs in an identity without MFA and returns its session.
func loginFull(t *testing.T, client *authsdk.SDKClient, email, password string) *authsdk.Session {
	t.Helper()

	session, err := client.Login(t.Context(), email, password)
	require.NoError(t, err, "Login should succeed")
	require.NotNil(t, session)
	return session
}

// loginChallenge logs in an MFA-enabled identity and returns the challenge.
func loginChallenge(t *testing.T, client *authsdk.SDKClient, email, password string) *authsdk.MFAChallenge {
	t.Helper()

	session, err := client.Login(t.Context(), email, password)
	require.Nil(t, session)

	var challenge *authsdk.MFAChallenge
	require.True(t, errors.As(err, &challenge), "expected an MFA challenge, got %v", err)
	require.NotEmpty(t, challenge.TempToken)
	return challenge
}

// generateTOTP returns the current code for secret and the 30-second step it
// belongs to.
func generateTOTP(t *testing.T, secret string) (string, int64) {
	t.Helper()

	now := time.Now()
	code, err := totp.GenerateCode(secret, now)
	require.NoError(t, err)
	return code, now.Unix() / 30
}

// waitForNextStep blocks until the TOTP step after used begins, so a fresh
// code is not rejected as a replay.
func waitForNextStep(t *testing.T, used int64) {
	t.Helper()

	next := time.Unix((used+1)*30, 0)
	if d := time.Until(next); d > 0 {
		t.Logf("waiting %s for the next TOTP step", d.Round(time.Second))
		time.Sleep(d + 500*time.Millisecond)
	}
}

// enrollMFA runs enrollment and confirmation for session and returns the
// secret plus the step consumed by confirmation.
func enrollMFA(t *testing.T, session *authsdk.Session) (string, int64) {
	t.Helper()

	enrollment, err := session.BeginEnrollment(t.Context())
	require.NoError(t, err)
	require.NotEmpty(t, enrollment.Secret)
	require.Contains(t, enrollment.ProvisioningURI, "otpauth://totp/")

	code, step := generateTOTP(t, enrollment.Secret)
	require.NoError(t, session.ConfirmEnrollment(t.Context(), code))
	return enrollment.Secret, step
}

// requireAPIError asserts err is an *authsdk.APIError with the given status and code.
func requireAPIError(t *testing.T, err error, status int, code string) {
	t.Helper()
	require.Error(t, err)

	var apiErr *authsdk.APIError
	require.True(t, errors.As(err, &apiErr), "expected *authsdk.APIError, got %T: %v", err, err)
	require.Equal(t, status, apiErr.StatusCode, "unexpected status for %v", err)
	require.Equal(t, code, apiErr.Code)
}

// assertHealthy verifies a health check response is OK.
func assertHealthy(t *testing.T, health *authsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}
