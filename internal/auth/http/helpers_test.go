package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/usama-mangi/kushim-web-sub002/internal/auth/domain"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/metrics"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/replay"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/service"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/social"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store/drivers/memory"
	"github.com/usama-mangi/kushim-web-sub002/pkg/authsdk"
	"github.com/usama-mangi/kushim-web-sub002/pkg/cryptox"
	"github.com/usama-mangi/kushim-web-sub002/pkg/httpx"
	"github.com/usama-mangi/kushim-web-sub002/pkg/jwtx"
	"github.com/usama-mangi/kushim-web-sub002/pkg/otpx"
)

const testPassword = "correct horse battery"

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakeProvider struct {
	name    string
	profile social.Profile
	err     error
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) AuthCodeURL(state string) string {
	return "https://idp.example.com/authorize?state=" + state
}

func (p *fakeProvider) Exchange(ctx context.Context, code, state string) (social.Profile, error) {
	if p.err != nil {
		return social.Profile{}, p.err
	}
	return p.profile, nil
}

type testServer struct {
	t          *testing.T
	srv        *httptest.Server
	clock      *testClock
	engine     *otpx.Engine
	identities *service.IdentityService
	provider   *fakeProvider
	registry   *prometheus.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	st := memory.NewStore()
	clock := &testClock{t: time.Now().UTC().Truncate(30 * time.Second).Add(5 * time.Second)}
	engine := otpx.NewEngine("Kushim")

	hasher := cryptox.NewArgon2Hasher("test-pepper")
	hasher.Memory = 1024
	hasher.Iterations = 1

	keys, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Algorithm: jwtx.AlgorithmEdDSA,
		Issuer:    "kushim-test",
		NumKeys:   1,
	})
	require.NoError(t, err)

	roles := &service.RolesService{Store: st}
	require.NoError(t, roles.EnsureRoles(ctx, domain.RoleAdmin, domain.RoleUser))

	reg := prometheus.NewRegistry()
	rec := metrics.NewCollector(reg)

	tokens := &service.TokenIssuer{Store: st, Signer: keys, Issuer: "kushim-test", Metrics: rec}
	credentials, err := service.NewCredentialValidator(st, hasher)
	require.NoError(t, err)

	auth := &service.AuthService{
		Credentials: credentials,
		Tokens:      tokens,
		Enrollment:  &service.EnrollmentManager{Store: st, TOTP: engine, QRSize: 128, Now: clock.Now},
		MFA: &service.MFAVerifier{
			Store:   st,
			TOTP:    engine,
			Replay:  replay.NewStoreGuard(st),
			Tokens:  tokens,
			Metrics: rec,
			Now:     clock.Now,
		},
		Social:  &service.SocialResolver{Store: st, Hasher: hasher, DefaultRole: domain.RoleUser, Metrics: rec},
		Metrics: rec,
	}
	identities := &service.IdentityService{Store: st, Hasher: hasher}
	provider := &fakeProvider{name: "github"}

	router := NewRouter(keys.KeySet, keys.Verifier, "test", st, slog.New(slog.NewTextHandler(io.Discard, nil)))
	router.AuthService = auth
	router.IdentityService = identities
	router.RolesService = roles
	router.Providers = social.NewRegistry(provider)
	router.Gatherer = reg

	generous := httpx.RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000}
	router.RateLimits = httpx.RateLimits{Strict: generous, Moderate: generous, Public: generous}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{
		t:          t,
		srv:        srv,
		clock:      clock,
		engine:     engine,
		identities: identities,
		provider:   provider,
		registry:   reg,
	}
}

func (s *testServer) createIdentity(email, role string) domain.Identity {
	s.t.Helper()
	i, err := s.identities.CreateIdentity(context.Background(), email, testPassword, role)
	require.NoError(s.t, err)
	return i
}

func (s *testServer) code(secret string) string {
	s.t.Helper()
	c, err := s.engine.Code(secret, s.clock.Now())
	require.NoError(s.t, err)
	return c
}

// wrongCode returns a well-formed code that does not match the current one.
func (s *testServer) wrongCode(secret string) string {
	s.t.Helper()
	c := []byte(s.code(secret))
	c[0] = '0' + (c[0]-'0'+5)%10
	return string(c)
}

// do sends a JSON request and returns the status and raw body.
func (s *testServer) do(method, path, token string, body any) (int, []byte) {
	s.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, s.srv.URL+path, reader)
	require.NoError(s.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.srv.Client().Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	return resp.StatusCode, raw
}

func (s *testServer) login(email string) authsdk.LoginResponse {
	s.t.Helper()
	status, raw := s.do(http.MethodPost, "/v1/auth/login", "", authsdk.LoginRequest{Email: email, Password: testPassword})
	require.Equal(s.t, http.StatusOK, status, string(raw))

	var out authsdk.LoginResponse
	require.NoError(s.t, json.Unmarshal(raw, &out))
	return out
}

// enableMFA enrolls and confirms through the API and returns the secret.
func (s *testServer) enableMFA(token string) string {
	s.t.Helper()

	status, raw := s.do(http.MethodPost, "/v1/mfa/totp/enroll", token, nil)
	require.Equal(s.t, http.StatusOK, status, string(raw))
	var enrollment authsdk.EnrollmentResponse
	require.NoError(s.t, json.Unmarshal(raw, &enrollment))

	status, raw = s.do(http.MethodPost, "/v1/mfa/totp/confirm", token, authsdk.CodeRequest{Code: s.code(enrollment.Secret)})
	require.Equal(s.t, http.StatusOK, status, string(raw))

	s.clock.Advance(30 * time.Second)
	return enrollment.Secret
}

func requireErrorCode(t *testing.T, raw []byte, code string) {
	t.Helper()
	var out authsdk.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	require.Equal(t, code, out.Error)
}
