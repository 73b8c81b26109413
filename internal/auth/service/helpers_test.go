package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/domain"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/replay"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store/drivers/sqlite"
	"github.com/usama-mangi/kushim-web-sub002/pkg/cryptox"
	"github.com/usama-mangi/kushim-web-sub002/pkg/jwtx"
	"github.com/usama-mangi/kushim-web-sub002/pkg/otpx"
)

const (
	testIssuer   = "kushim-test"
	testPassword = "correct horse battery"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	// Start a few seconds into a fresh TOTP step.
	now := time.Now().UTC().Truncate(30 * time.Second).Add(5 * time.Second)
	return &testClock{t: now}
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

// countingHasher records how many verifications ran.
type countingHasher struct {
	PasswordHasher

	mu       sync.Mutex
	verifies int
}

func (h *countingHasher) Verify(plaintext, encoded string) error {
	h.mu.Lock()
	h.verifies++
	h.mu.Unlock()
	return h.PasswordHasher.Verify(plaintext, encoded)
}

func (h *countingHasher) Verifies() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.verifies
}

type harness struct {
	store      store.Store
	clock      *testClock
	engine     *otpx.Engine
	keys       *jwtx.KeyManager
	hasher     *countingHasher
	auth       *AuthService
	identities *IdentityService
	roles      *RolesService
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestHasher() *cryptox.Argon2Hasher {
	h := cryptox.NewArgon2Hasher("test-pepper")
	h.Memory = 1024
	h.Iterations = 1
	return h
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	s := newTestStore(t)
	clock := newTestClock()
	engine := otpx.NewEngine("Kushim")
	hasher := &countingHasher{PasswordHasher: newTestHasher()}

	keys, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Algorithm: jwtx.AlgorithmEdDSA,
		Issuer:    testIssuer,
		NumKeys:   1,
	})
	require.NoError(t, err)

	roles := &RolesService{Store: s, Now: clock.Now}
	require.NoError(t, roles.EnsureRoles(context.Background(), domain.RoleAdmin, domain.RoleUser))

	// Tokens use the wall clock so the verifier accepts them.
	tokens := &TokenIssuer{Store: s, Signer: keys, Issuer: testIssuer}
	credentials, err := NewCredentialValidator(s, hasher)
	require.NoError(t, err)

	auth := &AuthService{
		Credentials: credentials,
		Tokens:      tokens,
		Enrollment:  &EnrollmentManager{Store: s, TOTP: engine, QRSize: 128, Now: clock.Now},
		MFA: &MFAVerifier{
			Store:  s,
			TOTP:   engine,
			Replay: replay.NewStoreGuard(s),
			Tokens: tokens,
			Now:    clock.Now,
		},
		Social: &SocialResolver{Store: s, Hasher: hasher, DefaultRole: domain.RoleUser, Now: clock.Now},
	}

	return &harness{
		store:      s,
		clock:      clock,
		engine:     engine,
		keys:       keys,
		hasher:     hasher,
		auth:       auth,
		identities: &IdentityService{Store: s, Hasher: hasher, Now: clock.Now},
		roles:      roles,
	}
}

func (h *harness) createIdentity(t *testing.T, email string) domain.Identity {
	t.Helper()
	i, err := h.identities.CreateIdentity(context.Background(), email, testPassword, domain.RoleUser)
	require.NoError(t, err)
	return i
}

func (h *harness) code(t *testing.T, secret string) string {
	t.Helper()
	c, err := h.engine.Code(secret, h.clock.Now())
	require.NoError(t, err)
	return c
}

// wrongCode returns a well-formed code that does not match the current one.
func (h *harness) wrongCode(t *testing.T, secret string) string {
	t.Helper()
	c := []byte(h.code(t, secret))
	c[0] = '0' + (c[0]-'0'+5)%10
	return string(c)
}

// enableMFA enrolls and confirms, then moves the clock to the next step.
func (h *harness) enableMFA(t *testing.T, id string) string {
	t.Helper()
	ctx := context.Background()

	enrollment, err := h.auth.BeginEnrollment(ctx, id)
	require.NoError(t, err)
	require.NoError(t, h.auth.ConfirmEnrollment(ctx, id, h.code(t, enrollment.Secret)))
	h.clock.Advance(30 * time.Second)
	return enrollment.Secret
}

func (h *harness) identity(t *testing.T, id string) domain.Identity {
	t.Helper()
	i, err := h.store.Identities().GetIdentityByID(context.Background(), id)
	require.NoError(t, err)
	return i
}

// rolesOverride swaps the Roles repository of a store.
type rolesOverride struct {
	store.Store
	roles store.Roles
}

func (r rolesOverride) Roles() store.Roles { return r.roles }

type failingRoles struct {
	store.Roles
	err error
}

func (f failingRoles) GetRoleByID(context.Context, string) (domain.Role, error) {
	return domain.Role{}, f.err
}
