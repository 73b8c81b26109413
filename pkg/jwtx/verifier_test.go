package jwtx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"github.com/usama-mangi/kushim-web-sub002/pkg/cryptox"
	"github.com/usama-mangi/kushim-web-sub002/pkg/jwtx"
)

func newTestSigner(t *testing.T, alg, kid string) jwtx.Signer {
	t.Helper()

	var (
		pemBytes []byte
		err      error
	)
	switch alg {
	case jwtx.AlgorithmEdDSA:
		pemBytes, err = cryptox.GenerateEd25519Key()
	case jwtx.AlgorithmES256:
		pemBytes, err = cryptox.GenerateES256Key()
	case jwtx.AlgorithmRS256:
		pemBytes, err = cryptox.GenerateRSAKey(2048)
	}
	require.NoError(t, err)

	s, err := jwtx.NewSigner(alg, kid, pemBytes)
	require.NoError(t, err)
	return s
}

func TestVerifier_Rejections(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	signer := newTestSigner(t, jwtx.AlgorithmEdDSA, "k1")

	keys := jwtx.NewKeySet()
	require.NoError(t, keys.AddSigner(signer))

	v := jwtx.NewVerifier(keys, jwtx.VerifyOptions{
		Issuer:   "kushim-auth",
		Audience: []string{"web"},
		Now:      func() time.Time { return now },
	})

	sign := func(c jwtx.Claims) string {
		tok, err := signer.Sign(c)
		require.NoError(t, err)
		return tok
	}

	valid := jwtx.NewFullClaims("u1", "a@example.com", "user", nil, time.Hour, "kushim-auth", []string{"web"}, now)
	_, err := v.Verify(sign(valid))
	require.NoError(t, err)

	t.Run("wrong issuer", func(t *testing.T) {
		c := valid
		c.Issuer = "evil"
		_, err := v.Verify(sign(c))
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})

	t.Run("wrong audience", func(t *testing.T) {
		c := valid
		c.Audience = jwt.ClaimStrings{"mobile"}
		_, err := v.Verify(sign(c))
		require.ErrorIs(t, err, jwtx.ErrAudience)
	})

	t.Run("expired", func(t *testing.T) {
		c := jwtx.NewFullClaims("u1", "a@example.com", "user", nil, time.Minute, "kushim-auth", []string{"web"}, now.Add(-time.Hour))
		_, err := v.Verify(sign(c))
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("unknown kid", func(t *testing.T) {
		other := newTestSigner(t, jwtx.AlgorithmEdDSA, "k2")
		tok, err := other.Sign(valid)
		require.NoError(t, err)

		_, err = v.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrUnknownKID)
	})

	t.Run("tampered signature", func(t *testing.T) {
		tok := sign(valid)
		parts := strings.Split(tok, ".")
		sig := []byte(parts[2])
		if sig[0] == 'A' {
			sig[0] = 'B'
		} else {
			sig[0] = 'A'
		}
		_, err := v.Verify(parts[0] + "." + parts[1] + "." + string(sig))
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := v.Verify("not.a.jwt")
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})
}

func TestVerifier_AlgMismatch(t *testing.T) {
	ed := newTestSigner(t, jwtx.AlgorithmEdDSA, "shared")
	es := newTestSigner(t, jwtx.AlgorithmES256, "shared")

	keys := jwtx.NewKeySet()
	require.NoError(t, keys.AddSigner(ed))

	v := jwtx.NewVerifier(keys, jwtx.VerifyOptions{})

	tok, err := es.Sign(jwtx.NewFullClaims("u1", "a@example.com", "user", nil, time.Hour, "", nil, time.Now()))
	require.NoError(t, err)

	_, err = v.Verify(tok)
	require.ErrorIs(t, err, jwtx.ErrAlgMismatch)
}

func TestVerifier_MixedAlgorithmsInOneSet(t *testing.T) {
	keys := jwtx.NewKeySet()
	signers := []jwtx.Signer{
		newTestSigner(t, jwtx.AlgorithmEdDSA, "ed"),
		newTestSigner(t, jwtx.AlgorithmES256, "es"),
		newTestSigner(t, jwtx.AlgorithmRS256, "rs"),
	}
	for _, s := range signers {
		require.NoError(t, keys.AddSigner(s))
	}

	v := jwtx.NewVerifier(keys, jwtx.VerifyOptions{Issuer: "iss"})
	for _, s := range signers {
		tok, err := s.Sign(jwtx.NewFullClaims("u1", "a@example.com", "user", nil, time.Hour, "iss", nil, time.Now()))
		require.NoError(t, err)

		_, err = v.Verify(tok)
		require.NoError(t, err, s.Alg())
	}
}

func TestNewSigner_KeyTypeMustMatch(t *testing.T) {
	edPEM, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)

	_, err = jwtx.NewSigner(jwtx.AlgorithmES256, "k", edPEM)
	require.Error(t, err)

	_, err = jwtx.NewSigner(jwtx.AlgorithmRS256, "k", edPEM)
	require.Error(t, err)

	_, err = jwtx.NewSigner("HS256", "k", edPEM)
	require.Error(t, err)

	_, err = jwtx.NewSigner(jwtx.AlgorithmEdDSA, "k", []byte("garbage"))
	require.Error(t, err)
}
