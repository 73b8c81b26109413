package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesKind(t *testing.T) {
	cause := errors.New("boom")
	err := newError(KindInvalidCode, "service.VerifyLogin", cause)

	require.ErrorIs(t, err, ErrInvalidCode)
	require.NotErrorIs(t, err, ErrUnauthorized)
	require.ErrorIs(t, err, cause)
	require.Equal(t, "service.VerifyLogin: invalid_code: boom", err.Error())

	wrapped := fmt.Errorf("handler: %w", err)
	require.ErrorIs(t, wrapped, ErrInvalidCode)
	require.Equal(t, KindInvalidCode, KindOf(wrapped))
}

func TestKindOf(t *testing.T) {
	require.Equal(t, ErrorKind(""), KindOf(nil))
	require.Equal(t, KindInternal, KindOf(errors.New("plain")))
	require.Equal(t, KindUnauthorized, KindOf(ErrUnauthorized))
}

func TestErrorKind_Recoverable(t *testing.T) {
	recoverable := []ErrorKind{
		KindUnauthorized, KindInvalidCode, KindMFANotPending,
		KindMFANotEnabled, KindMFAAlreadyEnabled, KindIdentityNotFound,
	}
	for _, k := range recoverable {
		require.True(t, k.Recoverable(), k)
	}
	require.False(t, KindRoleResolution.Recoverable())
	require.False(t, KindInternal.Recoverable())
}
