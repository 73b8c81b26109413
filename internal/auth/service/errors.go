package service

import "errors"

// ErrorKind classifies service failures. The string value doubles as the
// machine readable error code on the HTTP surface.
type ErrorKind string

const (
	KindUnauthorized      ErrorKind = "unauthorized"
	KindInvalidCode       ErrorKind = "invalid_code"
	KindMFANotPending     ErrorKind = "mfa_not_pending"
	KindMFANotEnabled     ErrorKind = "mfa_not_enabled"
	KindMFAAlreadyEnabled ErrorKind = "mfa_already_enabled"
	KindIdentityNotFound  ErrorKind = "identity_not_found"
	KindRoleResolution    ErrorKind = "role_resolution"
	KindInternal          ErrorKind = "internal"
)

// Recoverable is false for failures the caller cannot fix by retrying
// with different input.
func (k ErrorKind) Recoverable() bool {
	return k != KindRoleResolution && k != KindInternal
}

func (k ErrorKind) String() string { return string(k) }

// Error is returned by every service operation.
type Error struct {
	Kind ErrorKind
	Op   string // e.g. "service.VerifyLogin"
	Err  error  // underlying cause, never shown to clients
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrInvalidCode)
// works regardless of Op and cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrUnauthorized      = &Error{Kind: KindUnauthorized}
	ErrInvalidCode       = &Error{Kind: KindInvalidCode}
	ErrMFANotPending     = &Error{Kind: KindMFANotPending}
	ErrMFANotEnabled     = &Error{Kind: KindMFANotEnabled}
	ErrMFAAlreadyEnabled = &Error{Kind: KindMFAAlreadyEnabled}
	ErrIdentityNotFound  = &Error{Kind: KindIdentityNotFound}
	ErrRoleResolution    = &Error{Kind: KindRoleResolution}
	ErrInternal          = &Error{Kind: KindInternal}
)

func newError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of err. Errors that did not come from this
// package are KindInternal; nil has no kind.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}
