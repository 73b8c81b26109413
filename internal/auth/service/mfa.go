package service

import (
	"context"
	"errors"
	"time"

	"github.com/usama-mangi/kushim-web-sub002/internal/auth/domain"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/metrics"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store"
	"github.com/usama-mangi/kushim-web-sub002/pkg/jwtx"
	"github.com/usama-mangi/kushim-web-sub002/pkg/slogx"
)

// MFA operation labels used in logs and metrics.
const (
	opConfirm = "confirm_enrollment"
	opVerify  = "verify_login"
)

// MFAVerifier checks TOTP codes for enrollment confirmation and for the
// second login step. Every accepted code is burned in the ReplayGuard.
type MFAVerifier struct {
	Store   store.Store
	TOTP    TOTPEngine
	Replay  ReplayGuard
	Tokens  *TokenIssuer
	Metrics metrics.Recorder
	Now     func() time.Time
}

// ConfirmEnrollment enables MFA if code matches the pending secret. MFA is
// only enabled against the exact secret the code was checked with.
func (v *MFAVerifier) ConfirmEnrollment(ctx context.Context, userID, code string) error {
	const op = "service.ConfirmEnrollment"
	rec := metrics.OrNop(v.Metrics)

	identity, err := v.loadIdentity(ctx, op, userID)
	if err != nil {
		return err
	}
	if identity.MFAEnabled {
		return newError(KindMFAAlreadyEnabled, op, nil)
	}
	if !identity.HasMFASecret() {
		return newError(KindMFANotPending, op, nil)
	}
	secret := *identity.MFASecret

	now := nowFunc(v.Now)
	if err := v.checkCode(ctx, op, opConfirm, identity.ID, secret, code, now); err != nil {
		return err
	}

	err = v.Store.Identities().EnableMFA(ctx, identity.ID, secret, now)
	if errors.Is(err, store.ErrConflict) {
		return v.lostRace(ctx, op, identity.ID, err)
	}
	if err != nil {
		rec.RecordMFA(opConfirm, metrics.OutcomeError)
		return newError(KindInternal, op, err)
	}

	rec.RecordMFA(opConfirm, metrics.OutcomeSuccess)
	slogx.FromContext(ctx).Info("mfa enabled", "identity_id", identity.ID)
	return nil
}

// lostRace explains a failed conditional enable: either someone else
// confirmed first, or the secret was replaced after the code was checked.
func (v *MFAVerifier) lostRace(ctx context.Context, op, identityID string, cause error) error {
	current, err := v.Store.Identities().GetIdentityByID(ctx, identityID)
	if err == nil && current.MFAEnabled {
		return newError(KindMFAAlreadyEnabled, op, cause)
	}
	slogx.FromContext(ctx).Warn("mfa confirmation lost race with a new enrollment", "identity_id", identityID)
	metrics.OrNop(v.Metrics).RecordMFA(opConfirm, metrics.OutcomeRejected)
	return newError(KindInvalidCode, op, cause)
}

// VerifyLogin completes a challenged login and returns a full token with
// amr ["pwd","otp","mfa"].
func (v *MFAVerifier) VerifyLogin(ctx context.Context, userID, code string) (FullToken, error) {
	const op = "service.VerifyLogin"

	identity, err := v.loadIdentity(ctx, op, userID)
	if err != nil {
		return FullToken{}, err
	}
	if !identity.MFAEnabled || !identity.HasMFASecret() {
		return FullToken{}, newError(KindMFANotEnabled, op, nil)
	}

	if err := v.checkCode(ctx, op, opVerify, identity.ID, *identity.MFASecret, code, nowFunc(v.Now)); err != nil {
		return FullToken{}, err
	}

	token, err := v.Tokens.IssueFullToken(ctx, identity, []string{jwtx.AMRPassword, jwtx.AMROTP, jwtx.AMRMFA})
	if err != nil {
		return FullToken{}, err
	}
	metrics.OrNop(v.Metrics).RecordMFA(opVerify, metrics.OutcomeSuccess)
	return token, nil
}

func (v *MFAVerifier) loadIdentity(ctx context.Context, op, userID string) (domain.Identity, error) {
	identity, err := v.Store.Identities().GetIdentityByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Identity{}, newError(KindIdentityNotFound, op, nil)
	}
	if err != nil {
		return domain.Identity{}, newError(KindInternal, op, err)
	}
	return identity, nil
}

// checkCode verifies code against secret and consumes the matched step.
func (v *MFAVerifier) checkCode(ctx context.Context, op, label, identityID, secret, code string, now time.Time) error {
	log := slogx.FromContext(ctx)
	rec := metrics.OrNop(v.Metrics)

	step, ok, err := v.TOTP.Verify(secret, code, now)
	if err != nil {
		rec.RecordMFA(label, metrics.OutcomeError)
		return newError(KindInternal, op, err)
	}
	if !ok {
		log.Warn("totp code rejected", "identity_id", identityID, "operation", label)
		rec.RecordMFA(label, metrics.OutcomeRejected)
		return newError(KindInvalidCode, op, nil)
	}

	fresh, err := v.Replay.Consume(ctx, identityID, step, now.Add(v.TOTP.Window()))
	if err != nil {
		rec.RecordMFA(label, metrics.OutcomeError)
		return newError(KindInternal, op, err)
	}
	if !fresh {
		log.Warn("totp code replayed", "identity_id", identityID, "operation", label)
		rec.RecordMFA(label, metrics.OutcomeReplayed)
		return newError(KindInvalidCode, op, nil)
	}
	return nil
}
