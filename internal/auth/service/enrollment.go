package service

import (
	"context"
	"errors"
	"time"

	"github.com/usama-mangi/kushim-web-sub002/internal/auth/domain"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store"
	"github.com/usama-mangi/kushim-web-sub002/pkg/otpx"
	"github.com/usama-mangi/kushim-web-sub002/pkg/slogx"
)

// EnrollmentManager starts TOTP enrollment. It stores a pending secret but
// never enables MFA; that is MFAVerifier.ConfirmEnrollment's job.
type EnrollmentManager struct {
	Store  store.Store
	TOTP   TOTPEngine
	QRSize int // pixels, defaults to otpx.DefaultQRSize
	Now    func() time.Time
}

// BeginEnrollment generates a fresh secret for userID and overwrites any
// pending one. It fails with ErrMFAAlreadyEnabled once MFA is on.
func (m *EnrollmentManager) BeginEnrollment(ctx context.Context, userID string) (domain.Enrollment, error) {
	const op = "service.BeginEnrollment"

	identity, err := m.Store.Identities().GetIdentityByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Enrollment{}, newError(KindIdentityNotFound, op, nil)
	}
	if err != nil {
		return domain.Enrollment{}, newError(KindInternal, op, err)
	}
	if identity.MFAEnabled {
		return domain.Enrollment{}, newError(KindMFAAlreadyEnabled, op, nil)
	}

	key, err := m.TOTP.Generate(identity.Email)
	if err != nil {
		return domain.Enrollment{}, newError(KindInternal, op, err)
	}

	size := m.QRSize
	if size <= 0 {
		size = otpx.DefaultQRSize
	}
	png, err := otpx.QRCodePNG(key.URI, size)
	if err != nil {
		return domain.Enrollment{}, newError(KindInternal, op, err)
	}

	err = m.Store.Identities().SetPendingMFASecret(ctx, identity.ID, key.Secret, nowFunc(m.Now))
	switch {
	case errors.Is(err, store.ErrConflict):
		// confirmed between our read and write
		return domain.Enrollment{}, newError(KindMFAAlreadyEnabled, op, err)
	case errors.Is(err, store.ErrNotFound):
		return domain.Enrollment{}, newError(KindIdentityNotFound, op, nil)
	case err != nil:
		return domain.Enrollment{}, newError(KindInternal, op, err)
	}

	slogx.FromContext(ctx).Info("mfa enrollment started", "identity_id", identity.ID, "replaced_pending", identity.MFAPending())

	return domain.Enrollment{
		Secret:          key.Secret,
		ProvisioningURI: key.URI,
		QRCodePNG:       png,
		QRCodeDataURL:   otpx.DataURL(png),
	}, nil
}
