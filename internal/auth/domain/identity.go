package domain

import "time"

// Identity is a local account. Email is the lookup key; ID never changes.
type Identity struct {
	ID             string
	Email          string
	CredentialHash string // PHC string; social accounts hold a hashed random placeholder
	RoleID         string // Foreign key to roles table, never empty
	MFAEnabled     bool
	MFAEnabledAt   *time.Time // informational
	MFASecret      *string    // base32 TOTP secret, set while enrollment is pending or confirmed
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasMFASecret reports whether a non-empty secret is stored.
func (i Identity) HasMFASecret() bool {
	return i.MFASecret != nil && *i.MFASecret != ""
}

// MFAPending reports whether a secret is stored but not yet confirmed.
func (i Identity) MFAPending() bool {
	return !i.MFAEnabled && i.HasMFASecret()
}

// Sanitized returns a copy without credential material, safe to hand back
// to callers outside the service layer.
func (i Identity) Sanitized() Identity {
	i.CredentialHash = ""
	i.MFASecret = nil
	return i
}
