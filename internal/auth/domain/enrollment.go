package domain

// Enrollment is what a user needs to add the account to an authenticator app.
type Enrollment struct {
	Secret          string // base32
	ProvisioningURI string // otpauth://totp/...
	QRCodePNG       []byte
	QRCodeDataURL   string // data:image/png;base64,...
}
