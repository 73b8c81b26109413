// Package otpx wraps RFC 6238 TOTP generation and verification and renders
// provisioning URIs as QR codes for authenticator apps.
package otpx

import (
	"bytes"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"strings"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// Defaults follow RFC 6238 and match what common authenticator apps expect.
const (
	DefaultPeriod     = 30
	DefaultSkew       = 1
	DefaultSecretSize = 20
	DefaultQRSize     = 256
)

// ErrEmptySecret is returned when verification is attempted without a secret.
var ErrEmptySecret = errors.New("otpx: empty secret")

// Engine generates and verifies SHA1 TOTP codes.
//
// A zero Engine is usable once Issuer is set; Period, Skew and Digits fall
// back to the defaults above.
type Engine struct {
	Issuer string
	Period uint
	Skew   uint
	Digits otp.Digits
}

// NewEngine returns an Engine with default period, skew and six digits.
func NewEngine(issuer string) *Engine {
	return &Engine{
		Issuer: issuer,
		Period: DefaultPeriod,
		Skew:   DefaultSkew,
		Digits: otp.DigitsSix,
	}
}

// Key is a freshly generated secret together with its otpauth:// URI.
type Key struct {
	Secret string
	URI    string
}

// Generate creates a new base32 secret for account.
func (e *Engine) Generate(account string) (Key, error) {
	k, err := totp.Generate(totp.GenerateOpts{
		Issuer:      e.Issuer,
		AccountName: account,
		Period:      e.period(),
		SecretSize:  DefaultSecretSize,
		Digits:      e.digits(),
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return Key{}, fmt.Errorf("otpx: generate secret: %w", err)
	}

	return Key{Secret: k.Secret(), URI: k.URL()}, nil
}

// Verify checks code against secret at time at, accepting the current step
// and Skew steps either side. On success it returns the absolute step index
// that matched so callers can reject replays of the same step.
func (e *Engine) Verify(secret, code string, at time.Time) (int64, bool, error) {
	if secret == "" {
		return 0, false, ErrEmptySecret
	}

	code = strings.TrimSpace(code)
	if !e.wellFormed(code) {
		return 0, false, nil
	}

	period := e.period()
	current := at.Unix() / int64(period)

	offsets := []int64{0}
	for i := int64(1); i <= int64(e.Skew); i++ {
		offsets = append(offsets, -i, i)
	}

	opts := totp.ValidateOpts{
		Period:    period,
		Digits:    e.digits(),
		Algorithm: otp.AlgorithmSHA1,
	}

	for _, off := range offsets {
		step := current + off
		want, err := totp.GenerateCodeCustom(secret, time.Unix(step*int64(period), 0).UTC(), opts)
		if err != nil {
			return 0, false, fmt.Errorf("otpx: generate code: %w", err)
		}
		if subtle.ConstantTimeCompare([]byte(want), []byte(code)) == 1 {
			return step, true, nil
		}
	}

	return 0, false, nil
}

// Code returns the code for secret at time at.
func (e *Engine) Code(secret string, at time.Time) (string, error) {
	code, err := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period:    e.period(),
		Digits:    e.digits(),
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("otpx: generate code: %w", err)
	}
	return code, nil
}

// StepDuration is the length of one TOTP step.
func (e *Engine) StepDuration() time.Duration {
	return time.Duration(e.period()) * time.Second
}

// Window is how long a matched step could still be accepted, used as the
// retention period for consumed steps.
func (e *Engine) Window() time.Duration {
	return time.Duration(2*e.Skew+1) * e.StepDuration()
}

func (e *Engine) wellFormed(code string) bool {
	if len(code) != e.digits().Length() {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (e *Engine) period() uint {
	if e.Period == 0 {
		return DefaultPeriod
	}
	return e.Period
}

func (e *Engine) digits() otp.Digits {
	if e.Digits == 0 {
		return otp.DigitsSix
	}
	return e.Digits
}

// QRCodePNG renders uri as a square PNG of size pixels.
func QRCodePNG(uri string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultQRSize
	}

	code, err := qr.Encode(uri, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("otpx: encode qr: %w", err)
	}
	code, err = barcode.Scale(code, size, size)
	if err != nil {
		return nil, fmt.Errorf("otpx: scale qr: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, code); err != nil {
		return nil, fmt.Errorf("otpx: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURL returns png as a data: URL suitable for an <img> src attribute.
func DataURL(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}
