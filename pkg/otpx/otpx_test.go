package otpx_test

import (
	"bytes"
	"image/png"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/usama-mangi/kushim-web-sub002/pkg/otpx"
)

func TestGenerate(t *testing.T) {
	e := otpx.NewEngine("Kushim")

	key, err := e.Generate("alice@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, key.Secret)

	u, err := url.Parse(key.URI)
	require.NoError(t, err)
	require.Equal(t, "otpauth", u.Scheme)
	require.Equal(t, "totp", u.Host)
	require.Contains(t, u.Path, "alice@example.com")

	q := u.Query()
	require.Equal(t, key.Secret, q.Get("secret"))
	require.Equal(t, "Kushim", q.Get("issuer"))
	require.Equal(t, "30", q.Get("period"))
	require.Equal(t, "6", q.Get("digits"))

	other, err := e.Generate("alice@example.com")
	require.NoError(t, err)
	require.NotEqual(t, key.Secret, other.Secret)
}

func TestVerify_Window(t *testing.T) {
	e := otpx.NewEngine("Kushim")
	key, err := e.Generate("bob@example.com")
	require.NoError(t, err)

	now := time.Unix(1_700_000_015, 0).UTC()
	current := now.Unix() / 30

	tests := []struct {
		name     string
		codeAt   time.Time
		wantOK   bool
		wantStep int64
	}{
		{"current step", now, true, current},
		{"previous step", now.Add(-30 * time.Second), true, current - 1},
		{"next step", now.Add(30 * time.Second), true, current + 1},
		{"two steps old", now.Add(-60 * time.Second), false, 0},
		{"two steps ahead", now.Add(60 * time.Second), false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := e.Code(key.Secret, tt.codeAt)
			require.NoError(t, err)

			step, ok, err := e.Verify(key.Secret, code, now)
			require.NoError(t, err)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				require.Equal(t, tt.wantStep, step)
			}
		})
	}
}

func TestVerify_Malformed(t *testing.T) {
	e := otpx.NewEngine("Kushim")
	key, err := e.Generate("carol@example.com")
	require.NoError(t, err)

	now := time.Now()
	for _, code := range []string{"", "12345", "1234567", "abcdef", "12 456"} {
		_, ok, err := e.Verify(key.Secret, code, now)
		require.NoError(t, err)
		require.False(t, ok, "code %q", code)
	}
}

func TestVerify_TrimsWhitespace(t *testing.T) {
	e := otpx.NewEngine("Kushim")
	key, err := e.Generate("dave@example.com")
	require.NoError(t, err)

	now := time.Now()
	code, err := e.Code(key.Secret, now)
	require.NoError(t, err)

	_, ok, err := e.Verify(key.Secret, " "+code+"\n", now)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestVerify_EmptySecret(t *testing.T) {
	e := otpx.NewEngine("Kushim")
	_, _, err := e.Verify("", "123456", time.Now())
	require.ErrorIs(t, err, otpx.ErrEmptySecret)
}

func TestWindow(t *testing.T) {
	e := otpx.NewEngine("Kushim")
	require.Equal(t, 30*time.Second, e.StepDuration())
	require.Equal(t, 90*time.Second, e.Window())
}

func TestQRCodePNG(t *testing.T) {
	e := otpx.NewEngine("Kushim")
	key, err := e.Generate("erin@example.com")
	require.NoError(t, err)

	data, err := otpx.QRCodePNG(key.URI, 200)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 200, img.Bounds().Dx())
	require.Equal(t, 200, img.Bounds().Dy())

	dataURL := otpx.DataURL(data)
	require.True(t, strings.HasPrefix(dataURL, "data:image/png;base64,"))
}
