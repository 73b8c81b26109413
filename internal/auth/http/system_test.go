package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/usama-mangi/kushim-web-sub002/pkg/authsdk"
	"github.com/usama-mangi/kushim-web-sub002/pkg/jwtx"
)

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHandleReadyz(t *testing.T) {
	km, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{Algorithm: jwtx.AlgorithmEdDSA, Issuer: "test", NumKeys: 1})
	require.NoError(t, err)

	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name     string
		h        SystemHandler
		status   int
		database string
		signer   string
		replay   string
	}{
		{"ready", SystemHandler{Store: ok, Keys: km.KeySet}, http.StatusOK, "ok", "ok", ""},
		{"ready with redis", SystemHandler{Store: ok, Keys: km.KeySet, Replay: ok}, http.StatusOK, "ok", "ok", "ok"},
		{"store down", SystemHandler{Store: down, Keys: km.KeySet}, http.StatusServiceUnavailable, "error: connection refused", "ok", ""},
		{"no keys", SystemHandler{Store: ok, Keys: jwtx.NewKeySet()}, http.StatusServiceUnavailable, "ok", "error: no keys loaded", ""},
		{"redis down", SystemHandler{Store: ok, Keys: km.KeySet, Replay: down}, http.StatusServiceUnavailable, "ok", "ok", "error: connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.h.StartTime = time.Now()
			tt.h.Version = "test"

			rec := httptest.NewRecorder()
			tt.h.HandleReadyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			require.Equal(t, tt.status, rec.Code)

			var body authsdk.HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Equal(t, "test", body.Version)
			require.NotNil(t, body.Checks)
			require.Equal(t, tt.database, body.Checks.Database)
			require.Equal(t, tt.signer, body.Checks.Signer)
			require.Equal(t, tt.replay, body.Checks.Replay)
			if tt.status == http.StatusOK {
				require.Equal(t, "ok", body.Status)
			} else {
				require.Equal(t, "degraded", body.Status)
			}
		})
	}
}
