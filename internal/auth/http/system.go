package http

import (
	"context"
	"net/http"
	"time"

	"github.com/usama-mangi/kushim-web-sub002/pkg/authsdk"
	"github.com/usama-mangi/kushim-web-sub002/pkg/httpx"
	"github.com/usama-mangi/kushim-web-sub002/pkg/jwtx"
)

// SystemHandler serves the probes and the public key set.
type SystemHandler struct {
	StartTime time.Time
	Version   string
	Store     Pinger
	Keys      *jwtx.KeySet
	Replay    Pinger // nil when replay steps live in the store
}

func (h *SystemHandler) health(status string, checks *authsdk.HealthChecks) authsdk.HealthResponse {
	return authsdk.HealthResponse{
		Status:  status,
		Uptime:  time.Since(h.StartTime).String(),
		Version: h.Version,
		Checks:  checks,
	}
}

// HandleLivez godoc
//
//	@Summary		Liveness probe
//	@Description	Returns 200 while the process is serving requests
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get].
func (h *SystemHandler) HandleLivez(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.health("ok", nil))
}

// HandleReadyz godoc
//
//	@Summary		Readiness probe
//	@Description	Checks the store, the signing keys and the Redis replay guard when configured
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"all checks ok"
//	@Failure		503	{object}	authsdk.HealthResponse	"at least one check failed"
//	@Router			/readyz [get].
func (h *SystemHandler) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ready := true

	probe := func(p Pinger) string {
		if err := p.Ping(ctx); err != nil {
			ready = false
			return "error: " + err.Error()
		}
		return "ok"
	}

	checks := &authsdk.HealthChecks{
		Database: probe(h.Store),
		Signer:   probe(keySetProbe{h.Keys}),
	}
	if h.Replay != nil {
		checks.Replay = probe(h.Replay)
	}

	if !ready {
		httpx.WriteJSON(w, http.StatusServiceUnavailable, h.health("degraded", checks))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, h.health("ok", checks))
}

// HandleJWKS godoc
//
//	@Summary		Get JWKS
//	@Description	Public keys for offline verification of issued tokens
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	authsdk.JWKSResponse	"The JSON Web Key Set"
//	@Router			/.well-known/jwks.json [get].
func (h *SystemHandler) HandleJWKS(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, authsdk.JWKSResponse(h.Keys.PublicJWKS()))
}

type keySetProbe struct{ keys *jwtx.KeySet }

func (p keySetProbe) Ping(context.Context) error {
	if !p.keys.IsReady() {
		return errNoSigningKeys
	}
	return nil
}
