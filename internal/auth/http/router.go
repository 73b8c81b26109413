package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/usama-mangi/kushim-web-sub002/api/auth" // Swagger docs
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/domain"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/metrics"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/service"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/social"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store"
	"github.com/usama-mangi/kushim-web-sub002/pkg/httpx"
	"github.com/usama-mangi/kushim-web-sub002/pkg/jwtx"
	"github.com/usama-mangi/kushim-web-sub002/pkg/slogx"
)

// Pinger is a readiness dependency: the store, or the Redis replay guard.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	verifier     httpx.SessionVerifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	AuthService     *service.AuthService
	IdentityService *service.IdentityService
	RolesService    *service.RolesService
	Providers       *social.Registry // nil disables social login
	Gatherer        prometheus.Gatherer
	Replay          Pinger // checked by /readyz when set
	RateLimits      httpx.RateLimits
	SecureCookies   bool
}

func NewRouter(
	keys *jwtx.KeySet,
	verifier httpx.SessionVerifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		RateLimits:   httpx.DefaultRateLimits(),
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerMFA()
	r.registerSocial()
	r.registerIdentity()
	r.registerRoles()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Authentication Service API
//	@version		0.1.0
//	@description	Password and social login with TOTP multi-factor authentication.
//	@description
//	@description				Identities with MFA enabled receive a short lived challenge token from login.
//	@description				Only POST /v1/auth/mfa/verify accepts it; every other protected route needs a full access token.
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access or challenge token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &LoginHandler{AuthService: r.AuthService}

	// Limited by IP + email body field to slow down password guessing.
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(h,
			httpx.RateLimitByIPAndJSONField(r.RateLimits.Strict, "email"),
		),
	)
}

func (r *Router) registerMFA() {
	h := &MFAHandler{AuthService: r.AuthService}

	enroll := httpx.Chain(http.HandlerFunc(h.HandleEnroll),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireFullSession(),
		httpx.RateLimitBySubject(r.RateLimits.Moderate),
	)

	// Strict limits on both code endpoints; a 6 digit code is brute-forceable.
	confirm := httpx.Chain(http.HandlerFunc(h.HandleConfirm),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireFullSession(),
		httpx.RateLimitBySubject(r.RateLimits.Strict),
	)

	verify := httpx.Chain(http.HandlerFunc(h.HandleVerify),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireChallenge(),
		httpx.RateLimitBySubject(r.RateLimits.Strict),
	)

	r.Mux.Handle("POST /v1/mfa/totp/enroll", enroll)
	r.Mux.Handle("POST /v1/mfa/totp/confirm", confirm)
	r.Mux.Handle("POST /v1/auth/mfa/verify", verify)
}

func (r *Router) registerSocial() {
	if r.Providers == nil {
		return
	}

	h := &SocialHandler{
		AuthService:   r.AuthService,
		Providers:     r.Providers,
		SecureCookies: r.SecureCookies,
	}

	r.Mux.Handle("GET /v1/auth/social/{provider}/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(r.RateLimits.Moderate),
		),
	)
	r.Mux.Handle("GET /v1/auth/social/{provider}/callback",
		httpx.Chain(http.HandlerFunc(h.HandleCallback),
			httpx.RateLimitByIP(r.RateLimits.Strict),
		),
	)
}

func (r *Router) registerIdentity() {
	h := &MeHandler{IdentityService: r.IdentityService}

	r.Mux.Handle("GET /v1/me",
		httpx.Chain(h,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireFullSession(),
			httpx.RateLimitBySubject(r.RateLimits.Moderate),
		),
	)
}

func (r *Router) registerRoles() {
	h := &RolesHandler{RolesService: r.RolesService}

	r.Mux.Handle("GET /v1/roles",
		httpx.Chain(h,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireFullSession(),
			httpx.RequireRole(domain.RoleAdmin),
			httpx.RateLimitBySubject(r.RateLimits.Moderate),
		),
	)
}

func (r *Router) registerSystem() {
	h := &SystemHandler{
		StartTime: r.startTime,
		Version:   r.buildVersion,
		Store:     r.store,
		Keys:      r.keys,
		Replay:    r.Replay,
	}
	public := httpx.RateLimitByIP(r.RateLimits.Public)

	r.Mux.Handle("GET /livez", httpx.Chain(http.HandlerFunc(h.HandleLivez), public))
	r.Mux.Handle("GET /readyz", httpx.Chain(http.HandlerFunc(h.HandleReadyz), public))
	r.Mux.Handle("GET /.well-known/jwks.json", httpx.Chain(http.HandlerFunc(h.HandleJWKS), public))

	if r.Gatherer != nil {
		r.Mux.Handle("GET /metrics", metrics.Handler(r.Gatherer))
	}
}
