package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/usama-mangi/kushim-web-sub002/internal/auth/domain"
	httpapi "github.com/usama-mangi/kushim-web-sub002/internal/auth/http"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/metrics"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/replay"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/service"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/social"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store"
	"github.com/usama-mangi/kushim-web-sub002/pkg/httpx"
	"github.com/usama-mangi/kushim-web-sub002/pkg/jwtx"
	"github.com/usama-mangi/kushim-web-sub002/pkg/otpx"
	"github.com/usama-mangi/kushim-web-sub002/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags "-X ...app.BuildVersion=...".
var BuildVersion = "v0.1.0"

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db         store.Store
	keyManager *jwtx.KeyManager
	redis      redis.UniversalClient // nil unless the redis replay backend is used
	registry   *prometheus.Registry
	recorder   *metrics.Collector

	// Services
	authService         *service.AuthService
	identityService     *service.IdentityService
	rolesService        *service.RolesService
	housekeepingService *service.HousekeepingService
	replayGuard         service.ReplayGuard
	providers           *social.Registry

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// NewLogger builds the service logger from cfg.
func NewLogger(cfg Config) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: "auth-service",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
}

// New creates a new Application instance with all dependencies initialized
func New(ctx context.Context, cfg Config) (*Application, error) {
	app := &Application{
		cfg:    cfg,
		logger: NewLogger(cfg),
	}

	// Database first; persistent keys live in it.
	db, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}
	app.db = db
	app.logger.Info("database ready", "driver", cfg.DatabaseDriver)

	keyManager, err := InitAuthKeys(ctx, app.cfg, app.db, app.logger)
	if err != nil {
		app.closeAll()
		return nil, fmt.Errorf("failed to initialize JWT keys: %w", err)
	}
	app.keyManager = keyManager

	app.initMetrics()

	if err := app.initReplay(ctx); err != nil {
		app.closeAll()
		return nil, err
	}
	if err := app.initSocial(ctx); err != nil {
		app.closeAll()
		return nil, err
	}
	if err := app.initServices(ctx); err != nil {
		app.closeAll()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Handler returns the HTTP handler, for in-process tests.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		app.housekeepingService.Stop()
		app.closeAll()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.closeAll(); err != nil {
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

func (app *Application) closeAll() error {
	var errs []error
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis", "error", err)
			errs = append(errs, err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database", "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (app *Application) initMetrics() {
	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.recorder = metrics.NewCollector(app.registry)
}

func (app *Application) initReplay(ctx context.Context) error {
	if app.cfg.ReplayBackend != "redis" {
		app.replayGuard = replay.NewStoreGuard(app.db)
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     app.cfg.RedisAddr,
		Password: app.cfg.RedisPassword,
		DB:       app.cfg.RedisDB,
	})
	guard := replay.NewRedisGuard(client, "")
	if err := guard.Ping(ctx); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to reach redis at %s: %w", app.cfg.RedisAddr, err)
	}

	app.redis = client
	app.replayGuard = guard
	app.logger.Info("totp replay tracking in redis", "addr", app.cfg.RedisAddr)
	return nil
}

func (app *Application) initSocial(ctx context.Context) error {
	var providers []social.Provider
	base := strings.TrimRight(app.cfg.SocialRedirectBase, "/")

	if app.cfg.GitHubEnabled() {
		providers = append(providers, social.NewGitHubProvider(social.GitHubConfig{
			ClientID:     app.cfg.GitHubClientID,
			ClientSecret: app.cfg.GitHubClientSecret,
			RedirectURL:  base + "/v1/auth/social/github/callback",
		}))
	}

	if app.cfg.OIDCEnabled() {
		p, err := social.NewOIDCProvider(ctx, social.OIDCConfig{
			Name:         app.cfg.OIDCName,
			IssuerURL:    app.cfg.OIDCIssuerURL,
			ClientID:     app.cfg.OIDCClientID,
			ClientSecret: app.cfg.OIDCClientSecret,
			RedirectURL:  base + "/v1/auth/social/" + app.cfg.OIDCName + "/callback",
		})
		if err != nil {
			return err
		}
		providers = append(providers, p)
	}

	if len(providers) == 0 {
		return nil
	}
	app.providers = social.NewRegistry(providers...)
	app.logger.Info("social login enabled", "providers", app.providers.Names())
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices(ctx context.Context) error {
	hasher, err := NewHasher(app.cfg)
	if err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}
	engine := otpx.NewEngine(app.cfg.TOTPIssuer)

	app.rolesService = &service.RolesService{Store: app.db}
	if err := app.rolesService.EnsureRoles(ctx, domain.RoleAdmin, domain.RoleUser, app.cfg.DefaultRole); err != nil {
		return fmt.Errorf("failed to seed roles: %w", err)
	}

	tokens := &service.TokenIssuer{
		Store:        app.db,
		Signer:       app.keyManager,
		Issuer:       app.cfg.Issuer,
		AccessTTL:    app.cfg.AccessTokenTTL,
		ChallengeTTL: app.cfg.ChallengeTokenTTL,
		Metrics:      app.recorder,
	}

	credentials, err := service.NewCredentialValidator(app.db, hasher)
	if err != nil {
		return err
	}

	app.authService = &service.AuthService{
		Credentials: credentials,
		Tokens:      tokens,
		Enrollment:  &service.EnrollmentManager{Store: app.db, TOTP: engine},
		MFA: &service.MFAVerifier{
			Store:   app.db,
			TOTP:    engine,
			Replay:  app.replayGuard,
			Tokens:  tokens,
			Metrics: app.recorder,
		},
		Social: &service.SocialResolver{
			Store:       app.db,
			Hasher:      hasher,
			DefaultRole: app.cfg.DefaultRole,
			Metrics:     app.recorder,
		},
		Metrics: app.recorder,
	}
	app.identityService = &service.IdentityService{Store: app.db, Hasher: hasher}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.KeyGracePeriod,
	)
	app.housekeepingService.Metrics = app.recorder
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keyManager.KeySet,
		app.keyManager.Verifier,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.AuthService = app.authService
	router.IdentityService = app.identityService
	router.RolesService = app.rolesService
	router.Providers = app.providers
	router.Gatherer = app.registry
	router.RateLimits = httpx.RateLimitsFromEnv(httpx.DefaultRateLimits())
	router.SecureCookies = app.cfg.SecureCookies()
	if guard, ok := app.replayGuard.(*replay.RedisGuard); ok {
		router.Replay = guard
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
