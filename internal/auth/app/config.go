package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/usama-mangi/kushim-web-sub002/internal/auth/domain"
	"github.com/usama-mangi/kushim-web-sub002/pkg/jwtx"
)

// ConfigFileEnv names a TOML file decoded before the environment is applied.
const ConfigFileEnv = "AUTH_CONFIG_FILE"

type Config struct {
	Issuer string `toml:"issuer"` // issuer claim for tokens (default: kushim-auth)

	Algorithm      string        `toml:"algorithm"`        // RS256, ES256, EdDSA (default: EdDSA)
	RSABits        int           `toml:"rsa_bits"`         // RSA key size for RS256 (default: 4096)
	NumKeys        int           `toml:"num_keys"`         // active signing keys (default: 3, max: 10)
	KeyStorageMode string        `toml:"key_storage_mode"` // ephemeral, persistent (default: ephemeral)
	KeyLifetime    time.Duration `toml:"key_lifetime"`     // how long a persistent key signs (default: 30 days)
	KeyGracePeriod time.Duration `toml:"key_grace_period"` // how long an expired key still verifies (default: 24h)
	MasterKeyPath  string        `toml:"master_key_path"`  // persistent key encryption; falls back to AUTH_MASTER_KEY

	DatabaseDriver string `toml:"database_driver"` // sqlite, postgres, memory (default: sqlite)
	DatabaseFile   string `toml:"database_file"`   // sqlite file (default: ./auth.db)
	DatabaseURL    string `toml:"database_url"`    // postgres DSN
	PepperFile     string `toml:"pepper_file"`     // password pepper (default: ./pepper)

	AccessTokenTTL    time.Duration `toml:"access_token_ttl"`    // default: 12h
	ChallengeTokenTTL time.Duration `toml:"challenge_token_ttl"` // default: 5m
	TOTPIssuer        string        `toml:"totp_issuer"`         // label shown in authenticator apps (default: Issuer)
	DefaultRole       string        `toml:"default_role"`        // role for identities created by social login (default: user)

	ReplayBackend string `toml:"replay_backend"` // store, redis (default: store)
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`

	SocialRedirectBase string `toml:"social_redirect_base"` // public base URL for provider callbacks
	GitHubClientID     string `toml:"github_client_id"`
	GitHubClientSecret string `toml:"github_client_secret"`
	OIDCIssuerURL      string `toml:"oidc_issuer_url"`
	OIDCClientID       string `toml:"oidc_client_id"`
	OIDCClientSecret   string `toml:"oidc_client_secret"`
	OIDCName           string `toml:"oidc_name"` // route name for the OIDC provider (default: oidc)

	Env                  string        `toml:"env"`        // dev, staging, prod (default: dev)
	LogLevel             string        `toml:"log_level"`  // debug, info, warn, error (default: info)
	LogFormat            string        `toml:"log_format"` // json, text (default: json)
	Port                 int           `toml:"port"`       // default: 8080
	ShutdownGracePeriod  time.Duration `toml:"shutdown_grace_period"`
	HousekeepingInterval time.Duration `toml:"housekeeping_interval"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Issuer:               "kushim-auth",
		Algorithm:            jwtx.AlgorithmEdDSA,
		KeyStorageMode:       "ephemeral",
		KeyLifetime:          30 * 24 * time.Hour,
		KeyGracePeriod:       24 * time.Hour,
		DatabaseDriver:       "sqlite",
		DatabaseFile:         "auth.db",
		PepperFile:           "pepper",
		AccessTokenTTL:       jwtx.DefaultSessionTTL,
		ChallengeTokenTTL:    jwtx.DefaultChallengeTTL,
		DefaultRole:          domain.RoleUser,
		ReplayBackend:        "store",
		OIDCName:             "oidc",
		Env:                  "dev",
		LogLevel:             "info",
		LogFormat:            "json",
		Port:                 8080,
		ShutdownGracePeriod:  10 * time.Second,
		HousekeepingInterval: 1 * time.Hour,
	}
}

// LoadConfig starts from DefaultConfig, decodes the TOML file named by
// AUTH_CONFIG_FILE when set, then applies environment variables on top.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv(ConfigFileEnv); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if cfg.TOTPIssuer == "" {
		cfg.TOTPIssuer = cfg.Issuer
	}
	return cfg, cfg.Validate()
}

func (cfg *Config) applyEnv() {
	cfg.Issuer = getEnvOrDefault("AUTH_ISSUER", cfg.Issuer)
	cfg.Algorithm = getEnvOrDefault("AUTH_ALGORITHM", cfg.Algorithm)
	cfg.RSABits = getEnvIntOrDefault("AUTH_RSA_BITS", cfg.RSABits)
	cfg.NumKeys = getEnvIntOrDefault("AUTH_NUM_KEYS", cfg.NumKeys)
	cfg.KeyStorageMode = getEnvOrDefault("AUTH_KEY_STORAGE_MODE", cfg.KeyStorageMode)
	cfg.KeyLifetime = getEnvDurationOrDefault("AUTH_KEY_LIFETIME", cfg.KeyLifetime)
	cfg.KeyGracePeriod = getEnvDurationOrDefault("AUTH_KEY_GRACE_PERIOD", cfg.KeyGracePeriod)
	cfg.MasterKeyPath = getEnvOrDefault("AUTH_MASTER_KEY_PATH", cfg.MasterKeyPath)

	cfg.DatabaseDriver = getEnvOrDefault("AUTH_DATABASE_DRIVER", cfg.DatabaseDriver)
	cfg.DatabaseFile = getEnvOrDefault("AUTH_DATABASE_FILE", cfg.DatabaseFile)
	cfg.DatabaseURL = getEnvOrDefault("AUTH_DATABASE_URL", cfg.DatabaseURL)
	cfg.PepperFile = getEnvOrDefault("AUTH_PEPPER_FILE", cfg.PepperFile)

	cfg.AccessTokenTTL = getEnvDurationOrDefault("AUTH_ACCESS_TOKEN_TTL", cfg.AccessTokenTTL)
	cfg.ChallengeTokenTTL = getEnvDurationOrDefault("AUTH_CHALLENGE_TOKEN_TTL", cfg.ChallengeTokenTTL)
	cfg.TOTPIssuer = getEnvOrDefault("AUTH_TOTP_ISSUER", cfg.TOTPIssuer)
	cfg.DefaultRole = getEnvOrDefault("AUTH_DEFAULT_ROLE", cfg.DefaultRole)

	cfg.ReplayBackend = getEnvOrDefault("AUTH_REPLAY_BACKEND", cfg.ReplayBackend)
	cfg.RedisAddr = getEnvOrDefault("AUTH_REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnvOrDefault("AUTH_REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getEnvIntOrDefault("AUTH_REDIS_DB", cfg.RedisDB)

	cfg.SocialRedirectBase = getEnvOrDefault("AUTH_SOCIAL_REDIRECT_BASE", cfg.SocialRedirectBase)
	cfg.GitHubClientID = getEnvOrDefault("AUTH_GITHUB_CLIENT_ID", cfg.GitHubClientID)
	cfg.GitHubClientSecret = getEnvOrDefault("AUTH_GITHUB_CLIENT_SECRET", cfg.GitHubClientSecret)
	cfg.OIDCIssuerURL = getEnvOrDefault("AUTH_OIDC_ISSUER_URL", cfg.OIDCIssuerURL)
	cfg.OIDCClientID = getEnvOrDefault("AUTH_OIDC_CLIENT_ID", cfg.OIDCClientID)
	cfg.OIDCClientSecret = getEnvOrDefault("AUTH_OIDC_CLIENT_SECRET", cfg.OIDCClientSecret)
	cfg.OIDCName = getEnvOrDefault("AUTH_OIDC_NAME", cfg.OIDCName)

	cfg.Env = getEnvOrDefault("ENV", cfg.Env)
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnvOrDefault("LOG_FORMAT", cfg.LogFormat)
	cfg.Port = getEnvIntOrDefault("PORT", cfg.Port)
	cfg.ShutdownGracePeriod = getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", cfg.ShutdownGracePeriod)
	cfg.HousekeepingInterval = getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", cfg.HousekeepingInterval)
}

// GitHubEnabled reports whether GitHub login is configured.
func (cfg Config) GitHubEnabled() bool { return cfg.GitHubClientID != "" }

// OIDCEnabled reports whether the generic OIDC provider is configured.
func (cfg Config) OIDCEnabled() bool { return cfg.OIDCIssuerURL != "" }

// SecureCookies is true unless the callback base is plain http.
func (cfg Config) SecureCookies() bool {
	return !strings.HasPrefix(cfg.SocialRedirectBase, "http://")
}

// Validate rejects settings the application cannot start with.
func (cfg Config) Validate() error {
	var errs []error

	switch cfg.Algorithm {
	case jwtx.AlgorithmRS256, jwtx.AlgorithmES256, jwtx.AlgorithmEdDSA:
	default:
		errs = append(errs, fmt.Errorf("unsupported algorithm %q", cfg.Algorithm))
	}

	switch cfg.KeyStorageMode {
	case "ephemeral":
	case "persistent":
		if cfg.DatabaseDriver == "memory" {
			errs = append(errs, errors.New("persistent keys need a sqlite or postgres database"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown key storage mode %q", cfg.KeyStorageMode))
	}

	switch cfg.DatabaseDriver {
	case "sqlite":
		if cfg.DatabaseFile == "" {
			errs = append(errs, errors.New("AUTH_DATABASE_FILE is required for sqlite"))
		}
	case "postgres":
		if cfg.DatabaseURL == "" {
			errs = append(errs, errors.New("AUTH_DATABASE_URL is required for postgres"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver))
	}

	switch cfg.ReplayBackend {
	case "store":
	case "redis":
		if cfg.RedisAddr == "" {
			errs = append(errs, errors.New("AUTH_REDIS_ADDR is required for the redis replay backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown replay backend %q", cfg.ReplayBackend))
	}

	if cfg.AccessTokenTTL <= 0 || cfg.ChallengeTokenTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	if cfg.DefaultRole == "" {
		errs = append(errs, errors.New("AUTH_DEFAULT_ROLE must not be empty"))
	}

	if cfg.GitHubEnabled() && cfg.GitHubClientSecret == "" {
		errs = append(errs, errors.New("AUTH_GITHUB_CLIENT_SECRET is required with AUTH_GITHUB_CLIENT_ID"))
	}
	if cfg.OIDCEnabled() && cfg.OIDCClientID == "" {
		errs = append(errs, errors.New("AUTH_OIDC_CLIENT_ID is required with AUTH_OIDC_ISSUER_URL"))
	}
	if (cfg.GitHubEnabled() || cfg.OIDCEnabled()) && cfg.SocialRedirectBase == "" {
		errs = append(errs, errors.New("AUTH_SOCIAL_REDIRECT_BASE is required when a social provider is configured"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
