package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store"
	"github.com/usama-mangi/kushim-web-sub002/pkg/cryptox"
	"github.com/usama-mangi/kushim-web-sub002/pkg/jwtx"
)

// InitAuthKeys creates a new KeyManager with the configured algorithm and storage mode.
//
// Storage modes:
//   - "ephemeral": Keys are generated on startup and stored only in memory.
//     All existing tokens become invalid when the service restarts.
//   - "persistent": Keys are stored in the database, encrypted under the
//     master key. Tokens survive restarts; keys are replaced as their
//     lifetime ends and stay verifiable for the grace period.
//
// Supported algorithms: RS256, ES256, EdDSA
func InitAuthKeys(ctx context.Context, cfg Config, db store.Store, logger *slog.Logger) (*jwtx.KeyManager, error) {
	opts := jwtx.KeyManagerOptions{
		Algorithm: cfg.Algorithm,
		Issuer:    cfg.Issuer,
		RSABits:   cfg.RSABits,
		NumKeys:   cfg.NumKeys,
	}

	switch cfg.KeyStorageMode {
	case "persistent":
		cipher, err := cryptox.LoadKeyCipher(cfg.MasterKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load master key: %w", err)
		}

		logger.Info("initializing persistent key manager",
			"algorithm", cfg.Algorithm,
			"num_keys", cfg.NumKeys,
			"lifetime", cfg.KeyLifetime,
			"grace_period", cfg.KeyGracePeriod,
		)

		keyManager, err := jwtx.NewPersistentKeyManager(ctx, jwtx.PersistentKeyManagerOptions{
			KeyManagerOptions: opts,
			Store:             store.NewKeyStoreAdapter(db),
			Cipher:            cipher,
			Lifetime:          cfg.KeyLifetime,
			VerifyGrace:       cfg.KeyGracePeriod,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize persistent key manager: %w", err)
		}

		logger.Info("persistent signing keys loaded",
			"algorithm", keyManager.Algorithm(),
			"num_keys", keyManager.NumSigners(),
			"issuer", cfg.Issuer,
		)
		return keyManager, nil

	default:
		logger.Info("initializing ephemeral key manager",
			"algorithm", cfg.Algorithm,
			"num_keys", cfg.NumKeys,
		)

		keyManager, err := jwtx.NewEphemeralKeyManager(opts)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ephemeral key manager: %w", err)
		}

		logger.Info("generated ephemeral signing keys",
			"algorithm", keyManager.Algorithm(),
			"num_keys", keyManager.NumSigners(),
			"issuer", cfg.Issuer,
		)
		logger.Warn("all existing tokens are now invalid due to key rotation on startup")
		return keyManager, nil
	}
}
