package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/usama-mangi/kushim-web-sub002/internal/auth/metrics"
	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store"
)

// HousekeepingService periodically purges consumed TOTP steps whose code
// window has passed and signing keys past their verification grace.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	// KeyGrace keeps expired signing keys around for verification.
	KeyGrace time.Duration

	Metrics metrics.Recorder
	Now     func() time.Time

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval, keyGrace time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:    store,
		Logger:   logger,
		Interval: interval,
		KeyGrace: keyGrace,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker that periodically runs cleanup.
// Call Stop() to gracefully shutdown the worker.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until the worker has finished any in-progress cleanup.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.Cleanup(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup runs one purge. Each table is independent; a failure in one does
// not stop the other.
func (s *HousekeepingService) Cleanup(ctx context.Context) {
	now := nowFunc(s.Now)
	rec := metrics.OrNop(s.Metrics)
	s.Logger.Debug("starting housekeeping cleanup")

	start := time.Now()
	steps, err := s.Store.TOTPSteps().DeleteExpiredTOTPSteps(ctx, now)
	if err != nil {
		s.Logger.Error("failed to delete expired totp steps", "error", err)
	} else {
		rec.RecordHousekeeping("totp_used_steps", steps, time.Since(start))
	}

	start = time.Now()
	keys, err := s.Store.SigningKeys().DeleteExpiredSigningKeys(ctx, now.Add(-s.KeyGrace))
	if err != nil {
		s.Logger.Error("failed to delete expired signing keys", "error", err)
	} else {
		rec.RecordHousekeeping("signing_keys", keys, time.Since(start))
	}

	s.Logger.Info("housekeeping cleanup completed", "totp_steps_deleted", steps, "signing_keys_deleted", keys)
}
