package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/realmguard/internal/realm/store"
)

// DefaultCredentialRetention keeps revoked and expired credentials around
// for a day so logout retries and audits can still resolve them.
const DefaultCredentialRetention = 24 * time.Hour

// HousekeepingService periodically purges dead credentials and elapsed login
// attempt counters to prevent unbounded table growth.
type HousekeepingService struct {
	Store     store.Store
	Logger    *slog.Logger
	Interval  time.Duration
	Retention time.Duration

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:     store,
		Logger:    logger,
		Interval:  interval,
		Retention: DefaultCredentialRetention,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start begins the background worker that periodically runs cleanup.
// Call Stop() to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until any in-progress cleanup has finished.
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
	s.Cleanup(context.Background(), time.Now().UTC())

	for {
		select {
		case now := <-ticker.C:
			s.Cleanup(context.Background(), now.UTC())
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup performs one purge relative to now. Each step is independent, so a
// failure in one does not stop the other.
func (s *HousekeepingService) Cleanup(ctx context.Context, now time.Time) {
	s.Logger.Info("starting housekeeping cleanup")

	var successful int

	if n, err := s.Store.Credentials().DeleteStaleCredentials(ctx, now.Add(-s.Retention)); err != nil {
		s.Logger.Error("failed to delete stale credentials", "error", err)
	} else {
		s.Logger.Debug("deleted stale credentials", "count", n)
		successful++
	}

	if n, err := s.Store.LoginAttempts().DeleteElapsedAttempts(ctx, now); err != nil {
		s.Logger.Error("failed to delete elapsed login attempts", "error", err)
	} else {
		s.Logger.Debug("deleted elapsed login attempts", "count", n)
		successful++
	}

	s.Logger.Info("housekeeping cleanup completed", "successful_cleanups", successful)
}
