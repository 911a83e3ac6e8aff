package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/halolight/officehub/internal/auth/store"
)

// HousekeepingService periodically deletes expired refresh token rows.
// Revoked-but-unexpired rows are kept until expiry so rotation replays keep
// failing loudly instead of hitting a missing record.
type HousekeepingService struct {
	store    store.Store
	logger   *slog.Logger
	interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService wires a HousekeepingService with the given sweep
// interval.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	return &HousekeepingService{
		store:    st,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the sweep loop. One sweep runs immediately.
func (s *HousekeepingService) Start() {
	go s.run()
}

// Stop halts the loop and waits for an in-flight sweep to finish.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *HousekeepingService) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := s.store.RefreshTokens().DeleteExpired(ctx, time.Now())
	if err != nil {
		s.logger.Error("housekeeping sweep failed", slog.String("error", err.Error()))
		return
	}
	if n > 0 {
		s.logger.Info("expired refresh tokens deleted", slog.Int64("count", n))
	}
}
