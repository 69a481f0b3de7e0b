package service

import (
	"log/slog"
	"time"
)

// HousekeepingService periodically sweeps expired sessions out of the
// registry. The sweep is purely hygiene: Resolve evicts lazily, so nothing
// breaks if the worker never runs.
type HousekeepingService struct {
	Sessions *SessionService
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates the sweeper with the given interval,
// defaulting to 1 hour when interval is zero or negative.
func NewHousekeepingService(sessions *SessionService, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Sessions: sessions,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the background worker. Non-blocking; call Stop to shut it
// down gracefully.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop shuts the worker down and blocks until any in-progress sweep ends.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Sweep once at startup rather than waiting a full interval.
	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) sweep() {
	before := s.Sessions.Count()
	s.Sessions.SweepExpired()
	s.Logger.Debug("session sweep completed",
		"before", before,
		"after", s.Sessions.Count(),
	)
}
