package indexing

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Scheduler periodically sweeps every auto-submit site through a
// reconciliation cycle. The per-site lock keeps overlapping sweeps and
// manually triggered cycles from colliding, so the scheduler itself needs
// no coordination.
type Scheduler struct {
	service  *Service
	interval time.Duration
	logger   *zap.Logger
}

// NewScheduler creates a scheduler. A zero interval disables it.
func NewScheduler(service *Service, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{service: service, interval: interval, logger: logger}
}

// Run sweeps immediately, then on every tick until the context is
// cancelled. It blocks; callers run it in a goroutine.
func (s *Scheduler) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("Scheduler disabled")
		return
	}

	s.logger.Info("Scheduler started", zap.Duration("interval", s.interval))
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	sites, err := s.service.autoSubmitSites(ctx)
	if err != nil {
		s.logger.Error("Failed to list auto-submit sites", zap.Error(err))
		return
	}

	for _, site := range sites {
		if ctx.Err() != nil {
			return
		}
		result, err := s.service.RunCycle(ctx, site.ID)
		if err != nil {
			s.logger.Error("Scheduled cycle failed",
				zap.Uint("site_id", site.ID), zap.Error(err))
			continue
		}
		if result.Skipped {
			continue
		}
		s.logger.Info("Scheduled cycle completed",
			zap.Uint("site_id", site.ID),
			zap.Int("submitted_search", result.SubmittedSearch),
			zap.Int("submitted_indexnow", result.SubmittedIndexNow),
			zap.Int("errors", len(result.Errors)))
	}
}
