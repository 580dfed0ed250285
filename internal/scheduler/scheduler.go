package scheduler

import (
	"context"
	"log/slog"
	"time"

	"catalog_sync/internal/domain"
)

type IntegrationLister interface {
	ListActive(ctx context.Context) ([]domain.Integration, error)
}

type Syncer interface {
	Sync(ctx context.Context, integrationID int64) (*domain.SyncResult, error)
}

// Scheduler syncs every active integration once per interval.
type Scheduler struct {
	integrations IntegrationLister
	syncer       Syncer
	interval     time.Duration
	runTimeout   time.Duration
	logger       *slog.Logger
}

func NewScheduler(integrations IntegrationLister, syncer Syncer, interval, runTimeout time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		integrations: integrations,
		syncer:       syncer,
		interval:     interval,
		runTimeout:   runTimeout,
		logger:       logger.With("component", "scheduler"),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.runAll(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runAll(ctx)
		}
	}
}

func (s *Scheduler) runAll(ctx context.Context) {
	integrations, err := s.integrations.ListActive(ctx)
	if err != nil {
		s.logger.Error("list active integrations failed", "error", err)
		return
	}

	s.logger.Debug("scheduled sync round", "integrations", len(integrations))

	for _, integration := range integrations {
		if ctx.Err() != nil {
			return
		}
		s.runSync(ctx, integration.ID)
	}
}

func (s *Scheduler) runSync(ctx context.Context, integrationID int64) {
	syncCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	if _, err := s.syncer.Sync(syncCtx, integrationID); err != nil {
		s.logger.Error("sync failed", "integration_id", integrationID, "error", err)
	}
}
