package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"catalog_sync/internal/config"
	"catalog_sync/internal/domain"
	"catalog_sync/internal/metrics"
)

// CatalogSyncService mirrors the marketplace catalog of an integration into
// the local store and serves pages of that mirror.
type CatalogSyncService struct {
	tokens       TokenProvider
	integrations IntegrationReader
	api          MarketplaceAPI
	items        CatalogItemStore
	syncLogs     SyncLogStore
	cache        PageCache
	publisher    Publisher
	logger       *slog.Logger
	config       config.SyncConfig
	now          func() time.Time
	runs         singleflight.Group
}

func NewCatalogSyncService(
	tokens TokenProvider,
	integrations IntegrationReader,
	api MarketplaceAPI,
	items CatalogItemStore,
	syncLogs SyncLogStore,
	cache PageCache,
	publisher Publisher,
	logger *slog.Logger,
	cfg config.SyncConfig,
) *CatalogSyncService {
	return &CatalogSyncService{
		tokens:       tokens,
		integrations: integrations,
		api:          api,
		items:        items,
		syncLogs:     syncLogs,
		cache:        cache,
		publisher:    publisher,
		logger:       logger.With("component", "catalog_sync"),
		config:       cfg.WithDefaults(),
		now:          time.Now,
	}
}

// Sync runs Init, EnumerateIds, FetchDetails, Upsert and Complete for one
// integration. Concurrent calls for the same integration share one run.
//
// Every run that gets past loading the integration appends exactly one
// sync log entry. The returned error is non-nil when the outcome is error.
//
// The run is detached from the caller that started it and bounded by
// RunTimeout instead. A caller whose ctx ends stops waiting; the run goes on
// for the others.
func (s *CatalogSyncService) Sync(ctx context.Context, integrationID int64) (*domain.SyncResult, error) {
	runCtx := context.WithoutCancel(ctx)

	ch := s.runs.DoChan(strconv.FormatInt(integrationID, 10), func() (any, error) {
		timed, cancel := context.WithTimeout(runCtx, s.config.RunTimeout)
		defer cancel()
		return s.run(timed, integrationID)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			s.logger.Debug("joined running sync", "integration_id", integrationID)
		}
		result, _ := res.Val.(*domain.SyncResult)
		return result, res.Err
	}
}

func (s *CatalogSyncService) run(ctx context.Context, integrationID int64) (*domain.SyncResult, error) {
	result := &domain.SyncResult{
		IntegrationID: integrationID,
		StartedAt:     s.now(),
	}
	logger := s.logger.With("integration_id", integrationID)

	// Init
	integration, err := s.integrations.Get(ctx, integrationID)
	if err != nil {
		return nil, fmt.Errorf("load integration: %w", err)
	}
	result.TenantID = integration.TenantID
	logger = logger.With("tenant_id", integration.TenantID)

	logger.Info("starting catalog sync", "account_id", integration.ExternalAccountID)

	if !integration.IsActive() {
		err := fmt.Errorf("integration %d is %s: %w", integrationID, integration.Status, domain.ErrIntegrationInactive)
		return s.fail(ctx, logger, result, err)
	}

	token, err := s.tokens.GetValidToken(ctx, integrationID)
	if err != nil {
		return s.fail(ctx, logger, result, fmt.Errorf("obtain token: %w", err))
	}
	sess := newAPISession(s.tokens, integrationID, token)

	// EnumerateIds
	ids, err := s.enumerate(ctx, sess, integration.ExternalAccountID, result)
	if err != nil {
		return s.fail(ctx, logger, result, fmt.Errorf("%w: enumerate items: %w", domain.ErrSync, err))
	}
	result.Enumerated = len(ids)

	logger.Info("enumerated items",
		"strategy", result.Strategy,
		"total", result.RequestedTotal,
		"enumerated", result.Enumerated,
	)

	// FetchDetails
	details, failures := s.fetchDetails(ctx, sess, ids)
	if err := ctx.Err(); err != nil {
		// Items cut off by the deadline are not item failures.
		return s.fail(ctx, logger, result, fmt.Errorf("%w: fetch details: %w", domain.ErrSync, err))
	}
	result.Fetched = len(details)
	result.Failures = failures

	// Upsert
	syncedAt := s.now()
	for i := range details {
		if err := ctx.Err(); err != nil {
			return s.fail(ctx, logger, result, fmt.Errorf("%w: upsert items: %w", domain.ErrSync, err))
		}
		item := mapItem(integrationID, &details[i], syncedAt, s.config.DefaultCurrency)
		if err := s.items.Upsert(ctx, item); err != nil {
			logger.Warn("upsert failed", "item_id", item.ExternalItemID, "error", err)
			result.Failures = append(result.Failures, failure(item.ExternalItemID, phaseUpsert, err))
			metrics.SyncItems.WithLabelValues(phaseUpsert, "failure").Inc()
			continue
		}
		result.Upserted++
		metrics.SyncItems.WithLabelValues(phaseUpsert, "success").Inc()
	}

	// Complete
	result.Failed = len(result.Failures)
	result.Outcome = domain.OutcomeSuccess
	if result.Failed > 0 {
		result.Outcome = domain.OutcomePartial
	}

	return s.complete(ctx, logger, result, nil)
}

func (s *CatalogSyncService) fail(ctx context.Context, logger *slog.Logger, result *domain.SyncResult, cause error) (*domain.SyncResult, error) {
	result.Outcome = domain.OutcomeError
	result.Error = cause.Error()
	result.Failed = len(result.Failures)
	return s.complete(ctx, logger, result, cause)
}

// complete records the run. The log entry is written even when ctx is done.
func (s *CatalogSyncService) complete(ctx context.Context, logger *slog.Logger, result *domain.SyncResult, cause error) (*domain.SyncResult, error) {
	result.Duration = s.now().Sub(result.StartedAt)
	auditCtx := context.WithoutCancel(ctx)

	metrics.SyncRuns.WithLabelValues(string(result.Outcome), string(result.Strategy)).Inc()
	metrics.SyncDuration.Observe(result.Duration.Seconds())

	err := cause
	if appendErr := s.syncLogs.Append(auditCtx, result.LogEntry()); appendErr != nil {
		logger.Error("failed to append sync log", "error", appendErr)
		err = errors.Join(err, fmt.Errorf("append sync log: %w", appendErr))
	}

	if result.Outcome != domain.OutcomeError {
		if invErr := s.cache.Invalidate(auditCtx, result.TenantID); invErr != nil {
			logger.Warn("cache invalidation failed", "error", invErr)
		}
	}

	if s.publisher != nil {
		if pubErr := s.publisher.PublishSyncCompleted(auditCtx, result); pubErr != nil {
			logger.Warn("failed to publish sync event", "error", pubErr)
		}
	}

	if cause != nil {
		logger.Error("catalog sync failed",
			"strategy", result.Strategy,
			"duration", result.Duration,
			"error", cause,
		)
	} else {
		logger.Info("catalog sync completed",
			"outcome", result.Outcome,
			"enumerated", result.Enumerated,
			"fetched", result.Fetched,
			"failed", result.Failed,
			"upserted", result.Upserted,
			"duration", result.Duration,
		)
	}

	return result, err
}
