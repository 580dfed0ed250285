package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"catalog_sync/internal/cache"
	"catalog_sync/internal/domain"
	"catalog_sync/internal/source/marketplace"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200

	opCatalogItems = "catalog.items"
)

// Synchronize returns a page of the mirror, syncing first when the last
// completed run is older than the freshness window.
func (s *CatalogSyncService) Synchronize(ctx context.Context, integrationID int64, opts domain.ListOptions) (*domain.CatalogPage, error) {
	opts = normalizeListOptions(opts)

	integration, err := s.integrations.Get(ctx, integrationID)
	if err != nil {
		return nil, fmt.Errorf("load integration: %w", err)
	}

	last, err := s.syncLogs.LastCompletedAt(ctx, integrationID)
	if err != nil {
		return nil, fmt.Errorf("read last sync: %w", err)
	}

	if s.now().Sub(last) > s.config.Freshness {
		if _, err := s.Sync(ctx, integrationID); err != nil {
			return nil, err
		}
	}

	key := cache.NewKey(integration.TenantID, opCatalogItems).
		With("integration", strconv.FormatInt(integrationID, 10)).
		With("limit", strconv.Itoa(opts.Limit)).
		With("offset", strconv.Itoa(opts.Offset)).
		With("status", string(opts.Status)).
		With("search", opts.Search)

	data, err := s.cache.GetOrCompute(ctx, key, 0, func(ctx context.Context) ([]byte, error) {
		return s.readPage(ctx, integrationID, opts)
	})
	if err != nil {
		return nil, err
	}

	var page domain.CatalogPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("decode cached page: %w", err)
	}
	return &page, nil
}

func (s *CatalogSyncService) readPage(ctx context.Context, integrationID int64, opts domain.ListOptions) ([]byte, error) {
	items, total, err := s.items.List(ctx, integrationID, opts)
	if err != nil {
		return nil, fmt.Errorf("list catalog items: %w", err)
	}

	return json.Marshal(domain.CatalogPage{
		Results: items,
		Paging: domain.Paging{
			Total:  total,
			Limit:  opts.Limit,
			Offset: opts.Offset,
		},
	})
}

// UpdateItemPrice changes the price upstream and mirrors the returned state.
func (s *CatalogSyncService) UpdateItemPrice(ctx context.Context, integrationID int64, externalItemID string, price decimal.Decimal) (*domain.CatalogItem, error) {
	if !price.IsPositive() {
		return nil, fmt.Errorf("%w: price must be positive", domain.ErrBadRequest)
	}

	integration, err := s.integrations.Get(ctx, integrationID)
	if err != nil {
		return nil, fmt.Errorf("load integration: %w", err)
	}
	if !integration.IsActive() {
		return nil, fmt.Errorf("integration %d is %s: %w", integrationID, integration.Status, domain.ErrIntegrationInactive)
	}

	token, err := s.tokens.GetValidToken(ctx, integrationID)
	if err != nil {
		return nil, fmt.Errorf("obtain token: %w", err)
	}
	sess := newAPISession(s.tokens, integrationID, token)

	var updated *marketplace.Item
	err = sess.call(ctx, func(token string) error {
		var err error
		updated, err = s.api.UpdateItem(ctx, token, externalItemID, marketplace.ItemUpdate{Price: &price})
		return err
	})
	if err != nil {
		return nil, err
	}

	if updated.ID == "" {
		updated.ID = externalItemID
	}
	item := mapItem(integrationID, updated, s.now(), s.config.DefaultCurrency)
	if err := s.items.Upsert(ctx, item); err != nil {
		return nil, fmt.Errorf("upsert item %s: %w", externalItemID, err)
	}

	if err := s.cache.Invalidate(ctx, integration.TenantID); err != nil {
		s.logger.Warn("cache invalidation failed", "tenant_id", integration.TenantID, "error", err)
	}

	s.logger.Info("item price updated",
		"integration_id", integrationID,
		"item_id", externalItemID,
		"price", price.String(),
	)

	return item, nil
}

func normalizeListOptions(opts domain.ListOptions) domain.ListOptions {
	if opts.Limit <= 0 {
		opts.Limit = DefaultPageLimit
	}
	if opts.Limit > MaxPageLimit {
		opts.Limit = MaxPageLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	return opts
}
