package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"catalog_sync/internal/cache"
	"catalog_sync/internal/domain"
	"catalog_sync/internal/source/marketplace"
)

type TokenProvider interface {
	GetValidToken(ctx context.Context, integrationID int64) (string, error)
	ForceRefresh(ctx context.Context, integrationID int64, rejectedToken string) (string, error)
}

type IntegrationReader interface {
	Get(ctx context.Context, id int64) (*domain.Integration, error)
}

type MarketplaceAPI interface {
	SearchItemIDs(ctx context.Context, token, owner string, limit, offset int) (*marketplace.SearchResponse, error)
	ScanItemIDs(ctx context.Context, token, owner string, limit int, scrollID string) (*marketplace.SearchResponse, error)
	GetItems(ctx context.Context, token string, ids []string) ([]marketplace.ItemResult, error)
	GetItem(ctx context.Context, token, id string) (*marketplace.Item, error)
	UpdateItem(ctx context.Context, token, id string, update marketplace.ItemUpdate) (*marketplace.Item, error)
}

type CatalogItemStore interface {
	Upsert(ctx context.Context, item *domain.CatalogItem) error
	List(ctx context.Context, integrationID int64, opts domain.ListOptions) ([]domain.CatalogItem, int, error)
}

type SyncLogStore interface {
	Append(ctx context.Context, entry *domain.SyncLogEntry) error
	LastCompletedAt(ctx context.Context, integrationID int64) (time.Time, error)
}

type PageCache interface {
	GetOrCompute(ctx context.Context, key cache.Key, ttl time.Duration, fn func(ctx context.Context) ([]byte, error)) ([]byte, error)
	Invalidate(ctx context.Context, tenant string) error
}

type Publisher interface {
	PublishSyncCompleted(ctx context.Context, result *domain.SyncResult) error
	Close() error
}
