package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"catalog_sync/internal/cache"
	"catalog_sync/internal/config"
	"catalog_sync/internal/domain"
	"catalog_sync/internal/service/mocks"
	"catalog_sync/internal/source/marketplace"
	"catalog_sync/testdata/utils"
)

const (
	testIntegrationID = int64(1)
	testTenant        = "tenant-1"
	testOwner         = "seller-1"
)

// fakeCatalog answers marketplace calls for a generated catalog.
type fakeCatalog struct {
	ids     []string
	failing map[string]bool

	searchCalls atomic.Int32
	scanCalls   atomic.Int32
	batchCalls  atomic.Int32
	singleCalls atomic.Int32

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	maxBatch    atomic.Int32
}

func newFakeCatalog(size int) *fakeCatalog {
	ids := make([]string, size)
	for i := range ids {
		ids[i] = fmt.Sprintf("MLA%05d", i+1)
	}
	return &fakeCatalog{ids: ids, failing: map[string]bool{}}
}

func (f *fakeCatalog) search(_ context.Context, _, _ string, limit, offset int) (*marketplace.SearchResponse, error) {
	f.searchCalls.Add(1)
	start := min(offset, len(f.ids))
	end := min(offset+limit, len(f.ids))
	return &marketplace.SearchResponse{
		Results: f.ids[start:end],
		Paging:  marketplace.Paging{Total: len(f.ids), Offset: offset, Limit: limit},
	}, nil
}

// scan repeats the last id of the previous page to exercise de-duplication,
// and keeps returning a cursor after the last page like the real API.
func (f *fakeCatalog) scan(_ context.Context, _, _ string, limit int, scrollID string) (*marketplace.SearchResponse, error) {
	f.scanCalls.Add(1)
	start := 0
	if scrollID != "" {
		start, _ = strconv.Atoi(strings.TrimPrefix(scrollID, "s-"))
	}
	if start >= len(f.ids) {
		return &marketplace.SearchResponse{ScrollID: scrollID}, nil
	}

	end := min(start+limit, len(f.ids))
	results := append([]string{}, f.ids[start:end]...)
	if start > 0 {
		results = append([]string{f.ids[start-1]}, results...)
	}

	return &marketplace.SearchResponse{
		Results:  results,
		Paging:   marketplace.Paging{Total: len(f.ids)},
		ScrollID: "s-" + strconv.Itoa(end),
	}, nil
}

func (f *fakeCatalog) item(id string) marketplace.Item {
	return marketplace.Item{
		ID:                id,
		Title:             "Item " + id,
		Price:             utils.Ptr(decimal.RequireFromString("10.50")),
		CurrencyID:        "ARS",
		AvailableQuantity: utils.Ptr(3),
		Status:            "active",
	}
}

func (f *fakeCatalog) getItems(_ context.Context, _ string, ids []string) ([]marketplace.ItemResult, error) {
	f.batchCalls.Add(1)
	f.track(len(ids))
	defer f.inFlight.Add(-1)
	time.Sleep(time.Millisecond)

	results := make([]marketplace.ItemResult, 0, len(ids))
	for _, id := range ids {
		if f.failing[id] {
			results = append(results, marketplace.ItemResult{
				ID:  id,
				Err: &domain.APIError{Kind: domain.ErrNotFound, StatusCode: 404, Detail: "item not found"},
			})
			continue
		}
		item := f.item(id)
		results = append(results, marketplace.ItemResult{ID: id, Item: &item})
	}
	return results, nil
}

func (f *fakeCatalog) getItem(_ context.Context, _, id string) (*marketplace.Item, error) {
	f.singleCalls.Add(1)
	f.track(1)
	defer f.inFlight.Add(-1)

	if f.failing[id] {
		return nil, &domain.APIError{Kind: domain.ErrNotFound, StatusCode: 404}
	}
	item := f.item(id)
	return &item, nil
}

func (f *fakeCatalog) track(batch int) {
	n := f.inFlight.Add(1)
	for {
		cur := f.maxInFlight.Load()
		if n <= cur || f.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	for {
		cur := f.maxBatch.Load()
		if int32(batch) <= cur || f.maxBatch.CompareAndSwap(cur, int32(batch)) {
			break
		}
	}
}

// mirror is an in-memory CatalogItemStore keyed like the real table.
type mirror struct {
	mu    sync.Mutex
	rows  map[string]domain.CatalogItem
	lists atomic.Int32
}

func newMirror() *mirror {
	return &mirror{rows: map[string]domain.CatalogItem{}}
}

func (m *mirror) upsert(_ context.Context, item *domain.CatalogItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[strconv.FormatInt(item.IntegrationID, 10)+"/"+item.ExternalItemID] = *item
	return nil
}

func (m *mirror) list(_ context.Context, _ int64, opts domain.ListOptions) ([]domain.CatalogItem, int, error) {
	m.lists.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()

	items := make([]domain.CatalogItem, 0, len(m.rows))
	for _, row := range m.rows {
		items = append(items, row)
	}
	end := min(opts.Offset+opts.Limit, len(items))
	start := min(opts.Offset, end)
	return items[start:end], len(items), nil
}

func (m *mirror) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type CatalogSyncServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller
	ctx  context.Context

	tokens       *mocks.MockTokenProvider
	integrations *mocks.MockIntegrationReader
	api          *mocks.MockMarketplaceAPI
	items        *mocks.MockCatalogItemStore
	syncLogs     *mocks.MockSyncLogStore
	publisher    *mocks.MockPublisher

	pageCache *cache.ReadThrough
	backend   *cache.MemoryCache
	mirror    *mirror

	mu      sync.Mutex
	entries []*domain.SyncLogEntry

	service *CatalogSyncService
	cfg     config.SyncConfig
	logger  *slog.Logger
	now     time.Time
}

func (s *CatalogSyncServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.ctx = context.Background()
	s.now = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	s.tokens = mocks.NewMockTokenProvider(s.ctrl)
	s.integrations = mocks.NewMockIntegrationReader(s.ctrl)
	s.api = mocks.NewMockMarketplaceAPI(s.ctrl)
	s.items = mocks.NewMockCatalogItemStore(s.ctrl)
	s.syncLogs = mocks.NewMockSyncLogStore(s.ctrl)
	s.publisher = mocks.NewMockPublisher(s.ctrl)

	s.cfg = config.SyncConfig{
		PageSize:        50,
		OffsetCeiling:   1000,
		MaxScanItems:    50000,
		BatchSize:       20,
		Workers:         5,
		Freshness:       10 * time.Minute,
		DefaultCurrency: "USD",
	}

	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	s.backend = cache.NewMemoryCache(time.Hour)
	s.pageCache = cache.NewReadThrough(s.backend, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.mirror = newMirror()
	s.entries = nil

	s.service = NewCatalogSyncService(
		s.tokens,
		s.integrations,
		s.api,
		s.items,
		s.syncLogs,
		s.pageCache,
		s.publisher,
		s.logger,
		s.cfg,
	)
	s.service.now = func() time.Time { return s.now }
}

func (s *CatalogSyncServiceTestSuite) TearDownTest() {
	_ = s.backend.Close()
	s.ctrl.Finish()
}

func TestCatalogSyncServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CatalogSyncServiceTestSuite))
}

func (s *CatalogSyncServiceTestSuite) activeIntegration() {
	s.integrations.EXPECT().Get(gomock.Any(), testIntegrationID).Return(&domain.Integration{
		ID:                testIntegrationID,
		TenantID:          testTenant,
		ExternalAccountID: testOwner,
		Status:            domain.IntegrationActive,
	}, nil).AnyTimes()
}

func (s *CatalogSyncServiceTestSuite) validToken() {
	s.tokens.EXPECT().GetValidToken(gomock.Any(), testIntegrationID).Return("tok-1", nil).AnyTimes()
}

// recordRuns captures sync log entries and accepts publishes.
func (s *CatalogSyncServiceTestSuite) recordRuns() {
	s.syncLogs.EXPECT().Append(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, entry *domain.SyncLogEntry) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.entries = append(s.entries, entry)
			return nil
		},
	).AnyTimes()
	s.publisher.EXPECT().PublishSyncCompleted(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
}

func (s *CatalogSyncServiceTestSuite) serve(catalog *fakeCatalog) {
	s.api.EXPECT().SearchItemIDs(gomock.Any(), gomock.Any(), testOwner, gomock.Any(), gomock.Any()).DoAndReturn(catalog.search).AnyTimes()
	s.api.EXPECT().ScanItemIDs(gomock.Any(), gomock.Any(), testOwner, gomock.Any(), gomock.Any()).DoAndReturn(catalog.scan).AnyTimes()
	s.api.EXPECT().GetItems(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(catalog.getItems).AnyTimes()
	s.api.EXPECT().GetItem(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(catalog.getItem).AnyTimes()
	s.items.EXPECT().Upsert(gomock.Any(), gomock.Any()).DoAndReturn(s.mirror.upsert).AnyTimes()
	s.items.EXPECT().List(gomock.Any(), testIntegrationID, gomock.Any()).DoAndReturn(s.mirror.list).AnyTimes()
}

func (s *CatalogSyncServiceTestSuite) standardRun(catalog *fakeCatalog) {
	s.activeIntegration()
	s.validToken()
	s.recordRuns()
	s.serve(catalog)
}

func (s *CatalogSyncServiceTestSuite) TestSync_OffsetPaginationCompleteness() {
	catalog := newFakeCatalog(120)
	s.standardRun(catalog)

	result, err := s.service.Sync(s.ctx, testIntegrationID)
	s.Require().NoError(err)

	s.Equal(domain.StrategyOffset, result.Strategy)
	s.Equal(120, result.RequestedTotal)
	s.Equal(120, result.Enumerated)
	s.Equal(120, result.Fetched)
	s.Equal(120, result.Upserted)
	s.Equal(domain.OutcomeSuccess, result.Outcome)
	s.Equal(int32(3), catalog.searchCalls.Load())
	s.Equal(int32(0), catalog.scanCalls.Load())
	s.Equal(int32(6), catalog.batchCalls.Load())
	s.Equal(120, s.mirror.len())

	s.Require().Len(s.entries, 1)
	s.Equal(domain.OutcomeSuccess, s.entries[0].Outcome)
	s.Equal(domain.SyncTypeCatalog, s.entries[0].SyncType)
	s.Equal(120, s.entries[0].Metadata.Upserted)
}

func (s *CatalogSyncServiceTestSuite) TestSync_ThousandItemsStaysOffset() {
	catalog := newFakeCatalog(1000)
	s.standardRun(catalog)

	result, err := s.service.Sync(s.ctx, testIntegrationID)
	s.Require().NoError(err)

	s.Equal(domain.StrategyOffset, result.Strategy)
	s.Equal(1000, result.Enumerated)
	s.Equal(int32(20), catalog.searchCalls.Load())
	s.Equal(int32(0), catalog.scanCalls.Load())
}

func (s *CatalogSyncServiceTestSuite) TestSync_ScrollPaginationForLargeCatalog() {
	catalog := newFakeCatalog(2500)
	s.standardRun(catalog)

	result, err := s.service.Sync(s.ctx, testIntegrationID)
	s.Require().NoError(err)

	s.Equal(domain.StrategyScroll, result.Strategy)
	s.Equal(2500, result.RequestedTotal)
	s.Equal(2500, result.Enumerated)
	s.Equal(2500, result.Upserted)
	s.Equal(2500, s.mirror.len())
	s.Equal(int32(1), catalog.searchCalls.Load())
	s.Equal(int32(51), catalog.scanCalls.Load())
}

func (s *CatalogSyncServiceTestSuite) TestSync_ScanCeilingTruncates() {
	s.service.config.MaxScanItems = 1200
	catalog := newFakeCatalog(2500)
	s.standardRun(catalog)

	result, err := s.service.Sync(s.ctx, testIntegrationID)
	s.Require().NoError(err)

	s.Equal(2500, result.RequestedTotal)
	s.Equal(1200, result.Enumerated)
	s.Equal(1200, s.mirror.len())
}

func (s *CatalogSyncServiceTestSuite) TestSync_BatchAndWorkerBounds() {
	s.service.config.BatchSize = 7
	s.service.config.Workers = 3
	catalog := newFakeCatalog(200)
	s.standardRun(catalog)

	result, err := s.service.Sync(s.ctx, testIntegrationID)
	s.Require().NoError(err)

	s.Equal(200, result.Upserted)
	s.LessOrEqual(catalog.maxBatch.Load(), int32(7))
	s.LessOrEqual(catalog.maxInFlight.Load(), int32(3))
	// 200 = 28*7 + 4
	s.Equal(int32(29), catalog.batchCalls.Load())
	s.Equal(int32(0), catalog.singleCalls.Load())
}

func (s *CatalogSyncServiceTestSuite) TestSync_SingleRemainderUsesItemEndpoint() {
	catalog := newFakeCatalog(21)
	s.standardRun(catalog)

	result, err := s.service.Sync(s.ctx, testIntegrationID)
	s.Require().NoError(err)

	s.Equal(21, result.Upserted)
	s.Equal(int32(1), catalog.batchCalls.Load())
	s.Equal(int32(1), catalog.singleCalls.Load())
}

func (s *CatalogSyncServiceTestSuite) TestSync_PartialTolerance() {
	catalog := newFakeCatalog(50)
	catalog.failing["MLA00013"] = true
	s.standardRun(catalog)

	result, err := s.service.Sync(s.ctx, testIntegrationID)
	s.Require().NoError(err)

	s.Equal(domain.OutcomePartial, result.Outcome)
	s.Equal(50, result.Enumerated)
	s.Equal(49, result.Fetched)
	s.Equal(1, result.Failed)
	s.Equal(49, result.Upserted)
	s.Equal(49, s.mirror.len())

	s.Require().Len(s.entries, 1)
	s.Equal(domain.OutcomePartial, s.entries[0].Outcome)
	s.Equal([]string{"MLA00013"}, s.entries[0].Metadata.FailedIDs)
	s.Equal(1, s.entries[0].Metadata.Failed)
}

func (s *CatalogSyncServiceTestSuite) TestSync_RerunIsIdempotent() {
	catalog := newFakeCatalog(50)
	catalog.failing["MLA00013"] = true
	s.standardRun(catalog)

	_, err := s.service.Sync(s.ctx, testIntegrationID)
	s.Require().NoError(err)
	_, err = s.service.Sync(s.ctx, testIntegrationID)
	s.Require().NoError(err)

	s.Equal(49, s.mirror.len())
	s.Len(s.entries, 2)
}

func (s *CatalogSyncServiceTestSuite) TestSync_UpsertFailureIsPartial() {
	catalog := newFakeCatalog(3)
	s.activeIntegration()
	s.validToken()
	s.recordRuns()
	s.api.EXPECT().SearchItemIDs(gomock.Any(), gomock.Any(), testOwner, gomock.Any(), gomock.Any()).DoAndReturn(catalog.search)
	s.api.EXPECT().GetItems(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(catalog.getItems)
	s.items.EXPECT().Upsert(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, item *domain.CatalogItem) error {
		if item.ExternalItemID == "MLA00002" {
			return errors.New("constraint violation")
		}
		return s.mirror.upsert(ctx, item)
	}).Times(3)

	result, err := s.service.Sync(s.ctx, testIntegrationID)
	s.Require().NoError(err)

	s.Equal(domain.OutcomePartial, result.Outcome)
	s.Equal(3, result.Fetched)
	s.Equal(2, result.Upserted)
	s.Equal(1, result.Failed)
	s.Equal(phaseUpsert, result.Failures[0].Phase)
}

func (s *CatalogSyncServiceTestSuite) TestSync_EnumerationFailureLogsError() {
	s.activeIntegration()
	s.validToken()
	s.recordRuns()

	rateLimited := &domain.APIError{Kind: domain.ErrRateLimited, StatusCode: 429}
	s.api.EXPECT().SearchItemIDs(gomock.Any(), "tok-1", testOwner, 50, 0).Return(nil, rateLimited)

	result, err := s.service.Sync(s.ctx, testIntegrationID)
	s.Require().Error(err)
	s.ErrorIs(err, domain.ErrSync)
	s.ErrorIs(err, domain.ErrRateLimited)

	s.Equal(domain.OutcomeError, result.Outcome)
	s.Require().Len(s.entries, 1)
	s.Equal(domain.OutcomeError, s.entries[0].Outcome)
	s.NotEmpty(s.entries[0].Metadata.Error)
}

func (s *CatalogSyncServiceTestSuite) TestSync_TokenFailureLogsError() {
	s.activeIntegration()
	s.recordRuns()

	tokenErr := &domain.TokenError{IntegrationID: testIntegrationID, Reason: "invalid_grant", Err: errors.New("400")}
	s.tokens.EXPECT().GetValidToken(gomock.Any(), testIntegrationID).Return("", tokenErr)

	result, err := s.service.Sync(s.ctx, testIntegrationID)
	s.ErrorIs(err, domain.ErrReconnectRequired)
	s.Equal(domain.OutcomeError, result.Outcome)
	s.Len(s.entries, 1)
}

func (s *CatalogSyncServiceTestSuite) TestSync_InactiveIntegration() {
	s.integrations.EXPECT().Get(gomock.Any(), testIntegrationID).Return(&domain.Integration{
		ID:       testIntegrationID,
		TenantID: testTenant,
		Status:   domain.IntegrationRevoked,
	}, nil)
	s.recordRuns()

	result, err := s.service.Sync(s.ctx, testIntegrationID)
	s.ErrorIs(err, domain.ErrIntegrationInactive)
	s.Equal(domain.OutcomeError, result.Outcome)
	s.Len(s.entries, 1)
}

func (s *CatalogSyncServiceTestSuite) TestSync_UnknownIntegration() {
	s.integrations.EXPECT().Get(gomock.Any(), int64(99)).Return(nil, domain.ErrIntegrationNotFound)

	result, err := s.service.Sync(s.ctx, 99)
	s.ErrorIs(err, domain.ErrIntegrationNotFound)
	s.Nil(result)
}

func (s *CatalogSyncServiceTestSuite) TestSync_UnauthorizedRefreshesAndRetriesOnce() {
	catalog := newFakeCatalog(10)
	s.activeIntegration()
	s.validToken()
	s.recordRuns()

	unauthorized := &domain.APIError{Kind: domain.ErrUnauthorized, StatusCode: 401}
	gomock.InOrder(
		s.api.EXPECT().SearchItemIDs(gomock.Any(), "tok-1", testOwner, 50, 0).Return(nil, unauthorized),
		s.tokens.EXPECT().ForceRefresh(gomock.Any(), testIntegrationID, "tok-1").Return("tok-2", nil),
		s.api.EXPECT().SearchItemIDs(gomock.Any(), "tok-2", testOwner, 50, 0).DoAndReturn(catalog.search),
		s.api.EXPECT().GetItems(gomock.Any(), "tok-2", gomock.Any()).DoAndReturn(catalog.getItems),
	)
	s.items.EXPECT().Upsert(gomock.Any(), gomock.Any()).DoAndReturn(s.mirror.upsert).Times(10)

	result, err := s.service.Sync(s.ctx, testIntegrationID)
	s.Require().NoError(err)
	s.Equal(10, result.Upserted)
}

func (s *CatalogSyncServiceTestSuite) TestSync_SecondUnauthorizedIsNotRetried() {
	s.activeIntegration()
	s.validToken()
	s.recordRuns()

	unauthorized := &domain.APIError{Kind: domain.ErrUnauthorized, StatusCode: 401}
	s.api.EXPECT().SearchItemIDs(gomock.Any(), "tok-1", testOwner, 50, 0).Return(nil, unauthorized)
	s.tokens.EXPECT().ForceRefresh(gomock.Any(), testIntegrationID, "tok-1").Return("tok-2", nil)
	s.api.EXPECT().SearchItemIDs(gomock.Any(), "tok-2", testOwner, 50, 0).Return(nil, unauthorized)

	result, err := s.service.Sync(s.ctx, testIntegrationID)
	s.ErrorIs(err, domain.ErrUnauthorized)
	s.Equal(domain.OutcomeError, result.Outcome)
}

func (s *CatalogSyncServiceTestSuite) TestSync_ConcurrentCallsShareOneRun() {
	catalog := newFakeCatalog(5)
	entered := make(chan struct{})
	release := make(chan struct{})

	s.integrations.EXPECT().Get(gomock.Any(), testIntegrationID).Return(&domain.Integration{
		ID: testIntegrationID, TenantID: testTenant, ExternalAccountID: testOwner, Status: domain.IntegrationActive,
	}, nil).Times(1)
	s.validToken()
	s.recordRuns()
	s.api.EXPECT().SearchItemIDs(gomock.Any(), gomock.Any(), testOwner, gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, token, owner string, limit, offset int) (*marketplace.SearchResponse, error) {
			close(entered)
			<-release
			return catalog.search(ctx, token, owner, limit, offset)
		},
	).Times(1)
	s.api.EXPECT().GetItems(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(catalog.getItems).Times(1)
	s.items.EXPECT().Upsert(gomock.Any(), gomock.Any()).DoAndReturn(s.mirror.upsert).Times(5)

	results := make([]*domain.SyncResult, 2)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = s.service.Sync(s.ctx, testIntegrationID)
	}()
	<-entered

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], _ = s.service.Sync(s.ctx, testIntegrationID)
	}()
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	s.Same(results[0], results[1])
	s.Len(s.entries, 1)
}

func (s *CatalogSyncServiceTestSuite) TestSynchronize_FreshMirrorIsServedFromCache() {
	s.activeIntegration()
	s.syncLogs.EXPECT().LastCompletedAt(gomock.Any(), testIntegrationID).Return(s.now.Add(-time.Minute), nil).Times(2)
	s.items.EXPECT().List(gomock.Any(), testIntegrationID, gomock.Any()).DoAndReturn(s.mirror.list).AnyTimes()
	_ = s.mirror.upsert(s.ctx, &domain.CatalogItem{
		IntegrationID:  testIntegrationID,
		ExternalItemID: "MLA1",
		Title:          "Mate",
		Price:          decimal.RequireFromString("9.99"),
		Status:         domain.ItemActive,
	})

	opts := domain.ListOptions{Limit: 10}
	for i := 0; i < 2; i++ {
		page, err := s.service.Synchronize(s.ctx, testIntegrationID, opts)
		s.Require().NoError(err)
		s.Equal(1, page.Paging.Total)
		s.Equal(10, page.Paging.Limit)
		s.Require().Len(page.Results, 1)
		s.True(page.Results[0].Price.Equal(decimal.RequireFromString("9.99")))
	}

	s.Equal(int32(1), s.mirror.lists.Load())
}

func (s *CatalogSyncServiceTestSuite) TestSynchronize_StaleMirrorTriggersSync() {
	catalog := newFakeCatalog(30)
	s.standardRun(catalog)
	s.syncLogs.EXPECT().LastCompletedAt(gomock.Any(), testIntegrationID).Return(time.Time{}, nil)

	page, err := s.service.Synchronize(s.ctx, testIntegrationID, domain.ListOptions{Limit: 500, Offset: -3})
	s.Require().NoError(err)

	s.Equal(30, page.Paging.Total)
	s.Equal(MaxPageLimit, page.Paging.Limit)
	s.Equal(0, page.Paging.Offset)
	s.Len(page.Results, 30)
	s.Len(s.entries, 1)
}

func (s *CatalogSyncServiceTestSuite) TestSynchronize_FailedSyncIsReturned() {
	s.activeIntegration()
	s.validToken()
	s.recordRuns()
	s.syncLogs.EXPECT().LastCompletedAt(gomock.Any(), testIntegrationID).Return(time.Time{}, nil)
	s.api.EXPECT().SearchItemIDs(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, &domain.APIError{Kind: domain.ErrForbidden, StatusCode: 403})

	_, err := s.service.Synchronize(s.ctx, testIntegrationID, domain.ListOptions{})
	s.ErrorIs(err, domain.ErrForbidden)
}

func (s *CatalogSyncServiceTestSuite) TestUpdateItemPrice() {
	s.activeIntegration()
	s.validToken()
	s.syncLogs.EXPECT().LastCompletedAt(gomock.Any(), testIntegrationID).Return(s.now, nil).AnyTimes()
	s.items.EXPECT().List(gomock.Any(), testIntegrationID, gomock.Any()).DoAndReturn(s.mirror.list).AnyTimes()

	price := decimal.RequireFromString("15.00")
	s.api.EXPECT().UpdateItem(gomock.Any(), "tok-1", "MLA1", marketplace.ItemUpdate{Price: &price}).
		Return(&marketplace.Item{ID: "MLA1", Title: "Mate", Price: &price, Status: "active"}, nil)
	s.items.EXPECT().Upsert(gomock.Any(), gomock.Any()).DoAndReturn(s.mirror.upsert)

	_, err := s.service.Synchronize(s.ctx, testIntegrationID, domain.ListOptions{})
	s.Require().NoError(err)

	item, err := s.service.UpdateItemPrice(s.ctx, testIntegrationID, "MLA1", price)
	s.Require().NoError(err)
	s.True(item.Price.Equal(price))
	s.Equal("USD", item.CurrencyID)

	page, err := s.service.Synchronize(s.ctx, testIntegrationID, domain.ListOptions{})
	s.Require().NoError(err)
	s.Len(page.Results, 1)
	s.Equal(int32(2), s.mirror.lists.Load())
}

func (s *CatalogSyncServiceTestSuite) TestUpdateItemPrice_RejectsNonPositive() {
	_, err := s.service.UpdateItemPrice(s.ctx, testIntegrationID, "MLA1", decimal.Zero)
	s.ErrorIs(err, domain.ErrBadRequest)
}

func (s *CatalogSyncServiceTestSuite) TestMapItem_Defaults() {
	syncedAt := s.now

	item := mapItem(7, &marketplace.Item{ID: "X"}, syncedAt, "USD")
	s.Equal("X", item.ExternalItemID)
	s.True(item.Price.IsZero())
	s.Equal("USD", item.CurrencyID)
	s.Equal(0, item.AvailableQuantity)
	s.Equal(0, item.SoldQuantity)
	s.Equal(domain.ItemActive, item.Status)
	s.Equal(syncedAt, item.LastSyncedAt)

	s.Equal(domain.ItemPaused, mapStatus("under_review"))
	s.Equal(domain.ItemClosed, mapStatus("closed"))
	s.Equal(domain.ItemPaused, mapStatus("paused"))
}

func (s *CatalogSyncServiceTestSuite) TestChunk() {
	ids := []string{"a", "b", "c", "d", "e"}

	s.Equal([][]string{{"a", "b"}, {"c", "d"}, {"e"}}, chunk(ids, 2))
	s.Equal([][]string{{"a", "b", "c", "d", "e"}}, chunk(ids, 20))
	s.Empty(chunk(nil, 20))
}

func (s *CatalogSyncServiceTestSuite) TestSync_CancelledStarterDoesNotAbortSharedRun() {
	catalog := newFakeCatalog(40)
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	s.activeIntegration()
	s.validToken()
	s.recordRuns()
	s.api.EXPECT().SearchItemIDs(gomock.Any(), gomock.Any(), testOwner, gomock.Any(), gomock.Any()).DoAndReturn(catalog.search).AnyTimes()
	s.api.EXPECT().GetItems(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, token string, ids []string) ([]marketplace.ItemResult, error) {
			once.Do(func() { close(entered) })
			select {
			case <-release:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			return catalog.getItems(ctx, token, ids)
		},
	).Times(2)
	s.items.EXPECT().Upsert(gomock.Any(), gomock.Any()).DoAndReturn(s.mirror.upsert).Times(40)

	starterCtx, cancel := context.WithCancel(s.ctx)
	starterErr := make(chan error, 1)
	go func() {
		_, err := s.service.Sync(starterCtx, testIntegrationID)
		starterErr <- err
	}()
	<-entered

	type outcome struct {
		result *domain.SyncResult
		err    error
	}
	joined := make(chan outcome, 1)
	go func() {
		result, err := s.service.Sync(context.Background(), testIntegrationID)
		joined <- outcome{result, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	s.ErrorIs(<-starterErr, context.Canceled)
	close(release)

	got := <-joined
	s.Require().NoError(got.err)
	s.Equal(domain.OutcomeSuccess, got.result.Outcome)
	s.Equal(40, got.result.Fetched)
	s.Equal(40, got.result.Upserted)
	s.Zero(got.result.Failed)

	s.Require().Len(s.entries, 1)
	s.Equal(domain.OutcomeSuccess, s.entries[0].Outcome)
	s.Empty(s.entries[0].Metadata.FailedIDs)
}

func (s *CatalogSyncServiceTestSuite) TestSync_RunTimeoutIsErrorNotItemFailures() {
	s.service.config.RunTimeout = 30 * time.Millisecond
	catalog := newFakeCatalog(40)

	s.activeIntegration()
	s.validToken()
	s.recordRuns()
	s.api.EXPECT().SearchItemIDs(gomock.Any(), gomock.Any(), testOwner, gomock.Any(), gomock.Any()).DoAndReturn(catalog.search).AnyTimes()
	s.api.EXPECT().GetItems(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ []string) ([]marketplace.ItemResult, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	).AnyTimes()

	result, err := s.service.Sync(s.ctx, testIntegrationID)
	s.ErrorIs(err, domain.ErrSync)
	s.ErrorIs(err, context.DeadlineExceeded)

	s.Equal(domain.OutcomeError, result.Outcome)
	s.Zero(result.Failed)
	s.Zero(result.Upserted)

	s.Require().Len(s.entries, 1)
	s.Equal(domain.OutcomeError, s.entries[0].Outcome)
	s.Empty(s.entries[0].Metadata.FailedIDs)
}

func (s *CatalogSyncServiceTestSuite) TestNewCatalogSyncService_FloorsNonPositiveBounds() {
	cfg := s.cfg
	cfg.Workers = -1
	cfg.BatchSize = 0
	cfg.MaxScanItems = -1

	s.service = NewCatalogSyncService(s.tokens, s.integrations, s.api, s.items, s.syncLogs, s.pageCache, s.publisher, s.logger, cfg)
	s.service.now = func() time.Time { return s.now }

	s.Equal(config.DefaultWorkers, s.service.config.Workers)
	s.Equal(config.DefaultBatchSize, s.service.config.BatchSize)
	s.Equal(config.DefaultMaxScanItems, s.service.config.MaxScanItems)
	s.Equal(config.DefaultRunTimeout, s.service.config.RunTimeout)

	catalog := newFakeCatalog(400)
	s.standardRun(catalog)

	result, err := s.service.Sync(s.ctx, testIntegrationID)
	s.Require().NoError(err)
	s.Equal(400, result.Upserted)
	s.LessOrEqual(catalog.maxInFlight.Load(), int32(config.DefaultWorkers))
}

func (s *CatalogSyncServiceTestSuite) TestSync_ScrollStopsWhenPageAddsNothing() {
	catalog := newFakeCatalog(2000)
	s.activeIntegration()
	s.validToken()
	s.recordRuns()
	s.api.EXPECT().SearchItemIDs(gomock.Any(), gomock.Any(), testOwner, gomock.Any(), gomock.Any()).DoAndReturn(catalog.search)
	s.api.EXPECT().ScanItemIDs(gomock.Any(), gomock.Any(), testOwner, gomock.Any(), gomock.Any()).Return(&marketplace.SearchResponse{
		Results:  catalog.ids[:50],
		Paging:   marketplace.Paging{Total: 2000},
		ScrollID: "stuck",
	}, nil).Times(2)
	s.api.EXPECT().GetItems(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(catalog.getItems).AnyTimes()
	s.items.EXPECT().Upsert(gomock.Any(), gomock.Any()).DoAndReturn(s.mirror.upsert).Times(50)

	result, err := s.service.Sync(s.ctx, testIntegrationID)
	s.Require().NoError(err)

	s.Equal(domain.StrategyScroll, result.Strategy)
	s.Equal(2000, result.RequestedTotal)
	s.Equal(50, result.Enumerated)
	s.Equal(50, result.Upserted)
}
