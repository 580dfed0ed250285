package service

import (
	"context"
	"fmt"

	"catalog_sync/internal/domain"
	"catalog_sync/internal/source/marketplace"
)

// idSet accumulates identifiers in first-seen order.
type idSet struct {
	seen  map[string]struct{}
	order []string
}

func newIDSet() *idSet {
	return &idSet{seen: make(map[string]struct{})}
}

func (s *idSet) add(ids []string) {
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := s.seen[id]; ok {
			continue
		}
		s.seen[id] = struct{}{}
		s.order = append(s.order, id)
	}
}

func (s *idSet) len() int {
	return len(s.order)
}

// enumerate lists every item identifier of owner. The first offset page
// reports the catalog size, which selects the pagination strategy.
func (s *CatalogSyncService) enumerate(ctx context.Context, sess *apiSession, owner string, result *domain.SyncResult) ([]string, error) {
	first, err := s.searchPage(ctx, sess, owner, s.offsetLimit(0), 0)
	if err != nil {
		return nil, fmt.Errorf("initial search: %w", err)
	}

	result.RequestedTotal = first.Paging.Total

	if first.Paging.Total <= s.config.OffsetCeiling {
		result.Strategy = domain.StrategyOffset
		return s.enumerateOffset(ctx, sess, owner, first)
	}

	result.Strategy = domain.StrategyScroll
	return s.enumerateScroll(ctx, sess, owner)
}

func (s *CatalogSyncService) enumerateOffset(ctx context.Context, sess *apiSession, owner string, first *marketplace.SearchResponse) ([]string, error) {
	ids := newIDSet()
	ids.add(first.Results)

	total := first.Paging.Total
	offset := len(first.Results)
	pageLen := len(first.Results)

	for offset < total && offset < s.config.OffsetCeiling && pageLen > 0 {
		page, err := s.searchPage(ctx, sess, owner, s.offsetLimit(offset), offset)
		if err != nil {
			return nil, fmt.Errorf("search offset %d: %w", offset, err)
		}
		ids.add(page.Results)
		pageLen = len(page.Results)
		offset += pageLen
	}

	return ids.order, nil
}

func (s *CatalogSyncService) enumerateScroll(ctx context.Context, sess *apiSession, owner string) ([]string, error) {
	ids := newIDSet()
	scrollID := ""

	for pages := 1; ; pages++ {
		var page *marketplace.SearchResponse
		err := sess.call(ctx, func(token string) error {
			var err error
			page, err = s.api.ScanItemIDs(ctx, token, owner, s.config.PageSize, scrollID)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("scan page %d: %w", pages, err)
		}

		if len(page.Results) == 0 {
			break
		}
		seen := ids.len()
		ids.add(page.Results)
		if ids.len() == seen {
			s.logger.Warn("scan page added no new ids", "owner", owner, "page", pages)
			break
		}

		if ids.len() >= s.config.MaxScanItems {
			s.logger.Warn("scan ceiling reached", "owner", owner, "ceiling", s.config.MaxScanItems)
			return ids.order[:s.config.MaxScanItems], nil
		}
		if page.ScrollID == "" {
			break
		}
		scrollID = page.ScrollID
	}

	return ids.order, nil
}

func (s *CatalogSyncService) searchPage(ctx context.Context, sess *apiSession, owner string, limit, offset int) (*marketplace.SearchResponse, error) {
	var page *marketplace.SearchResponse
	err := sess.call(ctx, func(token string) error {
		var err error
		page, err = s.api.SearchItemIDs(ctx, token, owner, limit, offset)
		return err
	})
	return page, err
}

// offsetLimit keeps offset+limit within the offset ceiling.
func (s *CatalogSyncService) offsetLimit(offset int) int {
	return max(min(s.config.PageSize, s.config.OffsetCeiling-offset), 1)
}
