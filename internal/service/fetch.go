package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"catalog_sync/internal/domain"
	"catalog_sync/internal/metrics"
	"catalog_sync/internal/source/marketplace"
)

const (
	phaseFetch  = "fetch"
	phaseUpsert = "upsert"
)

var errMissingFromResponse = errors.New("item missing from multi-get response")

type batchOutcome struct {
	items    []marketplace.Item
	failures []domain.ItemFailure
}

// fetchDetails retrieves ids in batches with at most Workers batches in
// flight. Failed items are reported, never returned as an error.
func (s *CatalogSyncService) fetchDetails(ctx context.Context, sess *apiSession, ids []string) ([]marketplace.Item, []domain.ItemFailure) {
	batches := chunk(ids, s.config.BatchSize)
	outcomes := make([]batchOutcome, len(batches))

	var g errgroup.Group
	g.SetLimit(s.config.Workers)

	for i, batch := range batches {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			outcomes[i] = s.fetchBatch(ctx, sess, batch)
			return nil
		})
	}
	_ = g.Wait()

	var items []marketplace.Item
	var failures []domain.ItemFailure
	for _, o := range outcomes {
		items = append(items, o.items...)
		failures = append(failures, o.failures...)
	}

	metrics.SyncItems.WithLabelValues(phaseFetch, "success").Add(float64(len(items)))
	metrics.SyncItems.WithLabelValues(phaseFetch, "failure").Add(float64(len(failures)))

	return items, failures
}

func (s *CatalogSyncService) fetchBatch(ctx context.Context, sess *apiSession, batch []string) batchOutcome {
	if len(batch) == 1 {
		return s.fetchSingle(ctx, sess, batch[0])
	}

	var results []marketplace.ItemResult
	err := sess.call(ctx, func(token string) error {
		var err error
		results, err = s.api.GetItems(ctx, token, batch)
		return err
	})
	if err != nil {
		s.logger.Warn("detail batch failed", "size", len(batch), "error", err)
		return batchOutcome{failures: failAll(batch, err)}
	}

	byID := make(map[string]marketplace.ItemResult, len(results))
	for _, r := range results {
		byID[r.ID] = r
	}

	var out batchOutcome
	for _, id := range batch {
		r, ok := byID[id]
		switch {
		case !ok:
			out.failures = append(out.failures, failure(id, phaseFetch, errMissingFromResponse))
		case r.Err != nil:
			out.failures = append(out.failures, failure(id, phaseFetch, r.Err))
		default:
			out.items = append(out.items, *r.Item)
		}
	}
	return out
}

func (s *CatalogSyncService) fetchSingle(ctx context.Context, sess *apiSession, id string) batchOutcome {
	var item *marketplace.Item
	err := sess.call(ctx, func(token string) error {
		var err error
		item, err = s.api.GetItem(ctx, token, id)
		return err
	})
	if err != nil {
		return batchOutcome{failures: []domain.ItemFailure{failure(id, phaseFetch, err)}}
	}
	return batchOutcome{items: []marketplace.Item{*item}}
}

func chunk(ids []string, size int) [][]string {
	if size <= 0 {
		size = 1
	}
	batches := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		batches = append(batches, ids[start:end])
	}
	return batches
}

func failAll(ids []string, err error) []domain.ItemFailure {
	failures := make([]domain.ItemFailure, len(ids))
	for i, id := range ids {
		failures[i] = failure(id, phaseFetch, err)
	}
	return failures
}

func failure(id, phase string, err error) domain.ItemFailure {
	return domain.ItemFailure{ExternalItemID: id, Phase: phase, Error: fmt.Sprint(err)}
}
