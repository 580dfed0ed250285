package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"catalog_sync/internal/metrics"
)

// ReadThrough serves computed values from a Cache backend. Concurrent misses
// of one key share a single computation.
type ReadThrough struct {
	backend Cache
	ttl     time.Duration
	flights singleflight.Group
	logger  *slog.Logger

	// generations counts invalidations per tenant. A computation that saw an
	// older generation never writes its value back.
	genMu       sync.RWMutex
	generations map[string]uint64
}

func NewReadThrough(backend Cache, ttl time.Duration, logger *slog.Logger) *ReadThrough {
	return &ReadThrough{
		backend:     backend,
		ttl:         ttl,
		logger:      logger.With("component", "cache"),
		generations: make(map[string]uint64),
	}
}

// GetOrCompute returns the cached value of key or stores the result of fn.
// A zero ttl uses the default. Backend failures never fail the call.
func (r *ReadThrough) GetOrCompute(ctx context.Context, key Key, ttl time.Duration, fn func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if ttl <= 0 {
		ttl = r.ttl
	}
	id := key.String()

	value, err := r.backend.Get(ctx, id)
	switch {
	case err == nil:
		metrics.CacheRequests.WithLabelValues("hit").Inc()
		return value, nil
	case errors.Is(err, ErrCacheMiss):
		metrics.CacheRequests.WithLabelValues("miss").Inc()
	default:
		metrics.CacheRequests.WithLabelValues("error").Inc()
		r.logger.Warn("cache read failed", "key", id, "error", err)
	}

	gen := r.generation(key.Tenant)

	result, err, _ := r.flights.Do(id+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
		computed, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		r.store(ctx, key.Tenant, gen, id, computed, ttl)
		return computed, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}

// store writes value unless tenant was invalidated after the computation
// started. The read lock keeps Invalidate from slipping between check and write.
func (r *ReadThrough) store(ctx context.Context, tenant string, gen uint64, id string, value []byte, ttl time.Duration) {
	r.genMu.RLock()
	defer r.genMu.RUnlock()

	if r.generations[tenant] != gen {
		r.logger.Debug("dropping value computed before invalidation", "key", id)
		return
	}
	if err := r.backend.Set(ctx, id, value, ttl); err != nil {
		r.logger.Warn("cache write failed", "key", id, "error", err)
	}
}

func (r *ReadThrough) generation(tenant string) uint64 {
	r.genMu.RLock()
	defer r.genMu.RUnlock()
	return r.generations[tenant]
}

// Invalidate drops every cached value of tenant.
func (r *ReadThrough) Invalidate(ctx context.Context, tenant string) error {
	r.genMu.Lock()
	r.generations[tenant]++
	r.genMu.Unlock()

	if err := r.backend.DeletePrefix(ctx, TenantPrefix(tenant)); err != nil {
		return fmt.Errorf("invalidate tenant %s: %w", tenant, err)
	}
	return nil
}
