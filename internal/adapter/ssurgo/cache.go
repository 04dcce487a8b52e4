package ssurgo

import (
	"context"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/soilgen/soilgen-fire/internal/domain"
	"github.com/soilgen/soilgen-fire/internal/observability"
	"github.com/soilgen/soilgen-fire/internal/pipeline"
)

// CachedSource wraps a pipeline.Source with an LRU cache of horizon rows.
// A cokey can be dominant in several map units of one list; its rows are
// read once. Component lookups are not cached.
type CachedSource struct {
	inner   pipeline.Source
	cache   *lru.Cache[string, []domain.HorizonRecord]
	metrics *observability.Metrics
}

// NewCachedSource creates a cache decorator around a source. A size of
// zero or less returns inner unwrapped.
func NewCachedSource(inner pipeline.Source, size int, metrics *observability.Metrics) (pipeline.Source, error) {
	if size <= 0 {
		return inner, nil
	}
	cache, err := lru.New[string, []domain.HorizonRecord](size)
	if err != nil {
		return nil, err
	}
	return &CachedSource{inner: inner, cache: cache, metrics: metrics}, nil
}

func (c *CachedSource) Horizons(ctx context.Context, cokey string) ([]domain.HorizonRecord, error) {
	if rows, ok := c.cache.Get(cokey); ok {
		c.metrics.HorizonCache.WithLabelValues("hit").Inc()
		return slices.Clone(rows), nil
	}
	c.metrics.HorizonCache.WithLabelValues("miss").Inc()

	rows, err := c.inner.Horizons(ctx, cokey)
	if err != nil {
		return nil, err
	}
	// Empty results are not cached so a later retry can see new rows.
	if len(rows) > 0 {
		c.cache.Add(cokey, slices.Clone(rows))
	}
	return rows, nil
}

func (c *CachedSource) Components(ctx context.Context, mukey string) ([]domain.ComponentShare, error) {
	return c.inner.Components(ctx, mukey)
}
