package cache

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/davicafu/contentql/internal/content/domain"
	"github.com/davicafu/contentql/internal/metrics"
	sharedCache "github.com/davicafu/contentql/internal/shared/infra/platform/cache"
	sharedQuery "github.com/davicafu/contentql/internal/shared/infra/platform/query"
)

// cachedEntity envuelve la entidad para poder deserializarla con su tipo concreto.
type cachedEntity struct {
	Kind     domain.EntityType `json:"kind"`
	Post     *domain.Post      `json:"post,omitempty"`
	User     *domain.User      `json:"user,omitempty"`
	MenuItem *domain.MenuItem  `json:"menu_item,omitempty"`
}

func wrap(e domain.Entity) (cachedEntity, bool) {
	switch v := e.(type) {
	case *domain.Post:
		return cachedEntity{Kind: v.PostType, Post: v}, true
	case *domain.User:
		return cachedEntity{Kind: domain.EntityUser, User: v}, true
	case *domain.MenuItem:
		return cachedEntity{Kind: domain.EntityMenuItem, MenuItem: v}, true
	}
	return cachedEntity{}, false
}

func (c cachedEntity) entity() domain.Entity {
	switch {
	case c.Post != nil:
		return c.Post
	case c.User != nil:
		return c.User
	case c.MenuItem != nil:
		return c.MenuItem
	}
	return nil
}

// CachedSource decora un DataSource y sirve desde caché las lecturas por ID
// (las que hace el BatchLoader). El resto de consultas pasan directas.
type CachedSource struct {
	inner   domain.DataSource
	cache   sharedCache.Cache
	ttlSecs int
	metrics *metrics.Metrics
	log     *zap.Logger
}

var _ domain.DataSource = (*CachedSource)(nil)

func NewCachedSource(inner domain.DataSource, c sharedCache.Cache, ttlSecs int, m *metrics.Metrics, log *zap.Logger) *CachedSource {
	return &CachedSource{inner: inner, cache: c, ttlSecs: ttlSecs, metrics: m, log: log}
}

// byIDOnly indica si la consulta es una lectura pura por IDs en orden.
func byIDOnly(p domain.QueryParams) bool {
	return len(p.IDs) > 0 && p.PreserveIDOrder && !p.CountTotal &&
		len(p.Statuses) == 0 && len(p.Conditions) == 0 && len(p.Terms) == 0 &&
		p.Search == "" && p.TaxQuery == nil && p.MetaQuery == nil && p.DateQuery == nil &&
		p.Pagination.Offset == 0 && len(p.Extra) == 0
}

func (s *CachedSource) Query(ctx context.Context, p domain.QueryParams) (domain.QueryResult, error) {
	if s.cache == nil || !byIDOnly(p) {
		return s.inner.Query(ctx, p)
	}

	found := make(map[int64]domain.Entity, len(p.IDs))
	var misses []int64
	for _, id := range p.IDs {
		var ce cachedEntity
		hit, err := s.cache.Get(ctx, domain.CacheKeyByID(p.EntityType, id), &ce)
		if err != nil {
			// Una caché caída no debe tumbar la lectura.
			s.log.Warn("Cache read failed", zap.Int64("id", id), zap.Error(err))
		}
		if e := ce.entity(); hit && e != nil {
			found[id] = e
			s.metrics.ObserveCache(string(p.EntityType), true)
			continue
		}
		s.metrics.ObserveCache(string(p.EntityType), false)
		misses = append(misses, id)
	}

	if len(misses) > 0 {
		sub := p
		sub.IDs = misses
		sub.Pagination = sharedQuery.OffsetPagination{Limit: len(misses)}
		res, err := s.inner.Query(ctx, sub)
		if err != nil {
			return domain.QueryResult{}, fmt.Errorf("cached source: %w", err)
		}
		for _, e := range res.Records {
			found[e.EntityID()] = e
			if ce, ok := wrap(e); ok {
				sharedCache.AsyncCacheSet(ctx, s.cache, domain.CacheKeyByID(p.EntityType, e.EntityID()), ce, s.ttlSecs, s.log)
			}
		}
	}

	records := make([]domain.Entity, 0, len(found))
	for _, id := range p.IDs {
		if e, ok := found[id]; ok {
			records = append(records, e)
			delete(found, id)
		}
	}
	if limit := p.Pagination.Limit; limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return domain.QueryResult{Records: records}, nil
}

// Invalidate borra la entrada de una entidad. Los posts y las páginas comparten IDs,
// así que un cambio en cualquiera de los dos limpia ambas claves.
func (s *CachedSource) Invalidate(ctx context.Context, t domain.EntityType, id int64) error {
	if s.cache == nil {
		return nil
	}
	types := []domain.EntityType{t}
	if t.PostLike() {
		types = []domain.EntityType{domain.EntityPost, domain.EntityPage}
	}
	for _, tt := range types {
		if err := s.cache.Delete(ctx, domain.CacheKeyByID(tt, id)); err != nil {
			return fmt.Errorf("invalidate %s: %w", domain.CacheKeyByID(tt, id), err)
		}
	}
	return nil
}
