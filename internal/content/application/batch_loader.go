package application

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/davicafu/contentql/internal/content/domain"
	"github.com/davicafu/contentql/internal/metrics"
	sharedQuery "github.com/davicafu/contentql/internal/shared/infra/platform/query"
)

// Result es el resultado de una key: el modelo visible o EntityNotFoundError.
type Result struct {
	Model *domain.Model
	Err   error
}

// BatchLoader agrupa las cargas por ID de un tipo en una sola consulta.
// Vive lo que dura una petición; memoriza lo ya resuelto.
type BatchLoader struct {
	entityType domain.EntityType
	source     domain.DataSource
	viewer     domain.Viewer
	metrics    *metrics.Metrics
	log        *zap.Logger

	mu     sync.Mutex
	queued []int64
	memo   map[int64]Result
}

func NewBatchLoader(entityType domain.EntityType, source domain.DataSource, viewer domain.Viewer, m *metrics.Metrics, log *zap.Logger) *BatchLoader {
	return &BatchLoader{
		entityType: entityType,
		source:     source,
		viewer:     viewer,
		metrics:    m,
		log:        log,
		memo:       make(map[int64]Result),
	}
}

// Prime encola keys para que viajen en la próxima consulta.
func (l *BatchLoader) Prime(keys ...int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, k := range keys {
		if k <= 0 {
			continue
		}
		if _, done := l.memo[k]; done {
			continue
		}
		l.queued = append(l.queued, k)
	}
}

// Load devuelve el modelo de key o EntityNotFoundError.
func (l *BatchLoader) Load(ctx context.Context, key int64) (*domain.Model, error) {
	results, err := l.LoadMany(ctx, []int64{key})
	if err != nil {
		return nil, err
	}
	r := results[key]
	return r.Model, r.Err
}

// LoadMany resuelve keys con como mucho una consulta. Cada key obtiene su propio
// Result; el error devuelto solo indica que falló la consulta entera.
func (l *BatchLoader) LoadMany(ctx context.Context, keys []int64) (map[int64]Result, error) {
	out := make(map[int64]Result, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	pending := l.pendingKeys(keys)
	if len(pending) > 0 {
		if err := l.fetch(ctx, pending); err != nil {
			return nil, err
		}
	}

	for _, k := range keys {
		r, ok := l.memo[k]
		if !ok {
			r = Result{Err: &domain.EntityNotFoundError{Type: l.entityType, ID: k}}
		}
		out[k] = r
	}
	return out, nil
}

// pendingKeys une lo encolado y lo pedido, sin duplicados ni keys ya resueltas.
func (l *BatchLoader) pendingKeys(keys []int64) []int64 {
	seen := make(map[int64]struct{}, len(keys)+len(l.queued))
	var pending []int64
	add := func(k int64) {
		if k <= 0 {
			return
		}
		if _, done := l.memo[k]; done {
			return
		}
		if _, dup := seen[k]; dup {
			return
		}
		seen[k] = struct{}{}
		pending = append(pending, k)
	}
	for _, k := range l.queued {
		add(k)
	}
	for _, k := range keys {
		add(k)
	}
	return pending
}

func (l *BatchLoader) fetch(ctx context.Context, ids []int64) error {
	params := domain.QueryParams{
		EntityType:      l.entityType,
		IDs:             ids,
		PreserveIDOrder: true,
		Pagination:      sharedQuery.OffsetPagination{Limit: len(ids)},
		Sort:            domain.DefaultSort(l.entityType),
		CountTotal:      false,
		IgnoreSticky:    true,
	}
	res, err := l.source.Query(ctx, params)
	if err != nil {
		l.log.Error("Batch load failed",
			zap.String("entity_type", string(l.entityType)),
			zap.Int("keys", len(ids)),
			zap.Error(err))
		return fmt.Errorf("load %s batch: %w", l.entityType, err)
	}
	l.queued = l.queued[:0]

	found := make(map[int64]domain.Entity, len(res.Records))
	for _, e := range res.Records {
		found[e.EntityID()] = e
	}

	missing := 0
	for _, id := range ids {
		if model := domain.Project(found[id], l.viewer); model != nil {
			l.memo[id] = Result{Model: model}
			continue
		}
		missing++
		l.memo[id] = Result{Err: &domain.EntityNotFoundError{Type: l.entityType, ID: id}}
	}

	l.metrics.ObserveLoaderFetch(string(l.entityType), len(ids), missing)
	l.log.Debug("Batch loaded",
		zap.String("entity_type", string(l.entityType)),
		zap.Int("keys", len(ids)),
		zap.Int("missing", missing))
	return nil
}

// ---------------- Loaders por petición ----------------

// Loaders mantiene un BatchLoader por tipo para una petición.
type Loaders struct {
	source  domain.DataSource
	viewer  domain.Viewer
	metrics *metrics.Metrics
	log     *zap.Logger

	mu     sync.Mutex
	byType map[domain.EntityType]*BatchLoader
}

func NewLoaders(source domain.DataSource, viewer domain.Viewer, m *metrics.Metrics, log *zap.Logger) *Loaders {
	return &Loaders{
		source:  source,
		viewer:  viewer,
		metrics: m,
		log:     log,
		byType:  make(map[domain.EntityType]*BatchLoader),
	}
}

// For devuelve el loader del tipo, creándolo la primera vez.
func (l *Loaders) For(t domain.EntityType) *BatchLoader {
	l.mu.Lock()
	defer l.mu.Unlock()
	loader, ok := l.byType[t]
	if !ok {
		loader = NewBatchLoader(t, l.source, l.viewer, l.metrics, l.log)
		l.byType[t] = loader
	}
	return loader
}

type loadersKey struct{}

// WithLoaders guarda los loaders de la petición en el contexto.
func WithLoaders(ctx context.Context, l *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey{}, l)
}

// LoadersFrom recupera los loaders de la petición, o nil.
func LoadersFrom(ctx context.Context) *Loaders {
	l, _ := ctx.Value(loadersKey{}).(*Loaders)
	return l
}
