package application

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/davicafu/contentql/internal/content/domain"
	"github.com/davicafu/contentql/internal/metrics"
	sharedDomain "github.com/davicafu/contentql/internal/shared/domain"
	sharedQuery "github.com/davicafu/contentql/internal/shared/infra/platform/query"
)

// ResolverOptions configura el tamaño de página y el comportamiento ante vacíos.
type ResolverOptions struct {
	DefaultAmount int
	MaxAmount     int
	// EmptyIsError hace que una conexión sin registros devuelva EmptyResultError.
	EmptyIsError bool
}

// DefaultResolverOptions: 10 por página, máximo 100, vacío es error.
func DefaultResolverOptions() ResolverOptions {
	return ResolverOptions{DefaultAmount: 10, MaxAmount: 100, EmptyIsError: true}
}

// ResolveRequest es el contexto de la petición que necesita el resolver.
type ResolveRequest struct {
	Viewer        domain.Viewer
	NeedsPageInfo bool
	RequestID     string
}

// ConnectionResolver resuelve conexiones Relay sobre un DataSource.
type ConnectionResolver struct {
	source     domain.DataSource
	translator *ArgsTranslator
	codec      CursorCodec
	opts       ResolverOptions
	stats      domain.StatsSink
	metrics    *metrics.Metrics
	log        *zap.Logger
}

func NewConnectionResolver(
	source domain.DataSource,
	translator *ArgsTranslator,
	opts ResolverOptions,
	stats domain.StatsSink,
	m *metrics.Metrics,
	log *zap.Logger,
) *ConnectionResolver {
	if opts.DefaultAmount <= 0 {
		opts.DefaultAmount = 10
	}
	if opts.MaxAmount <= 0 {
		opts.MaxAmount = 100
	}
	return &ConnectionResolver{
		source:     source,
		translator: translator,
		opts:       opts,
		stats:      stats,
		metrics:    m,
		log:        log,
	}
}

// window es la posición de lectura decidida a partir de los argumentos.
type window struct {
	first, last   int // 0 = no informado
	hasAfter      bool
	hasBefore     bool
	afterOffset   int
	beforeOffset  int
	offset, limit int
	reverse       bool
}

func (w window) backward() bool { return w.last > 0 }

// Resolve devuelve una página de entityType, opcionalmente acotada por parent.
func (r *ConnectionResolver) Resolve(
	ctx context.Context,
	entityType domain.EntityType,
	parent domain.Entity,
	args domain.PaginationArgs,
	req ResolveRequest,
) (*domain.Connection, error) {
	if args.After != nil && args.Before != nil {
		return nil, &domain.ArgumentConflictError{A: "after", B: "before"}
	}
	if args.First != nil && args.Last != nil {
		return nil, &domain.ArgumentConflictError{A: "first", B: "last"}
	}

	start := time.Now()
	w := r.window(args)

	base := domain.QueryParams{
		EntityType: entityType,
		Sort:       domain.DefaultSort(entityType),
		Pagination: sharedQuery.OffsetPagination{Limit: w.limit, Offset: w.offset},
		Reverse:    w.reverse,
		CountTotal: !args.Empty() || req.NeedsPageInfo,
	}
	scopeToParent(&base, parent)
	params := r.translator.Translate(ctx, base, args.Where, req.Viewer)

	// Un before en el offset 0 no deja nada que leer.
	var res domain.QueryResult
	var err error
	if w.limit > 0 {
		res, err = r.source.Query(ctx, params)
	}
	if err != nil {
		r.record(ctx, req, params, 0, nil, start, true)
		r.metrics.ObserveConnection(string(entityType), "error", 0, time.Since(start))
		r.log.Error("Connection query failed",
			zap.String("entity_type", string(entityType)),
			zap.String("request_id", req.RequestID),
			zap.Error(err))
		return nil, fmt.Errorf("query %s connection: %w", entityType, err)
	}

	records := res.Records
	r.record(ctx, req, params, len(records), res.Total, start, false)

	sliceStart := w.offset
	if w.reverse {
		reverseEntities(records)
		sliceStart = 0
		if res.Total != nil {
			sliceStart = *res.Total - len(records)
		}
		// Con last+after la ventana no puede cruzar el cursor after.
		if w.hasAfter {
			for len(records) > 0 && sliceStart <= w.afterOffset {
				records = records[1:]
				sliceStart++
			}
		}
	}

	// La política de vacío se aplica sobre la ventana ya recortada.
	if len(records) == 0 {
		r.metrics.ObserveConnection(string(entityType), "empty", 0, time.Since(start))
		if r.opts.EmptyIsError {
			return nil, &domain.EmptyResultError{Type: entityType}
		}
		return &domain.Connection{Edges: []domain.Edge{}, TotalCount: res.Total}, nil
	}

	conn := &domain.Connection{Edges: make([]domain.Edge, 0, len(records)), TotalCount: res.Total}
	for i, rec := range records {
		model := domain.Project(rec, req.Viewer)
		if model == nil {
			continue
		}
		conn.Edges = append(conn.Edges, domain.Edge{
			Cursor: r.codec.Encode(sliceStart + i),
			Node:   model,
		})
	}
	conn.PageInfo = r.pageInfo(w, sliceStart, len(records), res.Total)
	if n := len(conn.Edges); n > 0 {
		startCursor, endCursor := conn.Edges[0].Cursor, conn.Edges[n-1].Cursor
		conn.PageInfo.StartCursor = &startCursor
		conn.PageInfo.EndCursor = &endCursor
	}

	r.metrics.ObserveConnection(string(entityType), "ok", len(conn.Edges), time.Since(start))
	r.log.Debug("Connection resolved",
		zap.String("entity_type", string(entityType)),
		zap.String("request_id", req.RequestID),
		zap.Int("offset", sliceStart),
		zap.Int("edges", len(conn.Edges)))
	return conn, nil
}

// window traduce first/last/after/before a offset, límite y sentido de lectura.
func (r *ConnectionResolver) window(args domain.PaginationArgs) window {
	w := window{
		first: positive(args.First),
		last:  positive(args.Last),
	}
	if args.After != nil && *args.After != "" {
		w.hasAfter = true
		w.afterOffset = r.codec.Decode(*args.After)
	}
	if args.Before != nil && *args.Before != "" {
		w.hasBefore = true
		w.beforeOffset = r.codec.Decode(*args.Before)
	}

	size := r.opts.DefaultAmount
	switch {
	case w.first > 0:
		size = w.first
	case w.last > 0:
		size = w.last
	}
	if size > r.opts.MaxAmount {
		size = r.opts.MaxAmount
	}
	if w.first > 0 {
		w.first = size
	}
	if w.last > 0 {
		w.last = size
	}

	switch {
	case !w.backward():
		w.limit = size
		if w.hasAfter {
			w.offset = w.afterOffset + 1
		}
		if w.hasBefore {
			w.limit = min(size, w.beforeOffset)
		}
	case w.hasBefore:
		w.offset = max(w.beforeOffset-size, 0)
		w.limit = min(size, w.beforeOffset)
	default:
		w.reverse = true
		w.limit = size
	}
	return w
}

// pageInfo aplica las reglas de Relay para slices de un array.
// Sin total, ambas banderas quedan a false.
func (r *ConnectionResolver) pageInfo(w window, sliceStart, n int, total *int) domain.PageInfo {
	if total == nil {
		return domain.PageInfo{}
	}
	lower := 0
	if w.hasAfter {
		lower = w.afterOffset + 1
	}
	upper := *total
	if w.hasBefore {
		upper = min(w.beforeOffset, *total)
	}
	return domain.PageInfo{
		HasPreviousPage: w.last > 0 && sliceStart > lower,
		HasNextPage:     w.first > 0 && sliceStart+n < upper,
	}
}

func (r *ConnectionResolver) record(ctx context.Context, req ResolveRequest, p domain.QueryParams, returned int, total *int, start time.Time, failed bool) {
	if r.stats == nil {
		return
	}
	stat := domain.QueryStat{
		RequestID:  req.RequestID,
		EntityType: p.EntityType,
		PageSize:   p.Pagination.Limit,
		Offset:     p.Pagination.Offset,
		Returned:   returned,
		Total:      -1,
		Duration:   time.Since(start),
		Failed:     failed,
		At:         time.Now().UTC(),
	}
	if total != nil {
		stat.Total = *total
	}
	r.stats.Record(ctx, stat)
}

// scopeToParent acota la conexión al objeto padre cuando lo hay.
func scopeToParent(p *domain.QueryParams, parent domain.Entity) {
	switch owner := parent.(type) {
	case *domain.User:
		if p.EntityType.PostLike() {
			p.AddCondition("author_id", sharedDomain.OpEq, owner.ID)
		}
	case *domain.MenuItem:
		if p.EntityType == domain.EntityMenuItem {
			p.AddCondition("parent_id", sharedDomain.OpEq, owner.ID)
		}
	case *domain.Post:
		if p.EntityType == owner.PostType {
			p.AddCondition("parent_id", sharedDomain.OpEq, owner.ID)
		}
	}
}

func positive(v *int) int {
	if v == nil || *v <= 0 {
		return 0
	}
	return *v
}

func reverseEntities(s []domain.Entity) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
