package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics agrupa las métricas Prometheus de la capa de conexiones.
// Un *Metrics nil es válido: todos los métodos son no-op.
type Metrics struct {
	connectionsTotal   *prometheus.CounterVec
	connectionDuration *prometheus.HistogramVec
	connectionEdges    *prometheus.HistogramVec

	loaderFetches *prometheus.CounterVec
	loaderKeys    *prometheus.HistogramVec
	loaderMissing *prometheus.CounterVec

	cacheRequests *prometheus.CounterVec
}

// New crea y registra las métricas en reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		connectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contentql_connections_total",
				Help: "Connections resolved by entity type and outcome",
			},
			[]string{"entity_type", "outcome"},
		),
		connectionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "contentql_connection_duration_seconds",
				Help:    "Time spent resolving a connection",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"entity_type"},
		),
		connectionEdges: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "contentql_connection_edges",
				Help:    "Edges returned per connection",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
			},
			[]string{"entity_type"},
		),
		loaderFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contentql_loader_fetches_total",
				Help: "Batch fetches dispatched by the loaders",
			},
			[]string{"entity_type"},
		),
		loaderKeys: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "contentql_loader_batch_keys",
				Help:    "Distinct keys per batch fetch",
				Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
			},
			[]string{"entity_type"},
		),
		loaderMissing: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contentql_loader_missing_total",
				Help: "Keys that resolved to no visible entity",
			},
			[]string{"entity_type"},
		),
		cacheRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contentql_cache_requests_total",
				Help: "Entity cache lookups by result",
			},
			[]string{"entity_type", "result"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.connectionsTotal, m.connectionDuration, m.connectionEdges,
			m.loaderFetches, m.loaderKeys, m.loaderMissing,
			m.cacheRequests,
		)
	}
	return m
}

// ObserveConnection registra el resultado de una resolución ("ok", "empty", "error").
func (m *Metrics) ObserveConnection(entityType, outcome string, edges int, d time.Duration) {
	if m == nil {
		return
	}
	m.connectionsTotal.WithLabelValues(entityType, outcome).Inc()
	m.connectionDuration.WithLabelValues(entityType).Observe(d.Seconds())
	if outcome == "ok" {
		m.connectionEdges.WithLabelValues(entityType).Observe(float64(edges))
	}
}

func (m *Metrics) ObserveLoaderFetch(entityType string, keys, missing int) {
	if m == nil {
		return
	}
	m.loaderFetches.WithLabelValues(entityType).Inc()
	m.loaderKeys.WithLabelValues(entityType).Observe(float64(keys))
	if missing > 0 {
		m.loaderMissing.WithLabelValues(entityType).Add(float64(missing))
	}
}

func (m *Metrics) ObserveCache(entityType string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheRequests.WithLabelValues(entityType, result).Inc()
}
