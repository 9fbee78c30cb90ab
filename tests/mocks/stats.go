package mocks

import (
	"context"
	"sync"

	"github.com/davicafu/contentql/internal/content/domain"
)

// StatsRecorder guarda en memoria las estadísticas recibidas.
type StatsRecorder struct {
	Stats []domain.QueryStat
	mu    sync.Mutex
}

var _ domain.StatsSink = (*StatsRecorder)(nil)

func (r *StatsRecorder) Record(ctx context.Context, stat domain.QueryStat) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Stats = append(r.Stats, stat)
}

func (r *StatsRecorder) All() []domain.QueryStat {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.QueryStat{}, r.Stats...)
}
