package application

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/davicafu/contentql/internal/content/domain"
	"github.com/davicafu/contentql/internal/shared/infra/relayer"
)

// LogStatsSink escribe cada estadística en el log a nivel debug.
type LogStatsSink struct {
	log *zap.Logger
}

func NewLogStatsSink(log *zap.Logger) *LogStatsSink {
	return &LogStatsSink{log: log}
}

func (s *LogStatsSink) Record(ctx context.Context, stat domain.QueryStat) {
	s.log.Debug("Connection resolved",
		zap.String("request_id", stat.RequestID),
		zap.String("entity_type", string(stat.EntityType)),
		zap.Int("page_size", stat.PageSize),
		zap.Int("offset", stat.Offset),
		zap.Int("returned", stat.Returned),
		zap.Int("total", stat.Total),
		zap.Duration("duration", stat.Duration),
		zap.Bool("failed", stat.Failed))
}

// BatchStatsSink acumula estadísticas y las vuelca en un StatsRepository.
// Record no bloquea: si el buffer se llena, la estadística se pierde.
type BatchStatsSink struct {
	worker *relayer.BatchWorker[domain.QueryStat]
	log    *zap.Logger
}

func NewBatchStatsSink(repo domain.StatsRepository, interval time.Duration, batchSize int, log *zap.Logger) *BatchStatsSink {
	return &BatchStatsSink{
		worker: relayer.NewBatchWorker("connection-stats", repo.LogBatch, interval, batchSize, batchSize*10, log),
		log:    log,
	}
}

func (s *BatchStatsSink) Record(ctx context.Context, stat domain.QueryStat) {
	if !s.worker.Enqueue(stat) {
		s.log.Warn("Stats buffer full, dropping stat",
			zap.String("request_id", stat.RequestID),
			zap.Uint64("dropped", s.worker.Dropped()))
	}
}

// Start bloquea hasta que ctx se cancela.
func (s *BatchStatsSink) Start(ctx context.Context) {
	s.worker.Start(ctx)
}

var (
	_ domain.StatsSink = (*LogStatsSink)(nil)
	_ domain.StatsSink = (*BatchStatsSink)(nil)
)
