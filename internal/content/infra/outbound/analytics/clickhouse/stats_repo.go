package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/davicafu/contentql/internal/content/domain"
)

// StatsRepo guarda las estadísticas de resolución en ClickHouse.
type StatsRepo struct {
	db *sql.DB
}

func NewStatsRepo(addr string, dbName string) (*StatsRepo, error) {
	conn := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: dbName,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
	})

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("could not ping clickhouse: %w", err)
	}
	return &StatsRepo{db: conn}, nil
}

// NewStatsRepoWithDB usa una conexión ya abierta.
func NewStatsRepoWithDB(db *sql.DB) *StatsRepo {
	return &StatsRepo{db: db}
}

func (r *StatsRepo) Close() error {
	return r.db.Close()
}

const insertStats = `INSERT INTO connection_stats (request_id, entity_type, page_size, offset, returned, total, duration_ms, failed, event_time)`

// LogBatch inserta el lote en una sola transacción; si falla una fila se descarta el lote.
func (r *StatsRepo) LogBatch(ctx context.Context, stats []domain.QueryStat) error {
	if len(stats) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, insertStats)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, s := range stats {
		if _, err := stmt.ExecContext(ctx, statRow(s)...); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to exec statement for request %s: %w", s.RequestID, err)
		}
	}
	return tx.Commit()
}

func statRow(s domain.QueryStat) []interface{} {
	failed := uint8(0)
	if s.Failed {
		failed = 1
	}
	return []interface{}{
		s.RequestID,
		string(s.EntityType),
		int32(s.PageSize),
		int32(s.Offset),
		int32(s.Returned),
		int64(s.Total),
		float64(s.Duration) / float64(time.Millisecond),
		failed,
		s.At.UTC(),
	}
}

func (r *StatsRepo) DailyVolume(ctx context.Context, start, end time.Time) ([]domain.DailyVolume, error) {
	query := `
		SELECT
			toStartOfDay(event_time) AS day,
			entity_type,
			count() AS queries,
			countIf(failed = 1) AS failed,
			avg(duration_ms) AS avg_ms
		FROM connection_stats
		WHERE event_time BETWEEN ? AND ?
		GROUP BY day, entity_type
		ORDER BY day, entity_type
	`
	rows, err := r.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DailyVolume
	for rows.Next() {
		var (
			v          domain.DailyVolume
			entityType string
		)
		if err := rows.Scan(&v.Day, &entityType, &v.Queries, &v.Failed, &v.AvgMillis); err != nil {
			return nil, err
		}
		v.EntityType = domain.EntityType(entityType)
		out = append(out, v)
	}
	return out, rows.Err()
}

// InitSchema crea la tabla si no existe. Particionada por mes.
func (r *StatsRepo) InitSchema() error {
	query := `
		CREATE TABLE IF NOT EXISTS connection_stats (
			request_id  String,
			entity_type LowCardinality(String),
			page_size   Int32,
			offset      Int32,
			returned    Int32,
			total       Int64,
			duration_ms Float64,
			failed      UInt8,
			event_time  DateTime64(3)
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(event_time)
		ORDER BY (entity_type, event_time);
	`
	_, err := r.db.Exec(query)
	return err
}

var (
	_ domain.StatsRepository = (*StatsRepo)(nil)
	_ domain.StatsReader     = (*StatsRepo)(nil)
)
