package domain

import (
	"context"
	"fmt"
	"time"
)

// ---------- Interfaces (Ports) ----------

// DataSource es el almacén de contenido consultable.
// Debe respetar el orden de IDs si PreserveIDOrder está activo
// y devolver Total solo cuando CountTotal es true.
type DataSource interface {
	Query(ctx context.Context, p QueryParams) (QueryResult, error)
}

// QueryStat describe una resolución de conexión.
type QueryStat struct {
	RequestID  string
	EntityType EntityType
	PageSize   int
	Offset     int
	Returned   int
	Total      int // -1 si no se calculó
	Duration   time.Duration
	Failed     bool
	At         time.Time
}

// StatsSink recibe estadísticas de consultas. No debe bloquear.
type StatsSink interface {
	Record(ctx context.Context, stat QueryStat)
}

// StatsRepository persiste estadísticas por lotes.
type StatsRepository interface {
	LogBatch(ctx context.Context, stats []QueryStat) error
}

// DailyVolume resume las resoluciones de un tipo en un día.
type DailyVolume struct {
	Day        time.Time
	EntityType EntityType
	Queries    int64
	Failed     int64
	AvgMillis  float64
}

// StatsReader consulta el histórico de estadísticas.
type StatsReader interface {
	DailyVolume(ctx context.Context, start, end time.Time) ([]DailyVolume, error)
}

// ---------- Helpers comunes (cache keys, etc.) ----------

// CacheKeyByID forma una key consistente para cache usando tipo e ID.
func CacheKeyByID(t EntityType, id int64) string {
	return fmt.Sprintf("%s:id:%d", t, id)
}
