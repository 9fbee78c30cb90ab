package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"DB_DRIVER", "CACHE_TTL", "USE_KAFKA", "MAX_QUERY_AMOUNT", "EMPTY_CONNECTION_IS_ERROR", "CLICKHOUSE_ADDR"} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.False(t, cfg.UseKafka)
	assert.Equal(t, 10, cfg.DefaultQueryAmount)
	assert.Equal(t, 100, cfg.MaxQueryAmount)
	assert.True(t, cfg.EmptyConnectionIsError)
	assert.Empty(t, cfg.ClickHouseAddr)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "MongoDB")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("USE_KAFKA", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("MAX_QUERY_AMOUNT", "50")
	t.Setenv("EMPTY_CONNECTION_IS_ERROR", "false")
	t.Setenv("STATS_BATCH_SIZE", "not-a-number")

	cfg := LoadConfig()
	assert.Equal(t, "mongodb", cfg.DBDriver)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.True(t, cfg.UseKafka)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 50, cfg.MaxQueryAmount)
	assert.False(t, cfg.EmptyConnectionIsError)
	assert.Equal(t, 100, cfg.StatsBatchSize)
}
