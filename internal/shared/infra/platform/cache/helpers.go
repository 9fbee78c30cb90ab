package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// AsyncCacheSet escribe en caché en background sin bloquear la petición.
// Un fallo solo se registra: la caché es un atajo, no la fuente.
func AsyncCacheSet(ctx context.Context, cache Cache, key string, value interface{}, ttl int, log *zap.Logger) {
	if cache == nil {
		return
	}

	go func() {
		// Contexto propio: la escritura debe sobrevivir al fin de la petición.
		cacheCtx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		if err := cache.Set(cacheCtx, key, value, ttl); err != nil {
			log.Warn("Cache update failed",
				zap.String("key", key),
				zap.Error(err))
		}
	}()
}
