package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	sharedCache "github.com/davicafu/contentql/internal/shared/infra/platform/cache"
)

type entry struct {
	value     []byte // serializado, igual que en Redis
	expiresAt time.Time
}

// InMemoryCache es la caché de un solo proceso. Se usa sin Redis y en tests.
type InMemoryCache struct {
	mu         sync.RWMutex
	store      map[string]entry
	defaultTTL time.Duration
	now        func() time.Time
	stop       chan struct{}
	stopOnce   sync.Once
}

var _ sharedCache.Cache = (*InMemoryCache)(nil)

// NewInMemoryCache arranca la limpieza periódica si cleanupInterval > 0.
func NewInMemoryCache(defaultTTL, cleanupInterval time.Duration) *InMemoryCache {
	c := &InMemoryCache{
		store:      make(map[string]entry),
		defaultTTL: defaultTTL,
		now:        func() time.Time { return time.Now().UTC() },
		stop:       make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go c.cleanupLoop(cleanupInterval)
	}
	return c
}

func (c *InMemoryCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	c.mu.RLock()
	item, ok := c.store[key]
	c.mu.RUnlock()

	if !ok || c.now().After(item.expiresAt) {
		return false, nil
	}
	if err := json.Unmarshal(item.value, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *InMemoryCache) Set(ctx context.Context, key string, val interface{}, ttlSecs int) error {
	data, err := json.Marshal(val)
	if err != nil {
		return err
	}
	ttl := c.defaultTTL
	if ttlSecs > 0 {
		ttl = time.Duration(ttlSecs) * time.Second
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = entry{value: data, expiresAt: c.now().Add(ttl)}
	return nil
}

func (c *InMemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	return nil
}

// Len devuelve el número de entradas, incluidas las caducadas aún no purgadas.
func (c *InMemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Stop detiene la limpieza. Es seguro llamarlo varias veces.
func (c *InMemoryCache) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *InMemoryCache) purgeExpired() {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, item := range c.store {
		if now.After(item.expiresAt) {
			delete(c.store, key)
		}
	}
}

func (c *InMemoryCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.purgeExpired()
		case <-c.stop:
			return
		}
	}
}
