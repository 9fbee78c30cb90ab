package mocks

import (
	"context"
	"encoding/json"
	"sync"

	sharedCache "github.com/davicafu/contentql/internal/shared/infra/platform/cache"
)

// DummyCache es una caché en memoria sin TTL que registra los borrados.
type DummyCache struct {
	store   map[string][]byte // JSON, igual que Redis
	Deleted []string
	// Err, si no es nil, se devuelve en todas las operaciones.
	Err error
	mu  sync.RWMutex
}

var _ sharedCache.Cache = (*DummyCache)(nil)

func NewDummyCache() *DummyCache {
	return &DummyCache{store: make(map[string][]byte)}
}

func (c *DummyCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.Err != nil {
		return false, c.Err
	}

	data, ok := c.store[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *DummyCache) Set(ctx context.Context, key string, val interface{}, ttlSecs int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}

	data, err := json.Marshal(val)
	if err != nil {
		return err
	}
	c.store[key] = data
	return nil
}

func (c *DummyCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	delete(c.store, key)
	c.Deleted = append(c.Deleted, key)
	return nil
}

// Has indica si la key está guardada.
func (c *DummyCache) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.store[key]
	return ok
}

// DeletedKeys devuelve una copia de las keys borradas.
func (c *DummyCache) DeletedKeys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string{}, c.Deleted...)
}
