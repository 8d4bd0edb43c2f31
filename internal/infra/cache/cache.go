package cache

import (
	"strings"
	"sync"
	"time"
)

type item[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache потокобезопасный кэш в памяти с ограниченным временем жизни записей
// Просроченные записи удаляются лениво при чтении и при Sweep
type TTLCache[V any] struct {
	mu    sync.RWMutex
	items map[string]item[V]
	ttl   time.Duration
	clock TimeProvider
}

// New создает кэш с TTL
func New[V any](ttl time.Duration, clock TimeProvider) *TTLCache[V] {
	if clock == nil {
		clock = RealTimeProvider{}
	}
	return &TTLCache[V]{
		items: make(map[string]item[V]),
		ttl:   ttl,
		clock: clock,
	}
}

// Get возвращает значение, если оно есть и не просрочено
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}
	if !c.clock.Now().Before(it.expiresAt) {
		c.mu.Lock()
		if cur, ok := c.items[key]; ok && cur.expiresAt.Equal(it.expiresAt) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return zero, false
	}
	return it.value, true
}

// Set сохраняет значение на TTL
func (c *TTLCache[V]) Set(key string, value V) {
	c.mu.Lock()
	c.items[key] = item[V]{value: value, expiresAt: c.clock.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// Delete удаляет значение
func (c *TTLCache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// DeletePrefix удаляет все ключи с префиксом и возвращает их количество
func (c *TTLCache[V]) DeletePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
			removed++
		}
	}
	return removed
}

// Sweep удаляет просроченные записи
func (c *TTLCache[V]) Sweep() int {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, it := range c.items {
		if !now.Before(it.expiresAt) {
			delete(c.items, key)
			removed++
		}
	}
	return removed
}

// Len количество записей, включая еще не удаленные просроченные
func (c *TTLCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
