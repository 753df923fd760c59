package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRUCache is a size-bounded cache whose entries expire after a period
// without access. Evicted values are handed to the eviction hook outside
// the cache lock, so the hook may release resources that take time.
type LRUCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	lru     *list.List
	onEvict func(key string, value T)
	now     func() time.Time
}

type cacheItem[T any] struct {
	key       string
	data      T
	expiresAt time.Time
}

// NewLRUCache creates a cache holding at most maxSize entries, each living
// ttl past its last Get or Set. onEvict may be nil.
func NewLRUCache[T any](maxSize int, ttl time.Duration, onEvict func(key string, value T)) *LRUCache[T] {
	return &LRUCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
		onEvict: onEvict,
		now:     time.Now,
	}
}

// Get returns the value for key and extends its lifetime.
func (c *LRUCache[T]) Get(key string) (T, bool) {
	var (
		zero    T
		evicted []*cacheItem[T]
	)
	defer func() { c.notify(evicted) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, exists := c.items[key]
	if !exists {
		return zero, false
	}

	item := elem.Value.(*cacheItem[T])
	now := c.now()
	if now.After(item.expiresAt) {
		evicted = append(evicted, c.removeElement(elem))
		return zero, false
	}

	item.expiresAt = now.Add(c.ttl)
	c.lru.MoveToFront(elem)
	return item.data, true
}

// Set stores data under key. Replacing an existing value does not run the
// eviction hook for the old one.
func (c *LRUCache[T]) Set(key string, data T) {
	var evicted []*cacheItem[T]
	defer func() { c.notify(evicted) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	item := &cacheItem[T]{
		key:       key,
		data:      data,
		expiresAt: c.now().Add(c.ttl),
	}

	if elem, exists := c.items[key]; exists {
		elem.Value = item
		c.lru.MoveToFront(elem)
		return
	}

	elem := c.lru.PushFront(item)
	c.items[key] = elem

	for c.lru.Len() > c.maxSize {
		oldest := c.lru.Back()
		if oldest == nil {
			break
		}
		evicted = append(evicted, c.removeElement(oldest))
	}
}

// Delete removes key and runs the eviction hook for it.
func (c *LRUCache[T]) Delete(key string) {
	var evicted []*cacheItem[T]
	defer func() { c.notify(evicted) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.items[key]; exists {
		evicted = append(evicted, c.removeElement(elem))
	}
}

// CleanExpired removes all expired entries and returns how many it removed.
func (c *LRUCache[T]) CleanExpired() int {
	c.mu.Lock()
	now := c.now()
	var evicted []*cacheItem[T]
	for elem := c.lru.Front(); elem != nil; {
		next := elem.Next()
		if now.After(elem.Value.(*cacheItem[T]).expiresAt) {
			evicted = append(evicted, c.removeElement(elem))
		}
		elem = next
	}
	c.mu.Unlock()

	c.notify(evicted)
	return len(evicted)
}

// Purge removes every entry, running the eviction hook for each.
func (c *LRUCache[T]) Purge() int {
	c.mu.Lock()
	var evicted []*cacheItem[T]
	for elem := c.lru.Front(); elem != nil; {
		next := elem.Next()
		evicted = append(evicted, c.removeElement(elem))
		elem = next
	}
	c.mu.Unlock()

	c.notify(evicted)
	return len(evicted)
}

func (c *LRUCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *LRUCache[T]) removeElement(elem *list.Element) *cacheItem[T] {
	item := elem.Value.(*cacheItem[T])
	delete(c.items, item.key)
	c.lru.Remove(elem)
	return item
}

func (c *LRUCache[T]) notify(evicted []*cacheItem[T]) {
	if c.onEvict == nil {
		return
	}
	for _, item := range evicted {
		c.onEvict(item.key, item.data)
	}
}
