package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

// LRUCache evicts the least recently used entry once maxSize is reached and
// treats entries older than ttl as absent.
type LRUCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	now     func() time.Time

	index  map[string]*list.Element
	recent *list.List // front is most recently used

	hits, misses uint64
}

type entry[T any] struct {
	key     string
	value   T
	expires time.Time
}

// Stats counts lookups since the cache was created.
type Stats struct {
	Hits, Misses uint64
	Entries      int
}

func NewLRUCache[T any](maxSize int, ttl time.Duration) *LRUCache[T] {
	return &LRUCache[T]{
		maxSize: max(maxSize, 1),
		ttl:     ttl,
		now:     time.Now,
		index:   make(map[string]*list.Element),
		recent:  list.New(),
	}
}

func (c *LRUCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[key]; ok {
		e := el.Value.(*entry[T])
		if !c.expired(e) {
			c.recent.MoveToFront(el)
			c.hits++
			return e.value, true
		}
		c.drop(el)
	}
	c.misses++
	var zero T
	return zero, false
}

func (c *LRUCache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry[T]{key: key, value: value, expires: c.now().Add(c.ttl)}
	if el, ok := c.index[key]; ok {
		el.Value = e
		c.recent.MoveToFront(el)
		return
	}
	c.index[key] = c.recent.PushFront(e)
	for c.recent.Len() > c.maxSize {
		c.drop(c.recent.Back())
	}
}

func (c *LRUCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.index[key]; ok {
		c.drop(el)
	}
}

// DeletePrefix removes every key starting with prefix and returns how many
// were removed.
func (c *LRUCache[T]) DeletePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sweep(func(e *entry[T]) bool { return strings.HasPrefix(e.key, prefix) })
}

// CleanExpired implements Cleaner.
func (c *LRUCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sweep(c.expired)
}

func (c *LRUCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

func (c *LRUCache[T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Hits: c.hits, Misses: c.misses, Entries: len(c.index)}
}

// sweep drops every entry matching fn. Callers hold mu.
func (c *LRUCache[T]) sweep(fn func(*entry[T]) bool) int {
	removed := 0
	for el := c.recent.Front(); el != nil; {
		next := el.Next()
		if fn(el.Value.(*entry[T])) {
			c.drop(el)
			removed++
		}
		el = next
	}
	return removed
}

func (c *LRUCache[T]) expired(e *entry[T]) bool {
	return c.now().After(e.expires)
}

func (c *LRUCache[T]) drop(el *list.Element) {
	delete(c.index, el.Value.(*entry[T]).key)
	c.recent.Remove(el)
}
