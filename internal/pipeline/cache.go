package pipeline

import (
	"sync"

	"github.com/couchcryptid/wbgt-etl-service/internal/domain"
)

// productCache is a thread-safe LRU cache of computed products keyed by
// deterministic product ID. Kafka delivers at-least-once, so the same grid
// message can arrive more than once; caching lets redeliveries skip the
// whole-grid solve.
type productCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value domain.WBGTProduct
	prev  *entry
	next  *entry
}

func newProductCache(maxEntries int) *productCache {
	return &productCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *productCache) get(key string) (domain.WBGTProduct, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.WBGTProduct{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *productCache) put(key string, value domain.WBGTProduct) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *productCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *productCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *productCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *productCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
