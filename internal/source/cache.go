package source

import (
	"container/list"
	"sync"
	"time"
)

// DefaultCacheTTL is how long a loaded image is reused before it is loaded again.
const DefaultCacheTTL = 5 * time.Minute

// Cache holds recently loaded images keyed by URL or path.
//
// A cached image is returned without network or disk I/O until its entry
// is older than the TTL, after which the next load goes back to the source.
// When the cache is full the least recently used entry is dropped.
//
// Cache is safe for concurrent use by multiple goroutines.
type Cache struct {
	mu      sync.Mutex
	max     int
	ttl     time.Duration
	now     func() time.Time
	order   *list.List
	entries map[string]*list.Element
}

type cacheEntry struct {
	key     string
	img     *Image
	expires time.Time
}

// NewCache returns a cache holding at most size images for ttl each.
// A size below 1 is treated as 1; a ttl of zero or less never expires.
func NewCache(size int, ttl time.Duration) *Cache {
	if size < 1 {
		size = 1
	}
	return &Cache{
		max:     size,
		ttl:     ttl,
		now:     time.Now,
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
}

// Get returns the cached image for key. Expired entries are removed and
// reported as missing.
func (c *Cache) Get(key string) (*Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	e := el.Value.(*cacheEntry)
	if c.ttl > 0 && !c.now().Before(e.expires) {
		c.order.Remove(el)
		delete(c.entries, key)
		return nil, false
	}
	c.order.MoveToFront(el)
	return e.img, true
}

// Put stores img under key, evicting the least recently used entry if needed.
func (c *Cache) Put(key string, img *Image) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.now().Add(c.ttl)
	if el, ok := c.entries[key]; ok {
		e := el.Value.(*cacheEntry)
		e.img, e.expires = img, expires
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, img: img, expires: expires})
	for c.order.Len() > c.max {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

// Len returns the number of cached images, expired ones included until
// they are next looked up.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
