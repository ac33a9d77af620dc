package metadata

import (
	"container/list"
	"net/url"
	"strings"
	"sync"
	"time"
)

// cacheEntry is one request-cache slot: the payload plus its expiry and a
// back-pointer to its own key so removeElement can clean up the index.
type cacheEntry struct {
	key       string
	payload   []byte
	expiresAt time.Time
}

// requestCache is the process-local TTL cache over upstream responses
// (§4.2), insertion-ordered rather than recency-ordered: "evict the
// least-recently-inserted entry... reads do not bump recency". An LRU
// (including the expirable one in hashicorp/golang-lru) moves an entry to
// the front of its eviction list on Get, which is the opposite invariant,
// so this is a small container/list-backed FIFO+TTL structure instead:
// ll holds entries oldest-to-newest, items indexes by key for O(1) lookup.
type requestCache struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	ll       *list.List
	items    map[string]*list.Element
}

func newRequestCache(ttl time.Duration, capacity int) *requestCache {
	return &requestCache{
		ttl:      ttl,
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element),
	}
}

// get returns the cached payload for urlKey, never touching its position in
// the eviction order. An expired entry is evicted on read and reported as a
// miss.
func (c *requestCache) get(urlKey string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[urlKey]
	if !ok {
		return nil, false
	}
	entry := el.Value.(*cacheEntry)
	if time.Now().After(entry.expiresAt) {
		c.removeElement(el)
		return nil, false
	}
	return entry.payload, true
}

// set inserts or overwrites urlKey as the newest entry, then evicts from the
// front (the oldest insertion) until the cache is back within capacity.
func (c *requestCache) set(urlKey string, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[urlKey]; ok {
		c.removeElement(el)
	}

	el := c.ll.PushBack(&cacheEntry{key: urlKey, payload: payload, expiresAt: time.Now().Add(c.ttl)})
	c.items[urlKey] = el

	for c.ll.Len() > c.capacity {
		oldest := c.ll.Front()
		if oldest == nil {
			break
		}
		c.removeElement(oldest)
	}
}

func (c *requestCache) removeElement(el *list.Element) {
	entry := el.Value.(*cacheEntry)
	delete(c.items, entry.key)
	c.ll.Remove(el)
}

// scrubbedURLKey canonicalizes a request URL into a cache key with the API
// credential query parameter removed, so two requests differing only by key
// (or key rotation) still share a cache entry.
func scrubbedURLKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Del("api_key")
	u.RawQuery = q.Encode()
	return strings.ToLower(u.Scheme) + "://" + u.Host + u.Path + "?" + u.RawQuery
}
