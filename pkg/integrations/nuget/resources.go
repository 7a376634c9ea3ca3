package nuget

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/matzehuels/nugetfetch/pkg/cache"
	nferrors "github.com/matzehuels/nugetfetch/pkg/errors"
	"github.com/matzehuels/nugetfetch/pkg/observability"
)

// ResourceEntry holds the search endpoints discovered for one registry.
// SecondarySearchURL is the second advertised SearchQueryService, if any;
// it is kept but not queried.
type ResourceEntry struct {
	PrimarySearchURL   string `json:"primarySearchUrl"`
	SecondarySearchURL string `json:"secondarySearchUrl,omitempty"`
}

// IndexFetcher retrieves and decodes a registry's service index.
type IndexFetcher func(ctx context.Context) (*ServiceIndex, error)

// ResourceCache memoizes service discovery per registry URL.
//
// Entries live as long as the cache and are never evicted. Two goroutines
// discovering the same registry at once may both fetch; the last one stored
// wins, which is harmless because the result is the same.
//
// An optional persistent [cache.Cache] is consulted on an in-memory miss and
// filled after a fetch, with [cache.IndexTTL] expiry.
type ResourceCache struct {
	mu      sync.RWMutex
	entries map[string]ResourceEntry

	store cache.Cache
}

// NewResourceCache creates an empty cache. A nil store keeps entries in
// memory only.
func NewResourceCache(store cache.Cache) *ResourceCache {
	if store == nil {
		store = cache.NewNullCache()
	}
	return &ResourceCache{
		entries: make(map[string]ResourceEntry),
		store:   store,
	}
}

// Discover returns the search endpoints of reg, calling fetch only when the
// registry has not been seen before.
func (c *ResourceCache) Discover(ctx context.Context, reg Registry, fetch IndexFetcher) (ResourceEntry, error) {
	c.mu.RLock()
	entry, ok := c.entries[reg.URL]
	c.mu.RUnlock()
	if ok {
		return entry, nil
	}

	key := reg.keyer().IndexKey(reg.URL)
	if entry, ok := c.load(ctx, key); ok {
		c.put(reg.URL, entry)
		return entry, nil
	}

	index, err := fetch(ctx)
	if err != nil {
		if nferrors.Is(err, nferrors.ErrCodeInvalidResponse) {
			return ResourceEntry{}, nferrors.Wrap(nferrors.ErrCodeRegistryIncompatible, err, "read service index of %s", reg.URL)
		}
		return ResourceEntry{}, nferrors.Wrap(nferrors.ErrCodeRegistryUnavailable, err, "reach registry %s", reg.URL)
	}

	entry, err = searchEntry(index)
	if err != nil {
		return ResourceEntry{}, nferrors.Wrap(nferrors.ErrCodeRegistryIncompatible, err, "registry %s", reg.URL)
	}

	c.put(reg.URL, entry)
	c.save(ctx, key, entry)
	return entry, nil
}

// Lookup returns a cached entry without discovering.
func (c *ResourceCache) Lookup(registryURL string) (ResourceEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[registryURL]
	return entry, ok
}

func (c *ResourceCache) put(url string, entry ResourceEntry) {
	c.mu.Lock()
	c.entries[url] = entry
	c.mu.Unlock()
}

func (c *ResourceCache) load(ctx context.Context, key string) (ResourceEntry, bool) {
	data, hit, err := c.store.Get(ctx, key)
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, "service-index")
		return ResourceEntry{}, false
	}
	var entry ResourceEntry
	if err := json.Unmarshal(data, &entry); err != nil || entry.PrimarySearchURL == "" {
		_ = c.store.Delete(ctx, key)
		observability.Cache().OnCacheMiss(ctx, "service-index")
		return ResourceEntry{}, false
	}
	observability.Cache().OnCacheHit(ctx, "service-index")
	return entry, true
}

func (c *ResourceCache) save(ctx context.Context, key string, entry ResourceEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := c.store.Set(ctx, key, data, cache.IndexTTL); err == nil {
		observability.Cache().OnCacheSet(ctx, "service-index", len(data))
	}
}

// searchEntry picks the first and second SearchQueryService resources.
func searchEntry(index *ServiceIndex) (ResourceEntry, error) {
	var found []string
	for _, r := range index.Resources {
		if r.Type == ResourceTypeSearchQueryService && r.ID != "" {
			found = append(found, r.ID)
		}
	}
	if len(found) == 0 {
		return ResourceEntry{}, ErrNoSearchService
	}
	entry := ResourceEntry{PrimarySearchURL: found[0]}
	if len(found) > 1 {
		entry.SecondarySearchURL = found[1]
	}
	return entry, nil
}
