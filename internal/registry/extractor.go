package registry

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/adverant/kreuzberg/internal/errorkind"
)

// entry pairs an extractor with its registered priority, so resorting a bucket
// after a removal doesn't need to re-query the (possibly already shut down)
// extractor.
type extractorEntry struct {
	name      string
	priority  int
	extractor Extractor
}

// ExtractorRegistry maps MIME type to an ordered-by-priority set of
// extractors: exact matches win over "type/*" prefix patterns, and within a
// MIME the highest-priority, earliest-registered extractor wins ties.
//
// Lookups are served through a small LRU cache keyed by MIME type; any mutation
// bumps a generation counter and the cache is invalidated by generation mismatch
// rather than being cleared outright, so concurrent readers never observe a torn
// cache.
type ExtractorRegistry struct {
	mu       sync.RWMutex
	exact    map[string][]extractorEntry
	prefixes map[string][]extractorEntry // key is the prefix without the trailing "*"

	generation atomic.Int64
	lookupOnce sync.Once
	lookup     *lru.Cache[string, lookupResult]
}

type lookupResult struct {
	generation int64
	extractor  Extractor
}

// NewExtractorRegistry returns an empty registry.
func NewExtractorRegistry() *ExtractorRegistry {
	return &ExtractorRegistry{
		exact:    make(map[string][]extractorEntry),
		prefixes: make(map[string][]extractorEntry),
	}
}

func (r *ExtractorRegistry) lookupCache() *lru.Cache[string, lookupResult] {
	r.lookupOnce.Do(func() {
		c, err := lru.New[string, lookupResult](256)
		if err != nil {
			// Only returns an error for a non-positive size, which 256 never triggers.
			panic(err)
		}
		r.lookup = c
	})
	return r.lookup
}

// Register adds extractor under every MIME type (or "type/*" prefix pattern) it
// claims to support, calling Initialize exactly once. Default priority handling
// (a newly registered extractor with a higher priority than the incumbent wins)
// falls out naturally from sorting by priority at lookup time.
func (r *ExtractorRegistry) Register(ctx context.Context, extractor Extractor) error {
	if err := extractor.Initialize(ctx); err != nil {
		return errorkind.NewPlugin(extractor.Name(), "initialize", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry := extractorEntry{name: extractor.Name(), priority: extractor.Priority(), extractor: extractor}
	for _, mt := range extractor.SupportedMimeTypes() {
		if strings.HasSuffix(mt, "/*") {
			prefix := strings.TrimSuffix(mt, "*")
			r.prefixes[prefix] = insertSorted(r.prefixes[prefix], entry)
			continue
		}
		r.exact[mt] = insertSorted(r.exact[mt], entry)
	}
	r.generation.Add(1)
	return nil
}

// insertSorted keeps a bucket sorted by descending priority, ties broken by
// registration order (stable insertion point at the back of equal-priority runs).
func insertSorted(bucket []extractorEntry, e extractorEntry) []extractorEntry {
	bucket = append(bucket, e)
	sort.SliceStable(bucket, func(i, j int) bool {
		return bucket[i].priority > bucket[j].priority
	})
	return bucket
}

// Get resolves the highest-priority extractor for mimeType: exact matches first,
// then the best-priority "type/*" prefix match, else UnsupportedFormat.
func (r *ExtractorRegistry) Get(mimeType string) (Extractor, error) {
	gen := r.generation.Load()
	if cached, ok := r.lookupCache().Get(mimeType); ok && cached.generation == gen {
		return cached.extractor, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if bucket := r.exact[mimeType]; len(bucket) > 0 {
		found := bucket[0].extractor
		r.lookupCache().Add(mimeType, lookupResult{generation: gen, extractor: found})
		return found, nil
	}

	var best *extractorEntry
	for prefix, bucket := range r.prefixes {
		if len(bucket) == 0 || !strings.HasPrefix(mimeType, prefix) {
			continue
		}
		candidate := bucket[0]
		if best == nil || candidate.priority > best.priority {
			best = &candidate
		}
	}
	if best != nil {
		r.lookupCache().Add(mimeType, lookupResult{generation: gen, extractor: best.extractor})
		return best.extractor, nil
	}

	return nil, errorkind.NewUnsupportedFormat(mimeType)
}

// List returns the distinct names of every registered extractor.
func (r *ExtractorRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, bucket := range r.exact {
		for _, e := range bucket {
			seen[e.name] = struct{}{}
		}
	}
	for _, bucket := range r.prefixes {
		for _, e := range bucket {
			seen[e.name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Remove shuts the named extractor down exactly once and strips it from every
// MIME bucket it occupies.
func (r *ExtractorRegistry) Remove(ctx context.Context, name string) error {
	r.mu.Lock()

	var toShutdown Extractor
	strip := func(m map[string][]extractorEntry) {
		for key, bucket := range m {
			filtered := bucket[:0]
			for _, e := range bucket {
				if e.name == name {
					if toShutdown == nil {
						toShutdown = e.extractor
					}
					continue
				}
				filtered = append(filtered, e)
			}
			if len(filtered) == 0 {
				delete(m, key)
			} else {
				m[key] = filtered
			}
		}
	}
	strip(r.exact)
	strip(r.prefixes)
	if toShutdown != nil {
		r.generation.Add(1)
	}
	r.mu.Unlock()

	if toShutdown != nil {
		if err := toShutdown.Shutdown(ctx); err != nil {
			return errorkind.NewPlugin(name, "shutdown", err)
		}
	}
	return nil
}

// ShutdownAll removes every registered extractor.
func (r *ExtractorRegistry) ShutdownAll(ctx context.Context) error {
	for _, name := range r.List() {
		if err := r.Remove(ctx, name); err != nil {
			return err
		}
	}
	return nil
}
