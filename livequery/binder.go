package livequery

import (
	"log/slog"
	"sync"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/pakcart/storesync/cache"
)

// Binder bridges push subscriptions from a Source into the keyed pull cache.
// It is the sole writer for the cache keys its bindings own; consuming code
// reads those keys through the cache service and never holds a reference to
// the source's listeners.
type Binder struct {
	source Source
	cache  cache.CacheService
	keys   cache.KeySerializer
	logger *slog.Logger

	// ownedKeys tracks cache keys written by live bindings so callers can
	// invalidate everything the binder manages in one sweep.
	ownedKeys *sync.Map
}

// NewBinder creates a binder over the given source and cache. A nil logger
// falls back to slog.Default.
func NewBinder(source Source, cacheService cache.CacheService, keys cache.KeySerializer, logger *slog.Logger) *Binder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Binder{
		source:    source,
		cache:     cacheService,
		keys:      keys,
		logger:    logger,
		ownedKeys: &sync.Map{},
	}
}

// Source returns the underlying source, for callers issuing mutations.
func (b *Binder) Source() Source {
	return b.source
}

// AddressKey derives a cache key from a source address. Bindings accept any
// caller-supplied key; this helper just gives callers a stable default.
func (b *Binder) AddressKey(collection, id string, filters []Filter) string {
	return b.keys.SerializeKey(collection, id, filters)
}

// OwnedKeys returns a snapshot of the cache keys currently tracked for live
// bindings.
func (b *Binder) OwnedKeys() []string {
	var keys []string
	b.ownedKeys.Range(func(k, _ any) bool {
		if key, ok := k.(string); ok {
			keys = append(keys, key)
		}
		return true
	})
	return keys
}

func (b *Binder) trackKey(key string) {
	b.ownedKeys.Store(key, struct{}{})
}

func (b *Binder) untrackKey(key string) {
	b.ownedKeys.Delete(key)
}

// FilterHash computes a content hash of a filter list: fields, operators, and
// values all participate. Collection bindings re-subscribe when this hash
// changes. If hashing fails for an exotic value type, the hash degrades to
// the filter count, which matches the source application's original
// (count-only) behavior.
func FilterHash(filters []Filter) uint64 {
	h, err := hashstructure.Hash(filters, hashstructure.FormatV2, nil)
	if err != nil {
		return uint64(len(filters))
	}
	return h
}
