package livequery

import (
	"context"
	"sync"
)

// CollectionBinding is the live association between one external collection
// address (collection name + filters) and one local cache key. Each push
// replaces the whole snapshot; the binding performs no row-level diffing and
// imposes no ordering beyond what the source delivered.
type CollectionBinding[T any] struct {
	binder   *Binder
	coll     string
	cacheKey string
	schema   Schema[T]

	closeOnce sync.Once

	mu         sync.Mutex
	closed     bool
	loaded     bool
	records    []Record[T]
	err        error
	filters    []Filter
	filterHash uint64
	gen        int
	cancel     context.CancelFunc
	sub        CollectionSubscription
}

// BindCollection opens a live binding for a filtered collection and keeps the
// cache entry at cacheKey consistent with it.
//
// Validation policy: per-record fallback. A record that fails schema
// validation is logged and kept in the snapshot in raw form (Record.Valid is
// false); its siblings are unaffected and the snapshot always has exactly as
// many records as the source delivered.
func BindCollection[T any](ctx context.Context, b *Binder, collection string, filters []Filter, schema Schema[T], cacheKey string) (*CollectionBinding[T], error) {
	c := &CollectionBinding[T]{
		binder:     b,
		coll:       collection,
		cacheKey:   cacheKey,
		schema:     schema,
		filters:    filters,
		filterHash: FilterHash(filters),
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub, err := b.source.SubscribeCollection(subCtx, collection, filters)
	if err != nil {
		cancel()
		return nil, err
	}

	c.cancel = cancel
	c.sub = sub
	b.trackKey(cacheKey)

	go c.run(subCtx, sub, c.gen)
	return c, nil
}

// Get returns the current snapshot and whether at least one push has been
// received. The returned slice is shared; callers must not mutate it.
func (c *CollectionBinding[T]) Get() ([]Record[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.records, c.loaded
}

// Err returns the listener-level error, if any. The last good snapshot
// remains readable after an error.
func (c *CollectionBinding[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// CacheKey returns the cache key this binding writes to.
func (c *CollectionBinding[T]) CacheKey() string {
	return c.cacheKey
}

// Filters returns the filter list the binding is currently subscribed with.
func (c *CollectionBinding[T]) Filters() []Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters
}

// Rebind re-subscribes with a new filter list if its content hash differs
// from the current one: fields, operators, and values all participate, so
// changing only a value still tears down and recreates the listener. Calling
// Rebind with an equivalent list is a no-op. The previous snapshot stays
// visible until the new subscription's first push.
func (c *CollectionBinding[T]) Rebind(ctx context.Context, filters []Filter) error {
	hash := FilterHash(filters)

	c.mu.Lock()
	if c.closed || hash == c.filterHash {
		c.mu.Unlock()
		return nil
	}
	oldCancel, oldSub := c.cancel, c.sub
	c.gen++
	gen := c.gen
	c.filters = filters
	c.filterHash = hash
	c.cancel, c.sub = nil, nil
	c.mu.Unlock()

	if oldCancel != nil {
		oldCancel()
	}
	if oldSub != nil {
		_ = oldSub.Close()
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub, err := c.binder.source.SubscribeCollection(subCtx, c.coll, filters)
	if err != nil {
		cancel()
		c.mu.Lock()
		if !c.closed && gen == c.gen {
			c.err = err
		}
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		cancel()
		_ = sub.Close()
		return nil
	}
	c.cancel, c.sub = cancel, sub
	c.mu.Unlock()

	go c.run(subCtx, sub, gen)
	return nil
}

// Close detaches the push listener. It is idempotent, and no cache or local
// state write from this binding happens after Close returns.
func (c *CollectionBinding[T]) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		cancel, sub := c.cancel, c.sub
		c.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		if sub != nil {
			_ = sub.Close()
		}
		c.binder.untrackKey(c.cacheKey)
	})
	return nil
}

func (c *CollectionBinding[T]) run(ctx context.Context, sub CollectionSubscription, gen int) {
	for ev := range sub.Events() {
		c.apply(ctx, ev, gen)
	}

	if err := sub.Err(); err != nil {
		c.mu.Lock()
		if !c.closed && gen == c.gen {
			c.err = err
		}
		c.mu.Unlock()
		c.binder.logger.Error("collection subscription failed",
			"collection", c.coll, "error", err)
	}
}

// apply validates a full snapshot and replaces the current one. Decoding runs
// outside the lock; a snapshot from a superseded subscription generation is
// discarded at the write point.
func (c *CollectionBinding[T]) apply(ctx context.Context, ev CollectionEvent, gen int) {
	records := make([]Record[T], 0, len(ev.Documents))
	for _, doc := range ev.Documents {
		merged := mergeID(doc)
		value, err := c.schema.Decode(merged)
		if err != nil {
			c.binder.logger.Warn("record failed validation, degrading to raw payload",
				"collection", c.coll, "id", doc.ID, "error", err)
			records = append(records, Record[T]{ID: doc.ID, Raw: merged})
			continue
		}
		records = append(records, Record[T]{ID: doc.ID, Value: value, Valid: true})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.gen {
		return
	}

	c.records = records
	c.loaded = true

	if err := c.binder.cache.Set(ctx, c.cacheKey, records); err != nil {
		c.binder.logger.Error("cache write failed", "key", c.cacheKey, "error", err)
	}
}
