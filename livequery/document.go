package livequery

import (
	"context"
	"sync"
)

// DocumentBinding is the live association between one external document
// address and one local cache key. At most one push listener is active per
// binding; creating a second binding for the same address opens an
// independent listener.
type DocumentBinding[T any] struct {
	binder   *Binder
	coll     string
	id       string
	cacheKey string
	schema   Schema[T]

	cancel    context.CancelFunc
	sub       DocumentSubscription
	closeOnce sync.Once
	done      chan struct{}

	mu     sync.Mutex
	closed bool
	loaded bool
	value  *T
	err    error
}

// BindDocument opens a live binding for a single document and keeps the cache
// entry at cacheKey consistent with it.
//
// An empty id performs no subscription: the returned binding is inert (never
// loaded, no error) and Close is still safe. This mirrors views that mount
// before their route parameters resolve.
//
// Validation policy: hold last known good. A push that fails schema
// validation is logged and dropped; the previous value stays visible in both
// the binding and the cache. A push reporting the document missing writes an
// explicit nil, distinct from "not yet loaded".
func BindDocument[T any](ctx context.Context, b *Binder, collection, id string, schema Schema[T], cacheKey string) (*DocumentBinding[T], error) {
	d := &DocumentBinding[T]{
		binder:   b,
		coll:     collection,
		id:       id,
		cacheKey: cacheKey,
		schema:   schema,
		done:     make(chan struct{}),
	}

	if id == "" {
		close(d.done)
		return d, nil
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub, err := b.source.SubscribeDocument(subCtx, collection, id)
	if err != nil {
		cancel()
		return nil, err
	}

	d.cancel = cancel
	d.sub = sub
	b.trackKey(cacheKey)

	go d.run(subCtx)
	return d, nil
}

// Get returns the current value and whether the binding has received at least
// one push. A nil value with loaded=true means the document does not exist.
func (d *DocumentBinding[T]) Get() (*T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value, d.loaded
}

// Err returns the listener-level error, if any. The binding is terminal once
// an error is set; the last cached value remains readable.
func (d *DocumentBinding[T]) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// Loading reports whether the binding is still waiting for its first push.
func (d *DocumentBinding[T]) Loading() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.loaded && d.err == nil && !d.closed && d.sub != nil
}

// CacheKey returns the cache key this binding writes to.
func (d *DocumentBinding[T]) CacheKey() string {
	return d.cacheKey
}

// Done is closed when the binding's listener goroutine has stopped.
func (d *DocumentBinding[T]) Done() <-chan struct{} {
	return d.done
}

// Close detaches the push listener. It is idempotent, and no cache or local
// state write from this binding happens after Close returns.
func (d *DocumentBinding[T]) Close() error {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()

		if d.cancel != nil {
			d.cancel()
		}
		if d.sub != nil {
			_ = d.sub.Close()
		}
		d.binder.untrackKey(d.cacheKey)
	})
	return nil
}

func (d *DocumentBinding[T]) run(ctx context.Context) {
	defer close(d.done)

	for ev := range d.sub.Events() {
		d.apply(ctx, ev)
	}

	if err := d.sub.Err(); err != nil {
		d.mu.Lock()
		if !d.closed {
			d.err = err
		}
		d.mu.Unlock()
		d.binder.logger.Error("document subscription failed",
			"collection", d.coll, "id", d.id, "error", err)
	}
}

func (d *DocumentBinding[T]) apply(ctx context.Context, ev DocumentEvent) {
	if !ev.Document.Exists {
		d.store(ctx, nil)
		return
	}

	value, err := d.schema.Decode(mergeID(ev.Document))
	if err != nil {
		// Hold last known good: stale-but-present beats a vanishing record.
		d.binder.logger.Warn("document failed validation, keeping previous value",
			"collection", d.coll, "id", d.id, "error", err)
		return
	}

	d.store(ctx, &value)
}

// store updates local state and writes through to the shared cache entry so
// non-reactive readers observe the same state. The cache write happens under
// the mutex so a concurrent Close cannot be outrun by a late write.
func (d *DocumentBinding[T]) store(ctx context.Context, value *T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	d.value = value
	d.loaded = true

	if err := d.binder.cache.Set(ctx, d.cacheKey, value); err != nil {
		d.binder.logger.Error("cache write failed", "key", d.cacheKey, "error", err)
	}
}
