// Package cache provides the keyed, pull-readable cache that the live query
// binder writes into and the rest of the application reads from.
//
// # Overview
//
// The package exports two interfaces and their default implementations:
//
//   - CacheService: keyed cache operations. Readers use Get/GetOrFetch; the
//     live query binder is the sole writer for the keys it owns and calls Set
//     in push-callback order.
//   - KeySerializer: builds stable cache keys from an address name plus
//     arbitrary arguments (collection names, document ids, filter lists).
//
// # Basic Usage
//
//	serializer := cache.NewDefaultKeySerializer()
//	key := serializer.SerializeKey("products", "doc-123")
//
//	svc, _ := cache.NewCacheService(cache.DefaultConfig())
//	_ = svc.Set(ctx, key, product)
//	value, ok := cache.Get[Product](ctx, svc, key)
//
// Readers that want read-through behavior on a miss can use GetOrFetch with a
// fetch function; bindings kept live by the binder normally make that
// unnecessary because every push refreshes the entry.
//
// # Key Serialization Strategy
//
// The default serializer produces deterministic keys for the argument shapes
// that show up in source addresses: strings and numbers directly, slices
// element by element, maps with sorted keys, structs by exported field, and a
// JSON fallback for anything else. Keys never depend on map iteration order,
// so the same address always maps to the same entry.
//
// # Consistency
//
// The cache makes no freshness promises of its own. An entry reflects the most
// recent successfully validated push written by the binder; "last write wins
// per key, applied in callback order" is the only ordering guarantee.
package cache
