// Package livequery bridges a push-based external document source into the
// keyed pull cache.
//
// A Binder owns the cache and key serializer; BindDocument and BindCollection
// open one push listener each and translate every snapshot the source emits
// into a validated cache write. Consuming code reads the binding's local
// state (or the shared cache entry at the same key) and never touches the
// source's listener API directly.
//
// # Validation policies
//
// The two binding kinds apply deliberately different policies when a payload
// fails schema validation:
//
//   - Document bindings hold the last known good value. A bad push is logged
//     and dropped; the previous value stays visible.
//   - Collection bindings degrade per record. A record that fails validation
//     is kept in the snapshot in its raw, unvalidated form (Record.Valid is
//     false) so one malformed record never drops its siblings from view.
//
// These are two distinct policies on purpose; unifying them would change
// observable behavior.
//
// # Re-subscription
//
// A collection binding re-subscribes when Rebind is called with a filter list
// whose content hash differs from the current one. Hashing the full list
// (fields, operators, and values) means changing only a filter value still
// triggers a clean teardown and resubscribe.
//
// # Teardown
//
// Close is idempotent and guarantees that no cache or local-state write from
// the binding's listener happens after Close returns.
package livequery
