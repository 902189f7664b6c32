package cache

import (
	"context"
	"errors"
)

// ErrInvalidResultType is returned when a cached value cannot be converted to
// the type the caller requested.
var ErrInvalidResultType = errors.New("cache: result does not match requested type")

// KeySerializer builds a cache key from an address name + arbitrary args.
// It is responsible for producing stable keys across calls.
type KeySerializer interface {
	SerializeKey(name string, args ...any) string
}

// FetchFn is the function signature CacheService expects when fetching from
// the source of truth on a miss.
type FetchFn[T any] func(ctx context.Context) (T, error)

// CacheService exposes the keyed cache operations used by the live query
// binder (writes) and by non-reactive readers (reads). It is exported so that
// other packages can reuse the default serializer or provide alternate cache
// backends.
type CacheService interface {
	// GetOrFetch returns the value stored at key, calling fetchFn to populate
	// the entry on a miss.
	GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error)

	// Get returns the value stored at key without fetching. The second return
	// reports whether the key was present; a present nil value is a valid
	// "not found" entry written by a document binding.
	Get(ctx context.Context, key string) (any, bool)

	// Set overwrites the value stored at key.
	Set(ctx context.Context, key string, value any) error

	// Delete removes a single entry.
	Delete(ctx context.Context, key string) error

	// DeleteByPrefix removes every entry whose key starts with prefix.
	DeleteByPrefix(ctx context.Context, prefix string) error

	// InvalidateKeys removes the provided keys in one pass.
	InvalidateKeys(ctx context.Context, keys []string) error
}

// GetOrFetch is a type-safe wrapper that provides generic support for
// CacheService.GetOrFetch.
func GetOrFetch[T any](ctx context.Context, service CacheService, key string, fetchFn FetchFn[T]) (T, error) {
	var zero T
	result, err := service.GetOrFetch(ctx, key, fetchFn)
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}
	typed, ok := result.(T)
	if !ok {
		return zero, ErrInvalidResultType
	}
	return typed, nil
}

// Get is a type-safe wrapper around CacheService.Get. A stored value of the
// wrong type reports as absent rather than panicking.
func Get[T any](ctx context.Context, service CacheService, key string) (T, bool) {
	var zero T
	value, ok := service.Get(ctx, key)
	if !ok || value == nil {
		return zero, ok && value == nil
	}
	typed, ok := value.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
