package cache

import "context"

// Kind separates key spaces.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindBlock        // blob blocks, Offset is the block index
	KindRecord       // decoded records, Offset is the row
)

// Key identifies a cached value. Name is the blob or segment name.
type Key struct {
	Kind   Kind
	Name   string
	Offset uint64
}

// Cache is a byte-oriented cache for immutable values.
// Returned slices must be treated as read-only.
type Cache interface {
	// Get returns a cached value. ok=false if missing.
	Get(ctx context.Context, key Key) (b []byte, ok bool)

	// Set caches a value. The cache retains b; callers must not modify it afterwards.
	Set(ctx context.Context, key Key, b []byte)

	// Invalidate removes all entries matching the predicate.
	Invalidate(predicate func(key Key) bool)
}
