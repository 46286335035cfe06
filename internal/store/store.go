package store

import (
	"context"
	"time"
)

// Store is the key-value contract the analytics core consumes. Counters are
// stored as decimal strings, visitor sets as JSON arrays of hash tokens.
//
// Get returns ok=false for an absent key. Put unconditionally overwrites;
// ttl <= 0 means the key never expires. Get followed by Put is not atomic:
// concurrent writers to the same key are last-writer-wins, and an increment
// can be silently lost. Counts are approximate under concurrent load, which
// is an accepted property of this subsystem.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Put(ctx context.Context, key, value string, ttl time.Duration) error
}
