// Package backend defines the storage capability used by memocache.
//
// A Backend is a byte store with TTLs plus a per-key lease lock primitive.
// Implementations MUST be byte-for-byte transparent: Get must return exactly
// the same []byte that was previously passed to Set for a key (no
// prepended/appended metadata, no re-encoding, no mutation).
//
// The keyspaces "memo:<ns>:" and "lock:<ns>:" are owned by memocache.
// External code MUST NOT write values under these prefixes. Foreign writes may
// be treated as corruption by strict envelope validation and deleted.
package backend

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable marks a backend that could not be reached (transport or
// server failure on a remote store). It is distinct from a plain miss:
// Get reports absence as (nil, false, nil), never as an error.
var ErrUnavailable = errors.New("backend unavailable")

// Backend is a minimal byte store with TTLs and lease locks.
// Must be safe for concurrent use from many goroutines; remote
// implementations must additionally be safe across processes and hosts.
type Backend interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// IO/remote failures return (nil, false, err) with err wrapping
	// ErrUnavailable.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL. A non-positive ttl means
	// "do not store" and is a successful no-op, not an error.
	// Returns ok=false when the store rejected the write under pressure.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) (ok bool, err error)

	// Del removes a key. Absence is not an error.
	Del(ctx context.Context, key string) error

	// TryLock atomically creates the lock for key iff no unexpired lock
	// exists, recording owner and a lease of the given duration. Returns
	// whether acquisition succeeded. Atomicity must hold across all
	// concurrent callers the implementation supports (goroutines for local
	// stores, processes/hosts for remote ones).
	TryLock(ctx context.Context, key, owner string, lease time.Duration) (bool, error)

	// Unlock removes the lock for key iff owner still holds it; otherwise
	// a no-op. A caller whose lease lapsed and was reacquired by another
	// owner must not be able to release the new holder's lock.
	Unlock(ctx context.Context, key, owner string) error

	// Close releases resources.
	Close(ctx context.Context) error
}
