package memocache

import (
	"context"
	"time"

	be "github.com/unkn0wn-root/memocache/backend"
	c "github.com/unkn0wn-root/memocache/codec"
)

// Call identifies one memoizable invocation. Fn plus the fully bound
// argument set plus Version determine the cache key; two calls with equal
// fields always map to the same key, across restarts and hosts.
type Call struct {
	// Fn is the stable identity of the wrapped function, e.g.
	// "billing.Quote". Must not be derived from anything ephemeral
	// (pointers, goroutine ids).
	Fn string

	// Args are the positional arguments, order preserved. Values must be
	// deterministically encodable (no channels, funcs, or live handles).
	Args []any

	// Kwargs are named arguments. Derivation order-normalizes them, so
	// insertion order does not matter.
	Kwargs map[string]any

	// Version is a cache-busting tag. Bump it when the function's behavior
	// changes and stale entries must not be served.
	Version int

	// TTL overrides the memoizer's default entry lifetime for this call.
	// Zero means "use the default"; negative means "do not cache".
	TTL time.Duration
}

// WaitPolicy decides what a caller does when the wait budget for a
// contended key runs out. There is no default: the zero value is rejected
// by New, because the two policies trade correctness and duplicated work
// differently and the choice must be explicit.
type WaitPolicy int

const (
	waitPolicyUnset WaitPolicy = iota

	// WaitFail surfaces ErrWaitTimeout when the budget is exhausted.
	WaitFail

	// WaitCompute falls through and computes independently, accepting
	// duplicate work. The independent result is returned but not stored;
	// the lock holder remains the single writer.
	WaitCompute
)

// Result carries the outcome of an asynchronous Do.
type Result[V any] struct {
	Value V
	Err   error
}

// Memoizer is the high-level, backend-agnostic memoization API.
// V is the computed value type. Serialization is handled by a pluggable
// Codec[V]. Implementations hold no per-key mutable state of their own;
// all shared state lives in the Backend, so a Memoizer is safe for
// concurrent use without external locking.
type Memoizer[V any] interface {
	Enabled() bool
	Close(context.Context) error

	// Do derives the key for call, consults the backend, and on a miss
	// coordinates recomputation so that compute runs at most once per key
	// across all cooperating callers. Blocks until resolution; honors ctx
	// at every wait point.
	Do(ctx context.Context, call Call, compute func(context.Context) (V, error)) (V, error)

	// DoChan is the asynchronous form of Do: identical algorithm, result
	// delivered on the returned channel (buffered, always receives exactly
	// one Result).
	DoChan(ctx context.Context, call Call, compute func(context.Context) (V, error)) <-chan Result[V]

	// Invalidate removes the stored entry for call, if any.
	Invalidate(ctx context.Context, call Call) error

	// Key exposes the derived cache key for call. Fails with
	// ErrUnhashableArgs when the arguments cannot be encoded
	// deterministically; no backend access is attempted.
	Key(call Call) (string, error)
}

// Options tune the memoizer. Namespace, Backend, Codec and WaitPolicy are
// required; everything else has a sensible default.
type Options[V any] struct {
	// Required
	Namespace  string // logical namespace to avoid collisions, e.g. "report", "quote"
	Backend    be.Backend
	Codec      c.Codec[V]
	WaitPolicy WaitPolicy // explicit; zero value is an error

	TTL             time.Duration    // entry lifetime; 0 => 10m
	LeaseTTL        time.Duration    // lock lifetime, bounds crash recovery; 0 => 30s
	MaxWait         time.Duration    // wait budget for contended misses; 0 => 10s
	PollInterval    time.Duration    // initial poll interval while waiting; 0 => 20ms
	MaxPollInterval time.Duration    // backoff cap; 0 => 500ms
	MaxAge          time.Duration    // treat entries older than this as misses; 0 => disabled
	FailOpen        bool             // backend outage => bypass cache, call compute (default: surface the error)
	Disabled        bool             // cache off, always compute
	Logger          Logger           // if nil, NopLogger is used
	Hooks           Hooks            // if nil, NopHooks is used
	Now             func() time.Time // test clock; nil => time.Now
}

func New[V any](opts Options[V]) (Memoizer[V], error) {
	return newMemo[V](opts)
}
