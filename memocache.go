package memocache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	be "github.com/unkn0wn-root/memocache/backend"
	c "github.com/unkn0wn-root/memocache/codec"
	"github.com/unkn0wn-root/memocache/internal/wire"
)

type memo[V any] struct {
	ns      string
	backend be.Backend
	codec   c.Codec[V]
	log     Logger
	hooks   Hooks
	enabled bool

	policy   WaitPolicy
	ttl      time.Duration
	leaseTTL time.Duration
	maxWait  time.Duration
	poll     time.Duration
	maxPoll  time.Duration
	maxAge   time.Duration
	failOpen bool
	now      func() time.Time

	// flight coalesces concurrent local callers per key before any backend
	// round-trip; cross-process exclusion is the lock's job.
	flight singleflight.Group
}

func newMemo[V any](opts Options[V]) (*memo[V], error) {
	if opts.Backend == nil {
		return nil, fmt.Errorf("memocache: backend is required")
	}
	if opts.Codec == nil {
		return nil, fmt.Errorf("memocache: codec is required")
	}
	if opts.Namespace == "" {
		return nil, fmt.Errorf("memocache: namespace is required")
	}
	if opts.WaitPolicy != WaitFail && opts.WaitPolicy != WaitCompute {
		return nil, fmt.Errorf("memocache: wait policy is required (WaitFail or WaitCompute)")
	}

	m := &memo[V]{
		ns:       opts.Namespace,
		backend:  opts.Backend,
		codec:    opts.Codec,
		policy:   opts.WaitPolicy,
		failOpen: opts.FailOpen,
		enabled:  !opts.Disabled,
	}

	// defaults
	m.log = coalesce[Logger](opts.Logger, NopLogger{})
	m.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	m.ttl = coalesce[time.Duration](opts.TTL, 10*time.Minute)
	m.leaseTTL = coalesce[time.Duration](opts.LeaseTTL, 30*time.Second)
	m.maxWait = coalesce[time.Duration](opts.MaxWait, 10*time.Second)
	m.poll = coalesce[time.Duration](opts.PollInterval, 20*time.Millisecond)
	m.maxPoll = coalesce[time.Duration](opts.MaxPollInterval, 500*time.Millisecond)
	m.maxAge = opts.MaxAge
	if opts.Now != nil {
		m.now = opts.Now
	} else {
		m.now = time.Now
	}

	return m, nil
}

func (m *memo[V]) Enabled() bool { return m.enabled }

func (m *memo[V]) Close(ctx context.Context) error {
	if m.backend != nil {
		return m.backend.Close(ctx)
	}
	return nil
}

func (m *memo[V]) Key(call Call) (string, error) {
	return deriveKey(m.ns, call)
}

func (m *memo[V]) Do(ctx context.Context, call Call, compute func(context.Context) (V, error)) (V, error) {
	var zero V
	key, err := m.Key(call)
	if err != nil {
		return zero, err
	}
	if !m.enabled {
		return compute(ctx)
	}

	ttl := call.TTL
	if ttl == 0 {
		ttl = m.ttl
	}

	for {
		ch := m.flight.DoChan(key, func() (any, error) {
			return m.resolve(ctx, key, ttl, compute)
		})
		select {
		case res := <-ch:
			if res.Err != nil {
				// a coalesced leader resolves under its own caller's ctx;
				// that caller's cancellation is not ours. Drop the flight
				// and retry under this caller's ctx (lock already released,
				// so the retry either hits or recomputes).
				if res.Shared && isContextErr(res.Err) && ctx.Err() == nil {
					m.flight.Forget(key)
					continue
				}
				return zero, res.Err
			}
			return res.Val.(V), nil
		case <-ctx.Done():
			// only this caller gives up; a coalesced leader keeps running
			return zero, ctx.Err()
		}
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (m *memo[V]) DoChan(ctx context.Context, call Call, compute func(context.Context) (V, error)) <-chan Result[V] {
	ch := make(chan Result[V], 1)
	go func() {
		v, err := m.Do(ctx, call, compute)
		ch <- Result[V]{Value: v, Err: err}
	}()
	return ch
}

func (m *memo[V]) Invalidate(ctx context.Context, call Call) error {
	key, err := m.Key(call)
	if err != nil {
		return err
	}
	if !m.enabled {
		return nil
	}
	return m.backend.Del(ctx, m.entryKey(key))
}

// resolve runs the full per-key state machine: lookup, then the stampede
// path on a miss. One resolve runs per key per process at a time
// (singleflight); many may run across processes, arbitrated by the lock.
func (m *memo[V]) resolve(ctx context.Context, key string, ttl time.Duration, compute func(context.Context) (V, error)) (V, error) {
	var zero V
	v, ok, err := m.lookup(ctx, key)
	if err != nil {
		if m.failOpen {
			m.hooks.FailOpen(key, err)
			m.log.Warn("backend unavailable; failing open", Fields{"key": key, "err": err})
			return compute(ctx)
		}
		return zero, err
	}
	if ok {
		m.hooks.Hit(key)
		return v, nil
	}
	m.hooks.Miss(key)
	return m.computeOrWait(ctx, key, ttl, compute)
}

// lookup reads and validates a stored entry. Corrupt or undecodable
// entries are deleted and reported as misses so the next writer replaces
// them. An entry older than MaxAge is a miss without deletion: other
// memoizers with laxer age limits may still serve it.
func (m *memo[V]) lookup(ctx context.Context, key string) (V, bool, error) {
	var zero V
	k := m.entryKey(key)
	raw, ok, err := m.backend.Get(ctx, k)
	if err != nil || !ok {
		return zero, false, err
	}
	createdAt, payload, err := wire.DecodeEntry(raw)
	if err != nil {
		_ = m.backend.Del(ctx, k) // self-heal corrupt
		m.hooks.SelfHeal(key, "corrupt")
		return zero, false, nil
	}
	if m.maxAge > 0 && m.now().Sub(createdAt) > m.maxAge {
		return zero, false, nil
	}
	v, err := m.codec.Decode(payload)
	if err != nil {
		_ = m.backend.Del(ctx, k) // self-heal
		m.hooks.SelfHeal(key, "value_decode")
		m.log.Debug("stored entry failed to decode; treating as miss",
			Fields{"key": key, "err": &DecodeError{Key: key, Err: err}})
		return zero, false, nil
	}
	return v, true, nil
}

// store encodes, envelope-frames and writes a computed value. Write
// failures are logged, not surfaced: the computation succeeded and the
// caller gets its value either way.
func (m *memo[V]) store(ctx context.Context, key string, v V, ttl time.Duration) error {
	payload, err := m.codec.Encode(v)
	if err != nil {
		return &EncodeError{Key: key, Err: err}
	}
	ok, err := m.backend.Set(ctx, m.entryKey(key), wire.EncodeEntry(m.now(), payload), ttl)
	if err != nil {
		m.log.Warn("store failed; result not cached", Fields{"key": key, "err": err})
		return nil
	}
	if !ok {
		m.hooks.StoreRejected(key)
	}
	return nil
}

func (m *memo[V]) entryKey(key string) string { return "memo:" + m.ns + ":" + key }
func (m *memo[V]) lockKey(key string) string  { return "lock:" + m.ns + ":" + key }
