package memocache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// computeOrWait is the stampede path for a missed key. Exactly one caller
// at a time holds the per-key lease lock and computes; everyone else polls
// for the stored value with exponential backoff, re-attempting the lock
// each round so a crashed holder's lapsed lease is picked up within one
// lease interval. The loop is bounded by MaxWait; what happens at the
// boundary is the configured WaitPolicy's call.
func (m *memo[V]) computeOrWait(ctx context.Context, key string, ttl time.Duration, compute func(context.Context) (V, error)) (V, error) {
	var zero V
	owner := uuid.NewString()
	lockKey := m.lockKey(key)
	deadline := m.now().Add(m.maxWait)
	interval := m.poll
	contended := false

	for {
		acquired, err := m.backend.TryLock(ctx, lockKey, owner, m.leaseTTL)
		if err != nil {
			if m.failOpen {
				m.hooks.FailOpen(key, err)
				m.log.Warn("lock backend unavailable; failing open", Fields{"key": key, "err": err})
				return compute(ctx)
			}
			return zero, err
		}
		if acquired {
			return m.computeAndStore(ctx, key, lockKey, owner, ttl, compute)
		}

		if !contended {
			contended = true
			m.hooks.LockContended(key)
		}

		if m.now().After(deadline) {
			return m.onWaitTimeout(ctx, key, compute)
		}

		t := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return zero, ctx.Err()
		case <-t.C:
		}
		if interval *= 2; interval > m.maxPoll {
			interval = m.maxPoll
		}

		// the holder may have stored by now
		v, ok, err := m.lookup(ctx, key)
		if err != nil {
			if m.failOpen {
				m.hooks.FailOpen(key, err)
				return compute(ctx)
			}
			return zero, err
		}
		if ok {
			m.hooks.Hit(key)
			return v, nil
		}
	}
}

func (m *memo[V]) onWaitTimeout(ctx context.Context, key string, compute func(context.Context) (V, error)) (V, error) {
	var zero V
	if m.policy == WaitCompute {
		m.hooks.WaitTimeout(key, true)
		m.log.Debug("wait budget exhausted; computing independently", Fields{"key": key})
		// no lock held, so no store: the holder remains the single writer
		return compute(ctx)
	}
	m.hooks.WaitTimeout(key, false)
	return zero, fmt.Errorf("%w (max_wait=%s)", ErrWaitTimeout, m.maxWait)
}

// computeAndStore runs under the lock. Every exit releases the lock:
// a compute failure releases before the error propagates so waiters can
// retry immediately instead of sitting out the lease; only a process
// crash leaves the lock to lapse on its own.
func (m *memo[V]) computeAndStore(ctx context.Context, key, lockKey, owner string, ttl time.Duration, compute func(context.Context) (V, error)) (V, error) {
	var zero V
	v, err := compute(ctx)
	if err != nil {
		// nothing is cached for a failed computation
		if uerr := m.backend.Unlock(ctx, lockKey, owner); uerr != nil {
			return zero, &ComputeError{Key: key, ComputeErr: err, UnlockErr: uerr}
		}
		return zero, err
	}

	serr := m.store(ctx, key, v, ttl)

	if uerr := m.backend.Unlock(ctx, lockKey, owner); uerr != nil {
		// value is stored (or store already logged); waiters will pick it
		// up, and the lease bounds how long the stale lock lingers
		m.log.Warn("lock release failed; lease will lapse", Fields{"key": key, "err": uerr})
	}
	if serr != nil {
		return zero, serr
	}
	return v, nil
}
