// Package memory implements the memocache backend on a plain in-process map.
//
// Entries carry absolute expiry timestamps checked lazily on read; an
// optional sweep loop prunes expired entries and leases in the background.
// State never crosses the process boundary, so this backend is suitable for
// single-process deployments and tests only.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/unkn0wn-root/memocache/backend"
	"github.com/unkn0wn-root/memocache/internal/locks"
)

type entry struct {
	v   []byte
	exp time.Time // zero => no expiry
}

type Backend struct {
	mu    sync.RWMutex
	m     map[string]entry
	locks *locks.Table
	now   func() time.Time

	ticker    *time.Ticker
	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

var _ backend.Backend = (*Backend)(nil)

type Config struct {
	// SweepInterval enables a background loop pruning expired entries.
	// Zero disables the loop; lazy expiry on read still applies.
	SweepInterval time.Duration
	// Now overrides the clock. Nil => time.Now. Tests inject a fake clock
	// to exercise expiry without sleeping.
	Now func() time.Time
}

func New(cfg Config) *Backend {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	b := &Backend{
		m:     make(map[string]entry),
		locks: locks.New(now),
		now:   now,
	}
	if cfg.SweepInterval > 0 {
		b.ticker = time.NewTicker(cfg.SweepInterval)
		b.stopCh = make(chan struct{})
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			for {
				select {
				case <-b.ticker.C:
					b.sweep()
				case <-b.stopCh:
					return
				}
			}
		}()
	}
	return b
}

func (b *Backend) Get(_ context.Context, key string) ([]byte, bool, error) {
	b.mu.RLock()
	e, ok := b.m[key]
	b.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && !b.now().Before(e.exp) {
		b.mu.Lock()
		// recheck under the write lock; a concurrent Set may have replaced it
		if cur, ok := b.m[key]; ok && cur.exp.Equal(e.exp) {
			delete(b.m, key)
		}
		b.mu.Unlock()
		return nil, false, nil
	}
	return e.v, true, nil
}

func (b *Backend) Set(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return true, nil // do-not-store per backend contract
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	b.mu.Lock()
	b.m[key] = entry{v: cp, exp: b.now().Add(ttl)}
	b.mu.Unlock()
	return true, nil
}

func (b *Backend) Del(_ context.Context, key string) error {
	b.mu.Lock()
	delete(b.m, key)
	b.mu.Unlock()
	return nil
}

func (b *Backend) TryLock(_ context.Context, key, owner string, lease time.Duration) (bool, error) {
	return b.locks.TryAcquire(key, owner, lease), nil
}

func (b *Backend) Unlock(_ context.Context, key, owner string) error {
	b.locks.Release(key, owner)
	return nil
}

func (b *Backend) sweep() {
	now := b.now()
	b.mu.Lock()
	for k, e := range b.m {
		if !e.exp.IsZero() && !now.Before(e.exp) {
			delete(b.m, k)
		}
	}
	b.mu.Unlock()
	b.locks.Sweep()
}

func (b *Backend) Close(_ context.Context) error {
	b.closeOnce.Do(func() {
		if b.stopCh != nil {
			close(b.stopCh)
			b.ticker.Stop()
			b.wg.Wait()
		}
	})
	return nil
}
