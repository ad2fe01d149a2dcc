// Package ristretto implements the memocache backend on dgraph-io/ristretto,
// a size-bounded in-process store with admission control. Writes may be
// rejected under pressure; Set reports that as ok=false. Locks come from the
// shared in-process lease table (ristretto has no conditional-set primitive).
package ristretto

import (
	"context"
	"errors"
	"time"

	rc "github.com/dgraph-io/ristretto"

	"github.com/unkn0wn-root/memocache/backend"
	"github.com/unkn0wn-root/memocache/internal/locks"
)

type Backend struct {
	c     *rc.Cache
	locks *locks.Table
}

var _ backend.Backend = (*Backend)(nil)

type Config struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	Metrics     bool
}

func New(cfg Config) (*Backend, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Backend{c: c, locks: locks.New(nil)}, nil
}

func (b *Backend) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := b.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	raw, _ := v.([]byte)
	if raw == nil {
		// self-heal: drop unexpected entry shape
		b.c.Del(key)
		return nil, false, nil
	}
	return raw, true, nil
}

func (b *Backend) Set(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return true, nil
	}
	return b.c.SetWithTTL(key, value, int64(len(value)), ttl), nil
}

func (b *Backend) Del(_ context.Context, key string) error {
	b.c.Del(key)
	return nil
}

func (b *Backend) TryLock(_ context.Context, key, owner string, lease time.Duration) (bool, error) {
	return b.locks.TryAcquire(key, owner, lease), nil
}

func (b *Backend) Unlock(_ context.Context, key, owner string) error {
	b.locks.Release(key, owner)
	return nil
}

func (b *Backend) Close(_ context.Context) error {
	b.c.Wait()
	b.c.Close()
	return nil
}

// Metrics exposes ristretto's counters when enabled in Config
// (not part of backend.Backend).
func (b *Backend) Metrics() *rc.Metrics { return b.c.Metrics }
