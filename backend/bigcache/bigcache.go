// Package bigcache implements the memocache backend on allegro/bigcache.
//
// BigCache has no per-entry TTL; entries live for the configured global
// LifeWindow regardless of the ttl passed to Set. Prefer the memory or
// ristretto backends when per-call TTLs matter. Locks come from the shared
// in-process lease table.
package bigcache

import (
	"context"
	"time"

	bc "github.com/allegro/bigcache/v3"

	"github.com/unkn0wn-root/memocache/backend"
	"github.com/unkn0wn-root/memocache/internal/locks"
)

type Backend struct {
	c     *bc.BigCache
	locks *locks.Table
}

var _ backend.Backend = (*Backend)(nil)

type Config struct {
	LifeWindow         time.Duration
	CleanWindow        time.Duration
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int // ~ memory limit; 0 = unlimited
}

func New(cfg Config) (*Backend, error) {
	conf := bc.DefaultConfig(cfg.LifeWindow)
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	c, err := bc.New(context.Background(), conf)
	if err != nil {
		return nil, err
	}
	return &Backend{c: c, locks: locks.New(nil)}, nil
}

func (b *Backend) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, err := b.c.Get(key)
	if err == bc.ErrEntryNotFound {
		return nil, false, nil
	}
	return v, err == nil, err
}

func (b *Backend) Set(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return true, nil
	}
	return true, b.c.Set(key, value)
}

func (b *Backend) Del(_ context.Context, key string) error {
	err := b.c.Delete(key)
	if err == bc.ErrEntryNotFound {
		return nil
	}
	return err
}

func (b *Backend) TryLock(_ context.Context, key, owner string, lease time.Duration) (bool, error) {
	return b.locks.TryAcquire(key, owner, lease), nil
}

func (b *Backend) Unlock(_ context.Context, key, owner string) error {
	b.locks.Release(key, owner)
	return nil
}

func (b *Backend) Close(_ context.Context) error {
	return b.c.Close()
}
