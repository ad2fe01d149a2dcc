// Package file implements the memocache backend on a local directory, one
// file per entry. Entries survive process restarts, which suits expensive
// computations on developer machines and single-host batch jobs.
//
// Writes go through a temp file renamed into place, so readers never observe
// a partially written entry. Keys are hashed into filenames; the engine's
// ":"-separated keyspace never reaches the filesystem. Locks are in-process
// only (shared lease table): concurrent processes over the same directory
// get correct reads and atomic writes, but not cross-process stampede
// exclusion.
package file

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/unkn0wn-root/memocache/backend"
	"github.com/unkn0wn-root/memocache/internal/locks"
)

const suffix = ".memo"

// entry file layout: expiry unix-ms (u64 be) | value. The expiry header is
// this package's own bookkeeping; the engine's envelope is carried opaquely
// in the value bytes per the backend contract.
const hdrLen = 8

type Backend struct {
	dir   string
	locks *locks.Table
	now   func() time.Time

	ticker    *time.Ticker
	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

var _ backend.Backend = (*Backend)(nil)

type Config struct {
	// Dir is the storage directory, created if absent. Required.
	Dir string
	// SweepInterval enables a background loop unlinking expired entry
	// files. Zero disables the loop; lazy expiry on read still applies.
	SweepInterval time.Duration
	// Now overrides the clock. Nil => time.Now.
	Now func() time.Time
}

func New(cfg Config) (*Backend, error) {
	if cfg.Dir == "" {
		return nil, errors.New("file backend: dir is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	b := &Backend{
		dir:   cfg.Dir,
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
	return b, nil
}

func (b *Backend) Get(_ context.Context, key string) ([]byte, bool, error) {
	raw, err := os.ReadFile(b.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if len(raw) < hdrLen {
		_ = os.Remove(b.path(key)) // truncated write from a crashed process
		return nil, false, nil
	}
	exp := time.UnixMilli(int64(binary.BigEndian.Uint64(raw[:hdrLen])))
	if !b.now().Before(exp) {
		_ = os.Remove(b.path(key))
		return nil, false, nil
	}
	return raw[hdrLen:], true, nil
}

// Set writes the entry through a temp file in the same directory and renames
// it into place. Rename is atomic on POSIX filesystems, so concurrent
// readers see either the old entry or the new one, never a torn write.
func (b *Backend) Set(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return true, nil // do-not-store per backend contract
	}
	buf := make([]byte, hdrLen+len(value))
	binary.BigEndian.PutUint64(buf[:hdrLen], uint64(b.now().Add(ttl).UnixMilli()))
	copy(buf[hdrLen:], value)

	tmp, err := os.CreateTemp(b.dir, "tmp-*")
	if err != nil {
		return false, err
	}
	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return false, err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return false, err
	}
	if err := os.Rename(tmp.Name(), b.path(key)); err != nil {
		_ = os.Remove(tmp.Name())
		return false, err
	}
	return true, nil
}

func (b *Backend) Del(_ context.Context, key string) error {
	err := os.Remove(b.path(key))
	if errors.Is(err, fs.ErrNotExist) {
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

func (b *Backend) sweep() {
	ents, err := os.ReadDir(b.dir)
	if err != nil {
		return
	}
	now := b.now()
	var hdr [hdrLen]byte
	for _, e := range ents {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		p := filepath.Join(b.dir, e.Name())
		f, err := os.Open(p)
		if err != nil {
			continue
		}
		_, err = io.ReadFull(f, hdr[:])
		f.Close()
		if err != nil {
			_ = os.Remove(p)
			continue
		}
		exp := time.UnixMilli(int64(binary.BigEndian.Uint64(hdr[:])))
		if !now.Before(exp) {
			_ = os.Remove(p)
		}
	}
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

// path maps an engine key to a filename. Hashing keeps the engine's key
// characters (":") and length out of the filesystem's way.
func (b *Backend) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(b.dir, hex.EncodeToString(sum[:])+suffix)
}
