// Package redis implements the memocache backend on a shared Redis store,
// making entries and locks visible across processes and hosts.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/memocache/backend"
)

var ErrNilClient = errors.New("redis backend: nil client")

// unlockScript deletes the lock key only when the stored owner token still
// matches. GET+DEL must be one atomic step; a lease that lapsed and was
// reacquired by another owner must not be releasable by the old one.
var unlockScript = goredis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

type Redis struct {
	rdb         goredis.UniversalClient
	closeClient bool
}

var _ backend.Backend = (*Redis)(nil)

type Config struct {
	Client      goredis.UniversalClient
	CloseClient bool // set true only if this backend exclusively owns the client
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Redis{rdb: cfg.Client, closeClient: cfg.CloseClient}, nil
}

func (b *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := b.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, false, nil // miss
	}
	if err != nil {
		return nil, false, unavailable("get", err)
	}
	return v, true, nil
}

func (b *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return true, nil // do-not-store per backend contract
	}
	if err := b.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return false, unavailable("set", err)
	}
	return true, nil
}

func (b *Redis) Del(ctx context.Context, key string) error {
	if err := b.rdb.Del(ctx, key).Err(); err != nil {
		return unavailable("del", err)
	}
	return nil
}

// TryLock maps to SET key owner NX PX lease: created iff absent, with the
// lease as the key's TTL so a crashed holder frees the lock by expiry.
func (b *Redis) TryLock(ctx context.Context, key, owner string, lease time.Duration) (bool, error) {
	ok, err := b.rdb.SetNX(ctx, key, owner, lease).Result()
	if err != nil {
		return false, unavailable("setnx", err)
	}
	return ok, nil
}

func (b *Redis) Unlock(ctx context.Context, key, owner string) error {
	if err := unlockScript.Run(ctx, b.rdb, []string{key}, owner).Err(); err != nil && err != goredis.Nil {
		return unavailable("unlock", err)
	}
	return nil
}

// Close releases the underlying redis client only when this backend owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (b *Redis) Close(context.Context) error {
	if b.closeClient {
		if err := b.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("redis %s: %w: %w", op, backend.ErrUnavailable, err)
}
