package redis

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/memocache/backend"
)

func newTestBackend(t *testing.T) (*miniredis.Miniredis, *Redis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	b, err := New(Config{Client: client, CloseClient: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = b.Close(context.Background()) })
	return mr, b
}

func TestNewNilClient(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrNilClient) {
		t.Fatalf("expected ErrNilClient, got %v", err)
	}
}

func TestGetSetDel(t *testing.T) {
	ctx := context.Background()
	_, b := newTestBackend(t)

	if _, ok, err := b.Get(ctx, "k"); ok || err != nil {
		t.Fatalf("empty get: ok=%v err=%v", ok, err)
	}
	if ok, err := b.Set(ctx, "k", []byte("v"), time.Minute); !ok || err != nil {
		t.Fatalf("set: ok=%v err=%v", ok, err)
	}
	v, ok, err := b.Get(ctx, "k")
	if !ok || err != nil || !bytes.Equal(v, []byte("v")) {
		t.Fatalf("get: v=%q ok=%v err=%v", v, ok, err)
	}
	if err := b.Del(ctx, "k"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if err := b.Del(ctx, "k"); err != nil {
		t.Fatalf("del absent must be idempotent: %v", err)
	}
}

func TestEntryExpiry(t *testing.T) {
	ctx := context.Background()
	mr, b := newTestBackend(t)

	if ok, err := b.Set(ctx, "k", []byte("v"), time.Minute); !ok || err != nil {
		t.Fatalf("set: ok=%v err=%v", ok, err)
	}
	mr.FastForward(61 * time.Second)
	if _, ok, _ := b.Get(ctx, "k"); ok {
		t.Fatal("entry served past its ttl")
	}
}

func TestNonPositiveTTLIsNoop(t *testing.T) {
	ctx := context.Background()
	mr, b := newTestBackend(t)

	if ok, err := b.Set(ctx, "k", []byte("v"), 0); !ok || err != nil {
		t.Fatalf("zero ttl set: ok=%v err=%v", ok, err)
	}
	if mr.Exists("k") {
		t.Fatal("non-positive ttl must not store")
	}
}

func TestTryLockIsExclusive(t *testing.T) {
	ctx := context.Background()
	_, b := newTestBackend(t)

	ok, err := b.TryLock(ctx, "lk", "owner-a", time.Minute)
	if !ok || err != nil {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	if ok, _ := b.TryLock(ctx, "lk", "owner-b", time.Minute); ok {
		t.Fatal("second acquire succeeded while lease held")
	}
}

func TestLockLeaseExpiry(t *testing.T) {
	ctx := context.Background()
	mr, b := newTestBackend(t)

	if ok, _ := b.TryLock(ctx, "lk", "owner-a", 30*time.Second); !ok {
		t.Fatal("acquire failed")
	}
	mr.FastForward(31 * time.Second)
	if ok, _ := b.TryLock(ctx, "lk", "owner-b", 30*time.Second); !ok {
		t.Fatal("lapsed lease was not reacquirable")
	}
}

// TestUnlockChecksOwner: compare-owner-then-delete must be a no-op for a
// caller whose lease lapsed and was reacquired by someone else.
func TestUnlockChecksOwner(t *testing.T) {
	ctx := context.Background()
	mr, b := newTestBackend(t)

	if ok, _ := b.TryLock(ctx, "lk", "owner-a", 30*time.Second); !ok {
		t.Fatal("acquire failed")
	}
	mr.FastForward(31 * time.Second)
	if ok, _ := b.TryLock(ctx, "lk", "owner-b", time.Minute); !ok {
		t.Fatal("reacquire failed")
	}

	// stale owner releases: nothing happens
	if err := b.Unlock(ctx, "lk", "owner-a"); err != nil {
		t.Fatalf("stale unlock: %v", err)
	}
	if ok, _ := b.TryLock(ctx, "lk", "owner-c", time.Minute); ok {
		t.Fatal("stale owner released the new holder's lock")
	}

	// current owner releases: lock is free
	if err := b.Unlock(ctx, "lk", "owner-b"); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if ok, _ := b.TryLock(ctx, "lk", "owner-c", time.Minute); !ok {
		t.Fatal("acquire after release failed")
	}
}

func TestOutageMapsToUnavailable(t *testing.T) {
	ctx := context.Background()
	mr, b := newTestBackend(t)
	mr.Close()

	if _, _, err := b.Get(ctx, "k"); !errors.Is(err, backend.ErrUnavailable) {
		t.Fatalf("get during outage: %v", err)
	}
	if _, err := b.Set(ctx, "k", []byte("v"), time.Minute); !errors.Is(err, backend.ErrUnavailable) {
		t.Fatalf("set during outage: %v", err)
	}
	if _, err := b.TryLock(ctx, "lk", "o", time.Minute); !errors.Is(err, backend.ErrUnavailable) {
		t.Fatalf("trylock during outage: %v", err)
	}
}
