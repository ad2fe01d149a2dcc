package memory

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestGetSetDel(t *testing.T) {
	ctx := context.Background()
	b := New(Config{})
	defer b.Close(ctx)

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
	if _, ok, _ := b.Get(ctx, "k"); ok {
		t.Fatal("get after del: hit")
	}
}

func TestSetCopiesValue(t *testing.T) {
	ctx := context.Background()
	b := New(Config{})
	defer b.Close(ctx)

	src := []byte("abc")
	_, _ = b.Set(ctx, "k", src, time.Minute)
	src[0] = 'z'
	v, _, _ := b.Get(ctx, "k")
	if !bytes.Equal(v, []byte("abc")) {
		t.Fatalf("stored value aliased the caller's slice: %q", v)
	}
}

func TestNonPositiveTTLIsNoop(t *testing.T) {
	ctx := context.Background()
	b := New(Config{})
	defer b.Close(ctx)

	if ok, err := b.Set(ctx, "k", []byte("v"), 0); !ok || err != nil {
		t.Fatalf("zero ttl set: ok=%v err=%v", ok, err)
	}
	if ok, err := b.Set(ctx, "k", []byte("v"), -time.Second); !ok || err != nil {
		t.Fatalf("negative ttl set: ok=%v err=%v", ok, err)
	}
	if _, ok, _ := b.Get(ctx, "k"); ok {
		t.Fatal("non-positive ttl must not store")
	}
}

func TestLazyExpiry(t *testing.T) {
	ctx := context.Background()
	clk := newClock()
	b := New(Config{Now: clk.Now})
	defer b.Close(ctx)

	_, _ = b.Set(ctx, "k", []byte("v"), time.Minute)
	clk.Advance(59 * time.Second)
	if _, ok, _ := b.Get(ctx, "k"); !ok {
		t.Fatal("entry expired early")
	}
	clk.Advance(2 * time.Second)
	if _, ok, _ := b.Get(ctx, "k"); ok {
		t.Fatal("entry served past its ttl")
	}
}

func TestLockSemantics(t *testing.T) {
	ctx := context.Background()
	clk := newClock()
	b := New(Config{Now: clk.Now})
	defer b.Close(ctx)

	ok, err := b.TryLock(ctx, "lk", "a", 30*time.Second)
	if !ok || err != nil {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	if ok, _ := b.TryLock(ctx, "lk", "b", 30*time.Second); ok {
		t.Fatal("second acquire succeeded while lease held")
	}

	// wrong owner cannot release
	if err := b.Unlock(ctx, "lk", "b"); err != nil {
		t.Fatalf("unlock wrong owner: %v", err)
	}
	if ok, _ := b.TryLock(ctx, "lk", "b", 30*time.Second); ok {
		t.Fatal("foreign unlock released the lock")
	}

	// right owner releases
	if err := b.Unlock(ctx, "lk", "a"); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if ok, _ := b.TryLock(ctx, "lk", "b", 30*time.Second); !ok {
		t.Fatal("acquire after release failed")
	}
}

func TestLockLeaseExpiry(t *testing.T) {
	ctx := context.Background()
	clk := newClock()
	b := New(Config{Now: clk.Now})
	defer b.Close(ctx)

	if ok, _ := b.TryLock(ctx, "lk", "a", 30*time.Second); !ok {
		t.Fatal("acquire failed")
	}
	clk.Advance(31 * time.Second)
	if ok, _ := b.TryLock(ctx, "lk", "b", 30*time.Second); !ok {
		t.Fatal("lapsed lease was not reacquirable")
	}

	// the old owner's release must not disturb the new holder
	if err := b.Unlock(ctx, "lk", "a"); err != nil {
		t.Fatalf("stale unlock: %v", err)
	}
	if ok, _ := b.TryLock(ctx, "lk", "c", 30*time.Second); ok {
		t.Fatal("stale owner released the new holder's lock")
	}
}

func TestConcurrentLockSingleWinner(t *testing.T) {
	ctx := context.Background()
	b := New(Config{})
	defer b.Close(ctx)

	const n = 32
	var wg sync.WaitGroup
	wins := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			owner := string(rune('a' + i))
			if ok, _ := b.TryLock(ctx, "lk", owner, time.Minute); ok {
				wins <- owner
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	var count int
	for range wins {
		count++
	}
	if count != 1 {
		t.Fatalf("%d winners, want exactly 1", count)
	}
}
