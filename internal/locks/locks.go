// Package locks implements an in-process lease-lock table.
//
// Local backends that have no native conditional-set primitive (map,
// ristretto, bigcache) share this table to satisfy the Backend lock
// contract within one process.
package locks

import (
	"sync"
	"time"
)

type lease struct {
	owner string
	exp   time.Time
}

// Table holds per-key leases. The zero value is not usable; construct
// with New. Safe for concurrent use.
type Table struct {
	mu  sync.Mutex
	m   map[string]lease
	now func() time.Time
}

// New returns an empty lock table. now may be nil, in which case
// time.Now is used; tests inject a fake clock.
func New(now func() time.Time) *Table {
	if now == nil {
		now = time.Now
	}
	return &Table{m: make(map[string]lease), now: now}
}

// TryAcquire creates the lease for key iff none exists or the existing one
// has expired. Returns whether acquisition succeeded.
func (t *Table) TryAcquire(key, owner string, ttl time.Duration) bool {
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()
	if l, ok := t.m[key]; ok && now.Before(l.exp) {
		return false
	}
	t.m[key] = lease{owner: owner, exp: now.Add(ttl)}
	return true
}

// Release removes the lease for key iff owner still holds it and the lease
// has not been reacquired by someone else. No-op otherwise.
func (t *Table) Release(key, owner string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if l, ok := t.m[key]; ok && l.owner == owner {
		delete(t.m, key)
	}
}

// Sweep drops expired leases. Local backends call it from their cleanup
// loops; correctness does not depend on it (TryAcquire checks expiry).
func (t *Table) Sweep() {
	now := t.now()
	t.mu.Lock()
	for k, l := range t.m {
		if !now.Before(l.exp) {
			delete(t.m, k)
		}
	}
	t.mu.Unlock()
}
