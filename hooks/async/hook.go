// usage:
//
// import (
//
//	"log/slog"
//
//	"github.com/unkn0wn-root/memocache"
//	"github.com/unkn0wn-root/memocache/hooks/async"
//	sloghook "github.com/unkn0wn-root/memocache/hooks/slog"
//
// )
//
//	raw := sloghook.New(slog.Default(), sloghook.Options{
//	    HitEvery:  100, // sample logs: ~every 100th hit
//	    MissEvery: 1,   // log every miss
//	})
//
// hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
// defer hooks.Close()
//
//	m, _ := memocache.New[Report](memocache.Options[Report]{
//	    Namespace:  "report",
//	    Backend:    backend,
//	    Codec:      codec.JSON[Report]{},
//	    WaitPolicy: memocache.WaitFail,
//	    Hooks:      hooks, // or `raw` if you don’t want async
//	})
package asynchook

import (
	"sync"

	"github.com/unkn0wn-root/memocache"
)

type Hooks struct {
	inner memocache.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

var _ memocache.Hooks = (*Hooks)(nil)

func New(inner memocache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

func (h *Hooks) try(f func()) {
	select {
	case h.q <- f:
	default: // drop
	}
}

func (h *Hooks) Hit(k string)           { h.try(func() { h.inner.Hit(k) }) }
func (h *Hooks) Miss(k string)          { h.try(func() { h.inner.Miss(k) }) }
func (h *Hooks) SelfHeal(k, r string)   { h.try(func() { h.inner.SelfHeal(k, r) }) }
func (h *Hooks) LockContended(k string) { h.try(func() { h.inner.LockContended(k) }) }
func (h *Hooks) StoreRejected(k string) { h.try(func() { h.inner.StoreRejected(k) }) }
func (h *Hooks) WaitTimeout(k string, independent bool) {
	h.try(func() { h.inner.WaitTimeout(k, independent) })
}
func (h *Hooks) FailOpen(k string, err error) {
	h.try(func() { h.inner.FailOpen(k, err) })
}
