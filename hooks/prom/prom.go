// Package prom exports memocache hook events as Prometheus metrics.
package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/memocache"
)

// Hooks implements memocache.Hooks and exports Prometheus counters.
// Safe for concurrent use; all Prometheus metric types are goroutine-safe.
type Hooks struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	selfHeals *prometheus.CounterVec
	contended prometheus.Counter
	timeouts  *prometheus.CounterVec
	failOpens prometheus.Counter
	rejected  prometheus.Counter
}

var _ memocache.Hooks = (*Hooks)(nil)

// New constructs a Prometheus hooks adapter.
//   - reg:          registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:      Prometheus namespace and subsystem
//   - constLabels:  static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Hooks {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	h := &Hooks{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "hits_total",
			Help:        "Memoized results served without recomputation",
			ConstLabels: constLabels,
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "misses_total",
			Help:        "Calls that entered the recomputation path",
			ConstLabels: constLabels,
		}),
		selfHeals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "self_heals_total",
				Help:        "Stored entries deleted on read by reason",
				ConstLabels: constLabels,
			},
			[]string{"reason"},
		),
		contended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "lock_contended_total",
			Help:        "Misses that found the computation lock held",
			ConstLabels: constLabels,
		}),
		timeouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "wait_timeouts_total",
				Help:        "Wait budgets exhausted by outcome",
				ConstLabels: constLabels,
			},
			[]string{"outcome"},
		),
		failOpens: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "fail_opens_total",
			Help:        "Calls that bypassed an unavailable backend",
			ConstLabels: constLabels,
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "store_rejected_total",
			Help:        "Writes rejected by the backend under pressure",
			ConstLabels: constLabels,
		}),
	}
	reg.MustRegister(h.hits, h.misses, h.selfHeals, h.contended, h.timeouts, h.failOpens, h.rejected)
	return h
}

func (h *Hooks) Hit(string)  { h.hits.Inc() }
func (h *Hooks) Miss(string) { h.misses.Inc() }

func (h *Hooks) SelfHeal(_, reason string) { h.selfHeals.WithLabelValues(reason).Inc() }

func (h *Hooks) LockContended(string) { h.contended.Inc() }

func (h *Hooks) WaitTimeout(_ string, computedIndependently bool) {
	if computedIndependently {
		h.timeouts.WithLabelValues("computed").Inc()
		return
	}
	h.timeouts.WithLabelValues("failed").Inc()
}

func (h *Hooks) FailOpen(string, error) { h.failOpens.Inc() }
func (h *Hooks) StoreRejected(string)   { h.rejected.Inc() }
