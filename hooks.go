package memocache

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The memoizer calls them on hot paths.
type Hooks interface {
	// A stored value was served without running compute.
	Hit(storageKey string)

	// No usable entry existed; the stampede path was entered.
	Miss(storageKey string)

	// A stored entry was deleted on read.
	// reason ∈ {"corrupt", "value_decode"}
	SelfHeal(storageKey, reason string)

	// The computation lock was held by someone else; this caller entered
	// the wait loop.
	LockContended(storageKey string)

	// The wait budget ran out. computedIndependently reports whether the
	// WaitCompute policy kicked in (duplicate work) or the call failed.
	WaitTimeout(storageKey string, computedIndependently bool)

	// The backend was unreachable and FailOpen bypassed the cache.
	FailOpen(storageKey string, err error)

	// Backend returned ok=false on Set (backpressure/eviction).
	StoreRejected(storageKey string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) Hit(string)               {}
func (NopHooks) Miss(string)              {}
func (NopHooks) SelfHeal(string, string)  {}
func (NopHooks) LockContended(string)     {}
func (NopHooks) WaitTimeout(string, bool) {}
func (NopHooks) FailOpen(string, error)   {}
func (NopHooks) StoreRejected(string)     {}
