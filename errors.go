package memocache

import (
	"errors"
	"fmt"
)

var (
	// ErrUnhashableArgs marks a call whose arguments cannot be encoded
	// deterministically (channels, funcs, live handles). Surfaced before
	// any backend access.
	ErrUnhashableArgs = errors.New("memocache: unhashable arguments")

	// ErrWaitTimeout marks a contended miss whose wait budget ran out
	// under the WaitFail policy.
	ErrWaitTimeout = errors.New("memocache: wait budget exhausted")
)

// EncodeError wraps a codec failure while storing a computed value.
// The computation itself succeeded; nothing was cached.
type EncodeError struct {
	Key string
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode value for %q: %v", e.Key, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// DecodeError wraps a codec failure while reading a stored entry.
// Do treats it as a miss and self-heals; the wrapped form is reported
// through the logger and hooks, never returned from Do.
type DecodeError struct {
	Key string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode entry for %q: %v", e.Key, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ComputeError aggregates a failed computation with a failed lock release.
// Returned only when both went wrong; a compute failure with a clean
// release propagates unchanged.
type ComputeError struct {
	Key        string
	ComputeErr error
	UnlockErr  error
}

func (e *ComputeError) Error() string {
	return fmt.Sprintf("compute %q failed: %v (and lock release failed: %v)",
		e.Key, e.ComputeErr, e.UnlockErr)
}

func (e *ComputeError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.ComputeErr != nil {
		errs = append(errs, e.ComputeErr)
	}
	if e.UnlockErr != nil {
		errs = append(errs, e.UnlockErr)
	}
	return errs
}
