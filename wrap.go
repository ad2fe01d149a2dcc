package memocache

import (
	"context"
	"time"
)

// WrapConfig configures a typed wrapper produced by Wrap0/Wrap1/Wrap2.
type WrapConfig struct {
	// Fn is the stable identity of the wrapped function. Required.
	Fn string
	// Version busts previously cached results for this function.
	Version int
	// TTL overrides the memoizer's default entry lifetime; 0 keeps it.
	TTL time.Duration
}

// Wrap0 memoizes a zero-argument function. The wrapper is a drop-in
// replacement for fn; every invocation resolves through m.
func Wrap0[V any](m Memoizer[V], cfg WrapConfig, fn func(context.Context) (V, error)) func(context.Context) (V, error) {
	return func(ctx context.Context) (V, error) {
		return m.Do(ctx, Call{Fn: cfg.Fn, Version: cfg.Version, TTL: cfg.TTL}, fn)
	}
}

// Wrap1 memoizes a one-argument function. The argument is passed into key
// derivation, so the wrapper always operates on the fully bound call.
func Wrap1[A, V any](m Memoizer[V], cfg WrapConfig, fn func(context.Context, A) (V, error)) func(context.Context, A) (V, error) {
	return func(ctx context.Context, a A) (V, error) {
		call := Call{Fn: cfg.Fn, Args: []any{a}, Version: cfg.Version, TTL: cfg.TTL}
		return m.Do(ctx, call, func(ctx context.Context) (V, error) {
			return fn(ctx, a)
		})
	}
}

// Wrap2 memoizes a two-argument function.
func Wrap2[A, B, V any](m Memoizer[V], cfg WrapConfig, fn func(context.Context, A, B) (V, error)) func(context.Context, A, B) (V, error) {
	return func(ctx context.Context, a A, b B) (V, error) {
		call := Call{Fn: cfg.Fn, Args: []any{a, b}, Version: cfg.Version, TTL: cfg.TTL}
		return m.Do(ctx, call, func(ctx context.Context) (V, error) {
			return fn(ctx, a, b)
		})
	}
}
