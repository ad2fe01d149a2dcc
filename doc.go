// Package memocache memoizes expensive function calls across process and
// machine boundaries. Results are stored in a pluggable Backend (in-process
// map, ristretto, bigcache, or a shared Redis) and recomputation of a missing
// key is coordinated so that concurrent callers do not stampede the same work.
//
// Components:
//   - Backend: byte store with TTLs plus an atomic per-key lease lock.
//   - Codec[V]: (de)serializes V <-> []byte.
//   - Key derivation: deterministic CBOR over (namespace, fn, version, args)
//     hashed with SHA-256; equal calls hash equally across processes.
//   - Stampede coordination: first atomic lock acquire computes; everyone
//     else polls for the value with exponential backoff, bounded by MaxWait.
//
// Keys:
//
//	memo:<ns>:<key>  - stored results (envelope-framed)
//	lock:<ns>:<key>  - computation leases
//
// Miss pattern:
//
//	v, err := m.Do(ctx, memocache.Call{Fn: "report.Build", Args: []any{id}},
//	    func(ctx context.Context) (Report, error) { return buildReport(ctx, id) })
package memocache
