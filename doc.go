// Package authgate provides a session and token lifecycle engine with JWT
// token pairs, server-side session records keyed by token hashes, bulk
// invalidation with anomaly heuristics, and a cache-aside read layer for
// permission, role, and profile lookups.
//
// The package is designed for concurrent server workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authgate is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (AuthResult, MetricsSnapshot, etc.). The host application
// supplies the system of record through [UserProvider] and [RoleProvider];
// the engine owns only the session records and the cache.
//
// # What this package must NOT do
//
//   - Persist or log a raw token value; only SHA-256 hashes are stored.
//   - Treat the cache as authoritative: every cache read error is a miss
//     and the system of record is the tie-breaker.
//   - Let audit, metrics, or geolocation failures abort a lifecycle
//     operation; those paths are best-effort by contract.
//
// # Failure vocabulary
//
// Login and Refresh report expected authentication failures as AuthResult
// values carrying one of a small fixed set of messages. Go errors are
// reserved for infrastructure failures (store, codec, system of record).
package authgate
