package internaldefs

import (
	authgate "github.com/corvidlabs/authgate"
)

// CounterDef defines a public type used by authgate APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   authgate.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by authgate APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   authgate.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the authentication engine.
var CounterDefs = []CounterDef{
	{ID: authgate.MetricLoginSuccess, Name: "authgate_login_success_total", Help: "Successful login attempts."},
	{ID: authgate.MetricLoginFailure, Name: "authgate_login_failure_total", Help: "Failed login attempts."},
	{ID: authgate.MetricRefreshSuccess, Name: "authgate_refresh_success_total", Help: "Successful refresh operations."},
	{ID: authgate.MetricRefreshFailure, Name: "authgate_refresh_failure_total", Help: "Failed refresh operations."},
	{ID: authgate.MetricRotationConflict, Name: "authgate_rotation_conflict_total", Help: "Concurrent refresh rotations that lost the version race."},
	{ID: authgate.MetricSessionCreated, Name: "authgate_session_created_total", Help: "Created sessions."},
	{ID: authgate.MetricSessionInvalidated, Name: "authgate_session_invalidated_total", Help: "Invalidated sessions."},
	{ID: authgate.MetricInvalidateAll, Name: "authgate_invalidate_all_total", Help: "Bulk invalidation operations."},
	{ID: authgate.MetricOwnershipViolation, Name: "authgate_ownership_violation_total", Help: "Self-service invalidations rejected for foreign session ownership."},
	{ID: authgate.MetricCacheHit, Name: "authgate_cache_hit_total", Help: "Cache reads served from cache."},
	{ID: authgate.MetricCacheMiss, Name: "authgate_cache_miss_total", Help: "Cache reads that fell through to the system of record, including cache errors."},
	{ID: authgate.MetricCacheNegativeHit, Name: "authgate_cache_negative_hit_total", Help: "Cache reads answered by a negative entry."},
	{ID: authgate.MetricCacheWriteBackFailure, Name: "authgate_cache_writeback_failure_total", Help: "Best-effort cache write-backs that failed."},
	{ID: authgate.MetricAnomalySignal, Name: "authgate_anomaly_signal_total", Help: "Anomaly signals raised during bulk invalidation."},
	{ID: authgate.MetricGeoFallback, Name: "authgate_geo_fallback_total", Help: "Geolocation lookups that degraded to the unknown country sentinel."},
}

// HistogramDefs is an exported constant or variable used by the authentication engine.
var HistogramDefs = []HistogramDef{
	{ID: authgate.MetricRefreshLatency, Name: "authgate_refresh_latency_seconds", Help: "Refresh latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the authentication engine.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the authentication engine.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets may return an error when input validation, dependency calls, or security checks fail.
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets may return an error when input validation, dependency calls, or security checks fail.
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
