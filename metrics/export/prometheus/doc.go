// Package prometheus provides Prometheus collectors for authgate metrics.
//
// [NewPrometheusExporter] accepts an [authgate.Engine] and exposes an [http.Handler]
// that renders all authgate counters and histograms in Prometheus text exposition format.
// Counter names are prefixed authgate_*_total; the single histogram is
// authgate_refresh_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate engine state.
package prometheus
