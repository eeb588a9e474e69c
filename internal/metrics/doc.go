// Package metrics implements the in-process counter system for the
// synchronization core. Counters are plain atomics; exporters under
// metrics/export adapt snapshots to Prometheus and OpenTelemetry.
package metrics
