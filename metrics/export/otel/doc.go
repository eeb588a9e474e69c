// Package otel bridges the synchronization-core counters to
// OpenTelemetry observable instruments.
package otel
