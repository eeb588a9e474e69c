// Package internaldefs holds the counter definitions shared by the
// Prometheus and OpenTelemetry exporters so both publish identical names
// and help text.
package internaldefs
