// Package prometheus exports synchronization-core metrics in Prometheus
// text exposition format without depending on the Prometheus client
// library; the counter set is small and fixed.
package prometheus
