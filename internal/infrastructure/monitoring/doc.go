// Package monitoring provides Prometheus metrics for probes, the resolution
// cache, lifecycle operations, and the HTTP control surface.
package monitoring
