// Package metrics exposes Prometheus gauges, counters and histograms for
// the admission scheduler, query worker, transfer service and reaper,
// registered once at package init as package-level collectors.
package metrics
