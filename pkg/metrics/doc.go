// Package metrics exports drag and drop controller activity as Prometheus
// metrics.
//
//	collector := metrics.New(metrics.WithRegistry(reg))
//	collector.ObserveDrop("uploads", dropController)
//	collector.ObserveDrag("cards", dragController)
//
// Counters are labelled by the controller name given at observation time.
// Gauges track drags and hovers that are currently in progress.
package metrics
