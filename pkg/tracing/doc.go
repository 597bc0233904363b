// Package tracing records OpenTelemetry spans for drag gestures and drop
// target hovers.
//
// Spans are created from the global tracer provider unless one is given:
//
//	tr := tracing.New(tracing.WithTracerName("board"))
//	tr.ObserveDrag("cards", dragController)
//	tr.ObserveDrop("columns", dropController)
package tracing
