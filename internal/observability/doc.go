// Package observability sets up logging, tracing and metrics for flatci runs.
//
// Tracing is a no-op unless an OTLP endpoint is configured. Metrics are kept
// in a private Prometheus registry and written to a node-exporter textfile at
// the end of a run.
package observability
