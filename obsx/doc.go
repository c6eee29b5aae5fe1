// Package obsx provides Prometheus export for bindx metrics.
//
// # Overview
//
// obsx constructs an OpenTelemetry meter provider whose only reader is a
// Prometheus exporter on a private registry. Pass it to bindx.WithMeterProvider
// to export the binder instruments, and mount PrometheusHandler to scrape them.
//
// # Features
//
//   - Meter provider with Prometheus export only (no remote push)
//   - Binder instruments: bindx_configure_total, bindx_configure_duration_seconds,
//     bindx_fields_bound_total
//   - Connection pool metrics for databases behind SQL configuration sources
//   - Bounded shutdown
//
// # Layer
//
// obsx depends on core only; the binder depends on the otel metric API, not
// on obsx.
package obsx
