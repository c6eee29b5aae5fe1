// Package obsx exports binder and loader metrics to Prometheus.
//
// Overview:
//   - Responsibility: Bootstrap an OpenTelemetry meter provider with Prometheus export
//   - Key Types: Options, Provider
//   - Concurrency Model: Provider is safe for concurrent use
//   - Error Semantics: NewProvider returns core/errors codes for setup failures
//   - Performance Notes: metrics are collected on scrape; there is no push loop
//
// Usage:
//
//	provider, err := obsx.NewProvider(ctx, obsx.Options{ServiceName: "billing"})
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	c := bindx.New(src, bindx.WithMeterProvider(provider.MeterProvider()))
//	http.Handle("/metrics", provider.PrometheusHandler())
package obsx

import (
	"context"
	"database/sql"
	"net/http"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	api "go.opentelemetry.io/otel/metric"

	"go.eggybyte.com/bindx/obsx/internal"
)

// Options holds configuration for the metrics provider.
type Options struct {
	ServiceName    string            // required
	ServiceVersion string            // optional
	ResourceAttrs  map[string]string // extra resource attributes
	Global         bool              // install as the otel global meter provider
}

// Provider manages a meter provider with Prometheus export. It must be shut
// down when no longer needed.
type Provider struct {
	impl *internal.Provider
}

// NewProvider creates a metrics provider. With Options.Global set it also
// becomes the otel global provider.
func NewProvider(ctx context.Context, opts Options) (*Provider, error) {
	impl, err := internal.NewProvider(ctx, internal.ProviderOptions{
		ServiceName:    opts.ServiceName,
		ServiceVersion: opts.ServiceVersion,
		ResourceAttrs:  opts.ResourceAttrs,
	})
	if err != nil {
		return nil, err
	}
	if opts.Global {
		otel.SetMeterProvider(impl.MeterProvider)
	}
	return &Provider{impl: impl}, nil
}

// MeterProvider returns the provider to pass to bindx.WithMeterProvider.
func (p *Provider) MeterProvider() api.MeterProvider {
	return p.impl.MeterProvider
}

// Meter returns a named meter for custom instruments.
func (p *Provider) Meter(name string) api.Meter {
	return p.impl.MeterProvider.Meter(name)
}

// PrometheusHandler serves the collected metrics in the Prometheus text
// format at any path.
//
// Example:
//
//	mux := http.NewServeMux()
//	mux.Handle("/metrics", provider.PrometheusHandler())
func (p *Provider) PrometheusHandler() http.Handler {
	return p.impl.Handler()
}

// Gatherer returns the underlying Prometheus registry.
func (p *Provider) Gatherer() promclient.Gatherer {
	return p.impl.Gatherer()
}

// RegisterSourceDB observes the connection pool of the database behind a
// source.SQL loader under the given source name.
//
// Example:
//
//	db, _ := sql.Open("sqlite", "config.db")
//	_ = provider.RegisterSourceDB("settings", db)
//	m, err := source.Load(ctx, []source.Loader{source.SQL(db, "SELECT k, v FROM settings")})
func (p *Provider) RegisterSourceDB(name string, db *sql.DB) error {
	return internal.RegisterSourceDB(name, db, p.impl.MeterProvider)
}

// Shutdown flushes and stops the provider. Without a caller deadline it is
// bounded by a five second timeout.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.impl.Shutdown(ctx)
}
