package bindx

import (
	"go.opentelemetry.io/otel/metric"

	"go.eggybyte.com/bindx/convert"
	"go.eggybyte.com/bindx/core/log"
	"go.eggybyte.com/bindx/internal"
)

// Tags names the struct tag keys that carry markers. Empty keys fall back to
// DefaultTags.
type Tags = internal.Tags

// DefaultTags returns the default tag keys.
func DefaultTags() Tags {
	return internal.DefaultTags()
}

// Option configures a Configurator.
type Option func(*options)

type options struct {
	logger        log.Logger
	registry      *convert.Registry
	tags          Tags
	strict        bool
	meterProvider metric.MeterProvider
	cacheSize     int
}

func defaultOptions() options {
	return options{
		logger:    log.Nop(),
		registry:  convert.DefaultRegistry(),
		tags:      internal.DefaultTags(),
		cacheSize: internal.DefaultCacheSize,
	}
}

// WithLogger sets the logger. Bindings and failures are logged at debug level.
func WithLogger(l log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRegistry replaces the converter registry.
func WithRegistry(r *convert.Registry) Option {
	return func(o *options) {
		if r != nil {
			o.registry = r
		}
	}
}

// WithTags replaces the marker tag keys.
func WithTags(t Tags) Option {
	return func(o *options) {
		o.tags = t
	}
}

// WithStrict rejects exported fields that carry no marker.
func WithStrict() Option {
	return func(o *options) {
		o.strict = true
	}
}

// WithMeterProvider records binder metrics on mp.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}

// WithCacheSize bounds the number of cached struct plans.
func WithCacheSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.cacheSize = n
		}
	}
}

// buildEnv turns options into the collaborators shared by a chain.
func buildEnv(opts []Option) (*internal.Env, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	planner, err := internal.NewPlanner(o.tags, o.strict, o.cacheSize)
	if err != nil {
		return nil, err
	}

	return &internal.Env{
		Planner:  planner,
		Resolver: internal.NewResolver(o.registry),
		Logger:   o.logger,
		Metrics:  internal.NewMetrics(o.meterProvider),
	}, nil
}
