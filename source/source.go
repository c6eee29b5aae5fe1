// Package source provides the read-only configuration view consumed by the
// binder and the loaders that produce it.
//
// Overview:
//   - Responsibility: Key lookup over a flat string map; loading and merging
//     configuration from env, files, flags, databases and koanf instances
//   - Key Types: Source, Map, Loader, LoaderFunc
//   - Concurrency Model: Map is immutable and safe for concurrent reads;
//     loaders are invoked sequentially by Load
//   - Error Semantics: Loader failures are SOURCE errors naming the loader
//   - Performance Notes: Values are copied once at construction
//
// Usage:
//
//	src, err := source.Load(ctx, []source.Loader{
//	    source.File("config.yaml", source.FileOptions{}),
//	    source.Env(source.EnvOptions{Prefix: "APP_", Lowercase: true}),
//	})
//	host, ok := src.Lookup("server.host")
package source

import (
	"context"
	"maps"
	"slices"

	"go.eggybyte.com/bindx/core/errors"
	"go.eggybyte.com/bindx/core/log"
)

// Source is a read-only view of configuration entries. A key that is present
// with an empty value is distinct from an absent key.
type Source interface {
	Lookup(key string) (string, bool)
}

// Map is an immutable Source backed by a string map.
type Map struct {
	entries map[string]string
}

// NewMap returns a Map holding a copy of entries.
func NewMap(entries map[string]string) *Map {
	m := maps.Clone(entries)
	if m == nil {
		m = make(map[string]string)
	}
	return &Map{entries: m}
}

// Lookup returns the value stored under key.
func (m *Map) Lookup(key string) (string, bool) {
	v, ok := m.entries[key]
	return v, ok
}

// Keys returns the sorted keys.
func (m *Map) Keys() []string {
	return slices.Sorted(maps.Keys(m.entries))
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.entries)
}

// Configurations returns a copy of all entries.
func (m *Map) Configurations() map[string]string {
	return maps.Clone(m.entries)
}

// Loader produces a flat snapshot of configuration entries.
type Loader interface {
	Load(ctx context.Context) (map[string]string, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context) (map[string]string, error)

// Load calls f(ctx).
func (f LoaderFunc) Load(ctx context.Context) (map[string]string, error) {
	return f(ctx)
}

// Static returns a loader yielding a copy of entries.
func Static(entries map[string]string) Loader {
	return LoaderFunc(func(context.Context) (map[string]string, error) {
		return maps.Clone(entries), nil
	})
}

// Option configures Load.
type Option func(*loadOptions)

type loadOptions struct {
	logger log.Logger
}

// WithLogger sets the logger used to report loaded key counts.
func WithLogger(l log.Logger) Option {
	return func(o *loadOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// Load runs every loader in order and merges their snapshots. Later loaders
// override earlier ones key by key, empty values included. The first failing
// loader aborts the merge.
func Load(ctx context.Context, loaders []Loader, opts ...Option) (*Map, error) {
	o := loadOptions{logger: log.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	merged := make(map[string]string)
	for i, l := range loaders {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.CodeSource, "source.Load", err)
		}

		snapshot, err := l.Load(ctx)
		if err != nil {
			return nil, errors.Build(errors.CodeSource).
				WithOp("source.Load").
				WithMsgf("loader %d failed", i).
				WithErr(err).
				Err()
		}

		maps.Copy(merged, snapshot)
		o.logger.Debug("configuration loaded", log.Int("loader", i), log.Int("keys", len(snapshot)))
	}

	return &Map{entries: merged}, nil
}
