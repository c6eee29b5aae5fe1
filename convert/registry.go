package convert

import (
	"maps"
	"reflect"
	"sync"

	"go.eggybyte.com/bindx/core/errors"
)

// Table is the immutable configuration the registry is built from. Callers
// start from DefaultTable, extend it, and hand it to NewRegistry.
type Table struct {
	Scalars     []Factory
	Defaults    map[reflect.Type]string // target type -> Scalars id
	Collections []CollectionKind
	Maps        []MapKind
}

// DefaultTable returns a fresh copy of the built-in table.
func DefaultTable() Table {
	return Table{
		Scalars:     builtinScalars(),
		Defaults:    builtinDefaults(),
		Collections: builtinCollections(),
		Maps:        builtinMaps(),
	}
}

// Registry resolves converters by target type or by id.
type Registry struct {
	factories   map[string]Factory
	defaults    map[reflect.Type]string
	defaultIDs  map[string]struct{}
	collections map[string]CollectionKind
	collOrder   []string
	maps        map[string]MapKind
}

// NewRegistry validates t and builds a registry from a copy of it.
func NewRegistry(t Table) (*Registry, error) {
	r := &Registry{
		factories:   make(map[string]Factory, len(t.Scalars)),
		defaults:    maps.Clone(t.Defaults),
		defaultIDs:  make(map[string]struct{}),
		collections: make(map[string]CollectionKind, len(t.Collections)),
		maps:        make(map[string]MapKind, len(t.Maps)),
	}
	if r.defaults == nil {
		r.defaults = make(map[reflect.Type]string)
	}

	for _, f := range t.Scalars {
		if f.ID == "" {
			return nil, errors.New(errors.CodeInvalidArgument, "converter factory without id")
		}
		if _, dup := r.factories[f.ID]; dup {
			return nil, errors.Newf(errors.CodeInvalidArgument, "duplicate converter id %q", f.ID)
		}
		r.factories[f.ID] = f
	}

	for typ, id := range r.defaults {
		f, ok := r.factories[id]
		if !ok {
			return nil, errors.Newf(errors.CodeInvalidArgument, "default for %s references unknown converter %q", typ, id)
		}
		if f.Type != nil && !f.Type.AssignableTo(typ) {
			return nil, errors.Newf(errors.CodeInvalidArgument, "converter %q produces %s, not %s", id, f.Type, typ)
		}
		r.defaultIDs[id] = struct{}{}
	}

	for _, k := range t.Collections {
		if k.ID == "" || k.Accepts == nil || k.New == nil {
			return nil, errors.Newf(errors.CodeInvalidArgument, "incomplete collection kind %q", k.ID)
		}
		if _, dup := r.collections[k.ID]; dup {
			return nil, errors.Newf(errors.CodeInvalidArgument, "duplicate collection kind %q", k.ID)
		}
		r.collections[k.ID] = k
		r.collOrder = append(r.collOrder, k.ID)
	}

	for _, k := range t.Maps {
		if k.ID == "" || k.Put == nil {
			return nil, errors.Newf(errors.CodeInvalidArgument, "incomplete map kind %q", k.ID)
		}
		if _, dup := r.maps[k.ID]; dup {
			return nil, errors.Newf(errors.CodeInvalidArgument, "duplicate map kind %q", k.ID)
		}
		r.maps[k.ID] = k
	}
	if _, ok := r.maps[DefaultMapKind]; !ok {
		return nil, errors.Newf(errors.CodeInvalidArgument, "map kind %q is required", DefaultMapKind)
	}

	return r, nil
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r, err := NewRegistry(DefaultTable())
	if err != nil {
		panic(err)
	}
	return r
})

// DefaultRegistry returns the process-wide registry built from DefaultTable.
func DefaultRegistry() *Registry {
	return defaultRegistry()
}

// Lookup returns the default factory for t. Types without a table entry
// fall back to encoding.TextUnmarshaler when their pointer implements it.
func (r *Registry) Lookup(t reflect.Type) (Factory, bool) {
	if id, ok := r.defaults[t]; ok {
		return r.factories[id], true
	}
	return textFactory(t)
}

// Factory returns the factory registered under id.
func (r *Registry) Factory(id string) (Factory, bool) {
	f, ok := r.factories[id]
	return f, ok
}

// IsDefault reports whether id backs at least one default-table entry.
func (r *Registry) IsDefault(id string) bool {
	_, ok := r.defaultIDs[id]
	return ok
}

// Collection returns the collection kind registered under id.
func (r *Registry) Collection(id string) (CollectionKind, bool) {
	k, ok := r.collections[id]
	return k, ok
}

// DefaultCollection returns the first registered kind accepting t.
func (r *Registry) DefaultCollection(t reflect.Type) (CollectionKind, bool) {
	for _, id := range r.collOrder {
		if k := r.collections[id]; k.Accepts(t) {
			return k, true
		}
	}
	return CollectionKind{}, false
}

// Map returns the map kind registered under id.
func (r *Registry) Map(id string) (MapKind, bool) {
	k, ok := r.maps[id]
	return k, ok
}
