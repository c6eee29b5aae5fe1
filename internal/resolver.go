package internal

import (
	"reflect"

	"go.eggybyte.com/bindx/convert"
	"go.eggybyte.com/bindx/core/errors"
)

// ResolveName returns the configuration key of sf: the name override when
// present, the Go identifier otherwise. A present but empty override fails.
func ResolveName(sf reflect.StructField, tags Tags) (string, error) {
	name, ok := sf.Tag.Lookup(tags.Name)
	if !ok {
		return sf.Name, nil
	}
	if name == "" {
		return "", errors.New(errors.CodeNameResolution, "name cannot be empty")
	}
	return name, nil
}

var stringType = reflect.TypeFor[string]()

// Resolver picks converters for fields: an explicit id first, else the
// registry default for the declared type.
type Resolver struct {
	registry *convert.Registry
}

// NewResolver returns a resolver backed by registry.
func NewResolver(registry *convert.Registry) *Resolver {
	return &Resolver{registry: registry}
}

// Registry returns the backing registry.
func (r *Resolver) Registry() *convert.Registry {
	return r.registry
}

// Scalar returns the converter of a scalar field.
func (r *Resolver) Scalar(f Field) (convert.Scalar, error) {
	return r.scalar(f.Markers.Converter, f.Type, f.Key)
}

// Collection returns the converter of a collection field.
func (r *Resolver) Collection(f Field) (*convert.Collection, error) {
	m := f.Markers.Collection

	kind, err := r.collectionKind(m.Kind, f.Type)
	if err != nil {
		return nil, err
	}
	elem, err := r.scalar(m.Elem, convert.ElementType(f.Type), f.Key)
	if err != nil {
		return nil, err
	}
	return convert.NewCollection(f.Type, elem, m.Delimiter, kind), nil
}

// Map returns the converter of a map field.
func (r *Resolver) Map(f Field) (*convert.Map, error) {
	m := f.Markers.Map

	id := m.Kind
	if id == "" {
		id = convert.DefaultMapKind
	}
	kind, ok := r.registry.Map(id)
	if !ok {
		return nil, errors.Newf(errors.CodeNoConverter, "unknown map kind %q", id)
	}

	key, err := r.scalar(m.Key, f.Type.Key(), f.Key)
	if err != nil {
		return nil, err
	}
	value, err := r.scalar(m.Value, f.Type.Elem(), f.Key)
	if err != nil {
		return nil, err
	}
	return convert.NewMap(f.Type, key, value, m.EntryDelimiter, m.Separator, kind), nil
}

func (r *Resolver) collectionKind(id string, t reflect.Type) (convert.CollectionKind, error) {
	if id == "" {
		kind, ok := r.registry.DefaultCollection(t)
		if !ok {
			return kind, errors.Newf(errors.CodeNoConverter, "no collection kind accepts %s", t)
		}
		return kind, nil
	}

	kind, ok := r.registry.Collection(id)
	if !ok {
		return kind, errors.Newf(errors.CodeNoConverter, "unknown collection kind %q", id)
	}
	if !kind.Accepts(t) {
		return kind, errors.Newf(errors.CodeMarkerCompatibility, "collection kind %q does not accept %s", id, t)
	}
	return kind, nil
}

// scalar resolves one converter. Interface targets are converted as string.
func (r *Resolver) scalar(id string, t reflect.Type, name string) (convert.Scalar, error) {
	var (
		f  convert.Factory
		ok bool
	)
	if id != "" {
		if f, ok = r.registry.Factory(id); !ok {
			return nil, errors.Newf(errors.CodeNoConverter, "unknown converter %q", id)
		}
	} else {
		if t.Kind() == reflect.Interface {
			t = stringType
		}
		if f, ok = r.registry.Lookup(t); !ok {
			return nil, errors.Newf(errors.CodeNoConverter, "no converter found for %s", t)
		}
	}
	return f.New(name)
}
