// Package convert turns configuration strings into typed Go values.
//
// Overview:
//   - Responsibility: Scalar converters, the default-converter registry, and
//     the collection/map entry grammar
//   - Key Types: Scalar, Factory, Registry, Collection, Map
//   - Concurrency Model: Registry is immutable after construction; converters
//     built by factories are stateless
//   - Error Semantics: Every failure is a CONVERSION error carrying a Failure detail
//   - Performance Notes: Delimiter patterns are compiled per conversion
//
// Usage:
//
//	reg := convert.DefaultRegistry()
//	f, _ := reg.Lookup(reflect.TypeFor[int]())
//	c, _ := f.New("server.port")
//	v, err := c.Convert("8080") // int(8080)
package convert

import (
	"reflect"

	"go.eggybyte.com/bindx/core/errors"
)

// Scalar converts one string token into one typed value.
type Scalar interface {
	Convert(raw string) (any, error)
}

// Func adapts a plain function to the Scalar interface.
type Func func(raw string) (any, error)

// Convert calls f(raw).
func (f Func) Convert(raw string) (any, error) {
	return f(raw)
}

// Kind selects how a Factory constructs its converter.
type Kind int

const (
	// Plain converters take no arguments. User converters are Plain.
	Plain Kind = iota
	// Named converters receive the configuration name for diagnostics.
	Named
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Plain:
		return "plain"
	case Named:
		return "named"
	default:
		return "unknown"
	}
}

// Factory builds Scalar converters. The Kind tag decides which constructor
// is used; the registry never probes the constructors themselves.
type Factory struct {
	ID    string
	Kind  Kind
	Type  reflect.Type // type of the values produced
	Plain func() Scalar
	Named func(name string) Scalar
}

// New constructs a converter. name is the configuration name used in
// diagnostics and is ignored by Plain factories.
func (f Factory) New(name string) (Scalar, error) {
	switch {
	case f.Kind == Named && f.Named != nil:
		return f.Named(name), nil
	case f.Kind == Plain && f.Plain != nil:
		return f.Plain(), nil
	default:
		return nil, errors.Newf(errors.CodeInternal, "converter %q has no %s constructor", f.ID, f.Kind)
	}
}

// NewNamed declares a factory whose converters receive the configuration name.
func NewNamed(id string, typ reflect.Type, fn func(name string) Scalar) Factory {
	return Factory{ID: id, Kind: Named, Type: typ, Named: fn}
}

// NewPlain declares a factory whose converters are built without arguments.
func NewPlain(id string, typ reflect.Type, fn func() Scalar) Factory {
	return Factory{ID: id, Kind: Plain, Type: typ, Plain: fn}
}

// Parser declares a Named factory from a typed parse function. Parse
// failures are rewrapped into CONVERSION errors naming the configuration.
func Parser[T any](id string, parse func(raw string) (T, error)) Factory {
	typ := reflect.TypeFor[T]()
	return NewNamed(id, typ, func(name string) Scalar {
		return Func(func(raw string) (any, error) {
			v, err := parse(raw)
			if err != nil {
				return nil, Fail(name, typ, raw, err)
			}
			return v, nil
		})
	})
}

// Custom declares a Plain factory from a typed parse function.
func Custom[T any](id string, parse func(raw string) (T, error)) Factory {
	typ := reflect.TypeFor[T]()
	return NewPlain(id, typ, func() Scalar {
		return Func(func(raw string) (any, error) {
			v, err := parse(raw)
			if err != nil {
				return nil, Fail("", typ, raw, err)
			}
			return v, nil
		})
	})
}

// Failure is attached to every CONVERSION error.
type Failure struct {
	Name   string // configuration name, empty for Plain converters
	Target string // target type
	Raw    string // offending raw value
}

// Fail builds a CONVERSION error for raw failing to parse as target.
func Fail(name string, target reflect.Type, raw string, cause error) error {
	b := errors.Build(errors.CodeConversion).
		WithOp("convert").
		WithErr(cause).
		WithDetails(Failure{Name: name, Target: typeName(target), Raw: raw})
	if name != "" {
		b.WithMsgf("cannot convert %q of configuration %q to %s", raw, name, typeName(target))
	} else {
		b.WithMsgf("cannot convert %q to %s", raw, typeName(target))
	}
	return b.Err()
}

// Coerce adapts a converted value to t. nil becomes the zero value; values of
// a different named type with the same kind are converted.
func Coerce(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		if t.Kind() == reflect.Interface {
			out := reflect.New(t).Elem()
			out.Set(rv)
			return out, nil
		}
		return rv, nil
	}
	if rv.Kind() == t.Kind() && rv.Type().ConvertibleTo(t) {
		return rv.Convert(t), nil
	}
	return reflect.Value{}, errors.Newf(errors.CodeAssignment,
		"value of type %s is not assignable to %s", rv.Type(), t)
}

// conversionCode keeps the code of a structured cause and classifies plain
// errors from user converters as CONVERSION.
func conversionCode(err error) errors.Code {
	if code := errors.CodeOf(err); code != "" {
		return code
	}
	return errors.CodeConversion
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
