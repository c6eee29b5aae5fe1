package convert

import (
	"reflect"
	"regexp"

	"go.eggybyte.com/bindx/core/errors"
)

// Accumulator collects converted elements into a container value.
type Accumulator interface {
	Add(v reflect.Value)
	Value() reflect.Value
}

// CollectionKind names a container strategy for collection fields.
type CollectionKind struct {
	ID      string
	Accepts func(t reflect.Type) bool
	New     func(t reflect.Type, size int) Accumulator
}

// Built-in collection kinds.
const (
	ListKind   = "list"
	SetKind    = "set"
	UniqueKind = "unique"
)

// IsSetShape reports whether t is a map used as a set: map[T]struct{} or map[T]bool.
func IsSetShape(t reflect.Type) bool {
	if t.Kind() != reflect.Map {
		return false
	}
	v := t.Elem()
	return v.Kind() == reflect.Bool || (v.Kind() == reflect.Struct && v.NumField() == 0)
}

// IsCollectionShape reports whether t can hold a collection.
func IsCollectionShape(t reflect.Type) bool {
	return t.Kind() == reflect.Slice || IsSetShape(t)
}

// ElementType returns the element type of a collection-shaped type.
func ElementType(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Map {
		return t.Key()
	}
	return t.Elem()
}

type listAccumulator struct {
	v reflect.Value
}

func (a *listAccumulator) Add(v reflect.Value)  { a.v = reflect.Append(a.v, v) }
func (a *listAccumulator) Value() reflect.Value { return a.v }

type setAccumulator struct {
	v      reflect.Value
	member reflect.Value
}

func (a *setAccumulator) Add(v reflect.Value)  { a.v.SetMapIndex(v, a.member) }
func (a *setAccumulator) Value() reflect.Value { return a.v }

type uniqueAccumulator struct {
	v    reflect.Value
	seen map[any]struct{}
}

func (a *uniqueAccumulator) Add(v reflect.Value) {
	if v.Comparable() {
		key := v.Interface()
		if _, dup := a.seen[key]; dup {
			return
		}
		a.seen[key] = struct{}{}
	}
	a.v = reflect.Append(a.v, v)
}

func (a *uniqueAccumulator) Value() reflect.Value { return a.v }

func isSlice(t reflect.Type) bool {
	return t.Kind() == reflect.Slice
}

func builtinCollections() []CollectionKind {
	return []CollectionKind{
		{
			ID:      ListKind,
			Accepts: isSlice,
			New: func(t reflect.Type, size int) Accumulator {
				return &listAccumulator{v: reflect.MakeSlice(t, 0, size)}
			},
		},
		{
			ID:      SetKind,
			Accepts: IsSetShape,
			New: func(t reflect.Type, size int) Accumulator {
				member := reflect.New(t.Elem()).Elem()
				if member.Kind() == reflect.Bool {
					member.SetBool(true)
				}
				return &setAccumulator{v: reflect.MakeMapWithSize(t, size), member: member}
			},
		},
		{
			ID:      UniqueKind,
			Accepts: isSlice,
			New: func(t reflect.Type, size int) Accumulator {
				return &uniqueAccumulator{v: reflect.MakeSlice(t, 0, size), seen: make(map[any]struct{}, size)}
			},
		},
	}
}

// Collection splits a raw value on a delimiter pattern and converts every
// token with the element converter.
type Collection struct {
	target    reflect.Type
	elem      Scalar
	delimiter string
	kind      CollectionKind
}

// NewCollection returns a converter producing values of type target.
func NewCollection(target reflect.Type, elem Scalar, delimiter string, kind CollectionKind) *Collection {
	return &Collection{
		target:    target,
		elem:      elem,
		delimiter: delimiter,
		kind:      kind,
	}
}

// Convert splits raw and accumulates the converted tokens. Empty tokens are
// kept and converted like any other. The first failing element aborts.
func (c *Collection) Convert(raw string) (any, error) {
	re, err := regexp.Compile(c.delimiter)
	if err != nil {
		return nil, errors.Build(errors.CodeConversion).
			WithOp("convert.collection").
			WithMsgf("malformed delimiter %q", c.delimiter).
			WithErr(err).
			WithDetails(Failure{Target: typeName(c.target), Raw: raw}).
			Err()
	}

	tokens := re.Split(raw, -1)
	elemType := ElementType(c.target)
	acc := c.kind.New(c.target, len(tokens))

	for i, token := range tokens {
		v, err := c.elem.Convert(token)
		if err != nil {
			return nil, errors.Wrapf(conversionCode(err), "convert.collection", err, "element %d", i)
		}
		rv, err := Coerce(v, elemType)
		if err != nil {
			return nil, errors.Wrapf(errors.CodeConversion, "convert.collection", err, "element %d", i)
		}
		acc.Add(rv)
	}

	return acc.Value().Interface(), nil
}
