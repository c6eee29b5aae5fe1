package convert

import (
	"reflect"
	"regexp"

	"go.eggybyte.com/bindx/core/errors"
)

// MapKind names the strategy used to store map entries.
type MapKind struct {
	ID  string
	Put func(m, key, value reflect.Value)
}

// Built-in map kinds.
const (
	DefaultMapKind = "map"
	FirstWinsKind  = "first"
)

// Default entry grammar.
const (
	DefaultEntryDelimiter = ","
	DefaultSeparator      = "="
)

func builtinMaps() []MapKind {
	return []MapKind{
		{
			ID: DefaultMapKind,
			Put: func(m, key, value reflect.Value) {
				m.SetMapIndex(key, value)
			},
		},
		{
			ID: FirstWinsKind,
			Put: func(m, key, value reflect.Value) {
				if !m.MapIndex(key).IsValid() {
					m.SetMapIndex(key, value)
				}
			},
		},
	}
}

// Map splits a raw value into entries and every entry into key and value.
type Map struct {
	target         reflect.Type
	key            Scalar
	value          Scalar
	entryDelimiter string
	separator      string
	kind           MapKind
}

// NewMap returns a converter producing values of map type target.
func NewMap(target reflect.Type, key, value Scalar, entryDelimiter, separator string, kind MapKind) *Map {
	return &Map{
		target:         target,
		key:            key,
		value:          value,
		entryDelimiter: entryDelimiter,
		separator:      separator,
		kind:           kind,
	}
}

// Convert parses raw into a map. Every entry is split on the separator; the
// first segment is the key and the second the value, further segments are
// ignored ("a=b=c" yields {a: "b"}). Trailing empty segments are dropped, so
// an entry without a value ("k" or "k=") maps its key to the zero value of
// the value type (nil for pointers, interfaces, maps and slices) and the
// value converter is not called.
func (c *Map) Convert(raw string) (any, error) {
	entryRe, err := c.compile(c.entryDelimiter, raw)
	if err != nil {
		return nil, err
	}
	sepRe, err := c.compile(c.separator, raw)
	if err != nil {
		return nil, err
	}

	entries := entryRe.Split(raw, -1)
	keyType, valueType := c.target.Key(), c.target.Elem()
	m := reflect.MakeMapWithSize(c.target, len(entries))

	for _, entry := range entries {
		parts := splitEntry(sepRe, entry)

		k, err := c.key.Convert(parts[0])
		if err != nil {
			return nil, errors.Wrapf(conversionCode(err), "convert.map", err, "key of entry %q", entry)
		}
		kv, err := Coerce(k, keyType)
		if err != nil {
			return nil, errors.Wrapf(errors.CodeConversion, "convert.map", err, "key of entry %q", entry)
		}

		vv := reflect.Zero(valueType)
		if len(parts) > 1 {
			v, err := c.value.Convert(parts[1])
			if err != nil {
				return nil, errors.Wrapf(conversionCode(err), "convert.map", err, "value of entry %q", entry)
			}
			if vv, err = Coerce(v, valueType); err != nil {
				return nil, errors.Wrapf(errors.CodeConversion, "convert.map", err, "value of entry %q", entry)
			}
		}

		c.kind.Put(m, kv, vv)
	}

	return m.Interface(), nil
}

// splitEntry splits entry on every separator match and drops trailing empty
// segments. The result always holds at least the key.
func splitEntry(re *regexp.Regexp, entry string) []string {
	parts := re.Split(entry, -1)
	n := len(parts)
	for n > 1 && parts[n-1] == "" {
		n--
	}
	return parts[:n]
}

func (c *Map) compile(pattern, raw string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Build(errors.CodeConversion).
			WithOp("convert.map").
			WithMsgf("malformed delimiter %q", pattern).
			WithErr(err).
			WithDetails(Failure{Target: typeName(c.target), Raw: raw}).
			Err()
	}
	return re, nil
}
