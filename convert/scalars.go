package convert

import (
	"encoding"
	"fmt"
	"math/big"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xhit/go-str2duration/v2"
)

// Path is an opaque file-system path. The raw string is kept as written.
type Path string

// String returns the path as written.
func (p Path) String() string {
	return string(p)
}

// Abs returns the absolute form of the path.
func (p Path) Abs() (Path, error) {
	abs, err := filepath.Abs(string(p))
	if err != nil {
		return "", err
	}
	return Path(abs), nil
}

// Join appends elements to the path.
func (p Path) Join(elem ...string) Path {
	return Path(filepath.Join(append([]string{string(p)}, elem...)...))
}

type signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

type unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

func signedParser[T signed](id string, bits int) Factory {
	return Parser(id, func(raw string) (T, error) {
		v, err := strconv.ParseInt(raw, 10, bits)
		return T(v), err
	})
}

func unsignedParser[T unsigned](id string, bits int) Factory {
	return Parser(id, func(raw string) (T, error) {
		v, err := strconv.ParseUint(raw, 10, bits)
		return T(v), err
	})
}

func parseFloat32(raw string) (float32, error) {
	v, err := strconv.ParseFloat(raw, 32)
	return float32(v), err
}

func parseFloat64(raw string) (float64, error) {
	return strconv.ParseFloat(raw, 64)
}

func parseString(raw string) (string, error) {
	return raw, nil
}

func parseBigInt(raw string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer literal")
	}
	return v, nil
}

func parsePath(raw string) (Path, error) {
	return Path(raw), nil
}

func parseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" {
		return nil, fmt.Errorf("missing scheme")
	}
	return u, nil
}

func parseHex(raw string) (int64, error) {
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "0x"), "0X")
	return strconv.ParseInt(raw, 16, 64)
}

func parseOctal(raw string) (os.FileMode, error) {
	v, err := strconv.ParseUint(raw, 8, 32)
	return os.FileMode(v), err
}

// builtinScalars returns the built-in factories. Named ones back the default
// table; Plain ones are only reachable through an explicit converter id.
func builtinScalars() []Factory {
	return []Factory{
		signedParser[int]("int", 0),
		signedParser[int8]("int8", 8),
		signedParser[int16]("int16", 16),
		signedParser[int32]("int32", 32),
		signedParser[int64]("int64", 64),
		unsignedParser[uint]("uint", 0),
		unsignedParser[uint8]("uint8", 8),
		unsignedParser[uint16]("uint16", 16),
		unsignedParser[uint32]("uint32", 32),
		unsignedParser[uint64]("uint64", 64),
		Parser("float32", parseFloat32),
		Parser("float64", parseFloat64),
		Parser("bool", strconv.ParseBool),
		Parser("string", parseString),
		Parser("bigint", parseBigInt),
		Parser("decimal", decimal.NewFromString),
		Parser("path", parsePath),
		Parser("url", parseURL),
		Parser("duration", str2duration.ParseDuration),

		Custom("trim", func(raw string) (string, error) { return strings.TrimSpace(raw), nil }),
		Custom("lower", func(raw string) (string, error) { return strings.ToLower(raw), nil }),
		Custom("upper", func(raw string) (string, error) { return strings.ToUpper(raw), nil }),
		Custom("hex", parseHex),
		Custom("octal", parseOctal),
	}
}

// builtinDefaults maps target types to the id of their default converter.
func builtinDefaults() map[reflect.Type]string {
	return map[reflect.Type]string{
		reflect.TypeFor[int]():             "int",
		reflect.TypeFor[int8]():            "int8",
		reflect.TypeFor[int16]():           "int16",
		reflect.TypeFor[int32]():           "int32",
		reflect.TypeFor[int64]():           "int64",
		reflect.TypeFor[uint]():            "uint",
		reflect.TypeFor[uint8]():           "uint8",
		reflect.TypeFor[uint16]():          "uint16",
		reflect.TypeFor[uint32]():          "uint32",
		reflect.TypeFor[uint64]():          "uint64",
		reflect.TypeFor[float32]():         "float32",
		reflect.TypeFor[float64]():         "float64",
		reflect.TypeFor[bool]():            "bool",
		reflect.TypeFor[string]():          "string",
		reflect.TypeFor[*big.Int]():        "bigint",
		reflect.TypeFor[decimal.Decimal](): "decimal",
		reflect.TypeFor[Path]():            "path",
		reflect.TypeFor[*url.URL]():        "url",
		reflect.TypeFor[time.Duration]():   "duration",
	}
}

var textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()

// textFactory returns a Named factory for types whose pointer implements
// encoding.TextUnmarshaler. Pointer types are allocated and returned as is.
func textFactory(t reflect.Type) (Factory, bool) {
	var alloc func() (target reflect.Value, result reflect.Value)
	switch {
	case t.Kind() == reflect.Pointer && t.Implements(textUnmarshalerType):
		alloc = func() (reflect.Value, reflect.Value) {
			p := reflect.New(t.Elem())
			return p, p
		}
	case t.Kind() != reflect.Interface && reflect.PointerTo(t).Implements(textUnmarshalerType):
		alloc = func() (reflect.Value, reflect.Value) {
			p := reflect.New(t)
			return p, p.Elem()
		}
	default:
		return Factory{}, false
	}

	return NewNamed("text:"+t.String(), t, func(name string) Scalar {
		return Func(func(raw string) (any, error) {
			target, result := alloc()
			if err := target.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw)); err != nil {
				return nil, Fail(name, t, raw, err)
			}
			return result.Interface(), nil
		})
	}), true
}
