package main

import (
	"fmt"
	"io"
	"reflect"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"go.eggybyte.com/bindx/convert"
	"go.eggybyte.com/bindx/core/errors"
	"go.eggybyte.com/bindx/internal"
)

var stringType = reflect.TypeFor[string]()

// convertFlags mirrors the field markers: one of --converter, --collection
// or --map selects the shape.
type convertFlags struct {
	converter  string
	collection string
	elem       string
	entries    string
	separator  string
	key        string
	value      string
	kind       string
}

// conversion is the printed result of the convert command.
type conversion struct {
	Key   string `json:"key"`
	Raw   string `json:"raw"`
	Type  string `json:"type"`
	Value any    `json:"value"`
}

func newConvertCmd(flags *sourceFlags) *cobra.Command {
	cf := &convertFlags{}

	cmd := &cobra.Command{
		Use:   "convert KEY",
		Short: "Convert the value of one key with the default converter registry",
		Long: `convert runs the same converters a bound field would use on the raw
value of KEY. The result type follows the converter ids: --converter for a
scalar (default string), --elem for collection elements, --key and --value
for map entries.`,
		Example: `  bindx convert server.port --converter int -f app.yaml
  bindx convert admins --collection '\s*,\s*' --kind unique -f app.yaml
  bindx convert limits --map , --kvsep = --value int -f app.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := flags.load(cmd)
			if err != nil {
				return err
			}
			raw, ok := m.Lookup(args[0])
			if !ok {
				return errors.Newf(errors.CodeRequiredMissing, "key %q is not set", args[0])
			}

			result, err := cf.run(convert.DefaultRegistry(), cmd.Flags(), args[0], raw)
			if err != nil {
				return err
			}
			return flags.print(cmd.OutOrStdout(), result, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%v (%s)\n", result.Value, result.Type)
				return err
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&cf.converter, "converter", "", "scalar converter id")
	f.StringVar(&cf.collection, "collection", "", "collection delimiter pattern")
	f.StringVar(&cf.elem, "elem", "", "collection element converter id")
	f.StringVar(&cf.entries, "map", "", "map entry delimiter pattern (empty means \",\")")
	f.StringVar(&cf.separator, "kvsep", convert.DefaultSeparator, "map key/value separator pattern")
	f.StringVar(&cf.key, "key", "", "map key converter id")
	f.StringVar(&cf.value, "value", "", "map value converter id")
	f.StringVar(&cf.kind, "kind", "", "container kind: list, set, unique, map or first")
	cmd.MarkFlagsMutuallyExclusive("converter", "collection", "map")
	return cmd
}

func (c *convertFlags) run(reg *convert.Registry, fs *pflag.FlagSet, key, raw string) (conversion, error) {
	f, err := c.field(reg, fs, key)
	if err != nil {
		return conversion{}, err
	}

	r := internal.NewResolver(reg)
	var conv convert.Scalar
	switch f.Kind {
	case internal.Collection:
		conv, err = r.Collection(f)
	case internal.Map:
		conv, err = r.Map(f)
	default:
		conv, err = r.Scalar(f)
	}
	if err != nil {
		return conversion{}, err
	}

	v, err := conv.Convert(raw)
	if err != nil {
		return conversion{}, err
	}
	return conversion{Key: key, Raw: raw, Type: f.Type.String(), Value: v}, nil
}

// field describes a synthetic field of the shape selected by the flags.
func (c *convertFlags) field(reg *convert.Registry, fs *pflag.FlagSet, key string) (internal.Field, error) {
	f := internal.Field{Name: key, Key: key}

	switch {
	case fs.Changed("collection"):
		elem, err := factoryType(reg, c.elem)
		if err != nil {
			return f, err
		}
		f.Kind = internal.Collection
		f.Type = reflect.SliceOf(elem)
		if c.kind == convert.SetKind {
			if !elem.Comparable() {
				return f, errors.Newf(errors.CodeMarkerCompatibility, "set elements of type %s are not comparable", elem)
			}
			f.Type = reflect.MapOf(elem, reflect.TypeFor[struct{}]())
		}
		f.Markers.Collection = &internal.CollectionMarker{Delimiter: c.collection, Kind: c.kind, Elem: c.elem}

	case fs.Changed("map"):
		k, err := factoryType(reg, c.key)
		if err != nil {
			return f, err
		}
		v, err := factoryType(reg, c.value)
		if err != nil {
			return f, err
		}
		if !k.Comparable() {
			return f, errors.Newf(errors.CodeMarkerCompatibility, "map keys of type %s are not comparable", k)
		}
		entries := c.entries
		if entries == "" {
			entries = convert.DefaultEntryDelimiter
		}
		f.Kind = internal.Map
		f.Type = reflect.MapOf(k, v)
		f.Markers.Map = &internal.MapMarker{EntryDelimiter: entries, Separator: c.separator, Kind: c.kind, Key: c.key, Value: c.value}

	default:
		t, err := factoryType(reg, c.converter)
		if err != nil {
			return f, err
		}
		f.Kind = internal.Scalar
		f.Type = t
		f.Markers.Converter = c.converter
	}
	return f, nil
}

// factoryType returns the result type of converter id; empty means string.
func factoryType(reg *convert.Registry, id string) (reflect.Type, error) {
	if id == "" {
		return stringType, nil
	}
	factory, ok := reg.Factory(id)
	if !ok {
		return nil, errors.Newf(errors.CodeNoConverter, "unknown converter %q", id)
	}
	return factory.Type, nil
}
