package internal

import (
	"reflect"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"go.eggybyte.com/bindx/convert"
	"go.eggybyte.com/bindx/core/errors"
)

// Kind is the structural marker of a field.
type Kind int

const (
	// Presence marks a field that only carries the required marker. It
	// also names the required-check stage.
	Presence Kind = iota
	Scalar
	Collection
	Map
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Presence:
		return "required"
	case Scalar:
		return "scalar"
	case Collection:
		return "collection"
	case Map:
		return "map"
	default:
		return "unknown"
	}
}

// Scalar marker options.
const (
	OptionRequired = "required"
	OptionFlag     = "flag"
)

// CollectionMarker holds the options of a collection marker.
type CollectionMarker struct {
	Delimiter string `validate:"required"`
	Kind      string `validate:"omitempty,id"`
	Elem      string `validate:"omitempty,id"`
}

// MapMarker holds the options of a map marker.
type MapMarker struct {
	EntryDelimiter string `validate:"required"`
	Separator      string `validate:"required"`
	Kind           string `validate:"omitempty,id"`
	Key            string `validate:"omitempty,id"`
	Value          string `validate:"omitempty,id"`
}

// Markers is the parsed marker set of one field.
type Markers struct {
	Options    []string `validate:"dive,oneof=required flag"`
	Scalar     bool
	Required   bool
	Flag       bool
	Converter  string `validate:"omitempty,id"`
	Collection *CollectionMarker
	Map        *MapMarker
}

// Field describes one marked struct field.
type Field struct {
	Index   int
	Name    string       // Go identifier
	Type    reflect.Type // declared type
	Owner   reflect.Type // declaring struct type
	Key     string       // resolved configuration key
	Kind    Kind
	Markers Markers
}

// Plan lists the marked fields of one struct type in declaration order.
type Plan struct {
	Type   reflect.Type
	Fields []Field
}

// Planner builds and caches plans.
type Planner struct {
	tags   Tags
	strict bool
	cache  *lru.Cache[reflect.Type, *Plan]
}

// DefaultCacheSize bounds the number of cached plans.
const DefaultCacheSize = 256

// NewPlanner returns a planner reading markers from tags. In strict mode an
// exported field without any marker is rejected.
func NewPlanner(tags Tags, strict bool, cacheSize int) (*Planner, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[reflect.Type, *Plan](cacheSize)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInvalidArgument, "internal.NewPlanner", err)
	}
	return &Planner{tags: tags.withDefaults(), strict: strict, cache: cache}, nil
}

// Plan returns the plan for struct type t. Failed plans are not cached.
func (p *Planner) Plan(t reflect.Type) (*Plan, error) {
	if plan, ok := p.cache.Get(t); ok {
		return plan, nil
	}

	plan := &Plan{Type: t}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		f, marked, err := p.describe(t, i, sf)
		if err != nil {
			return nil, err
		}
		if !marked {
			continue
		}
		plan.Fields = append(plan.Fields, f)
	}

	p.cache.Add(t, plan)
	return plan, nil
}

// describe parses and validates the markers of one field.
func (p *Planner) describe(owner reflect.Type, index int, sf reflect.StructField) (Field, bool, error) {
	f := Field{Index: index, Name: sf.Name, Type: sf.Type, Owner: owner}
	markers, marked, err := p.parse(sf)
	if err != nil {
		return f, false, fieldError(f, err)
	}

	if !marked {
		if p.strict && sf.IsExported() {
			return f, false, fieldError(f, errors.New(errors.CodeMarkerCompatibility, "exported field carries no marker"))
		}
		return f, false, nil
	}
	if !sf.IsExported() {
		return f, false, fieldError(f, errors.New(errors.CodeMarkerCompatibility, "marker on unexported field"))
	}

	f.Markers = markers
	if f.Key, err = ResolveName(sf, p.tags); err != nil {
		return f, false, fieldError(f, err)
	}
	if f.Kind, err = structuralKind(markers); err != nil {
		return f, false, fieldError(f, err)
	}
	if err := checkShape(f); err != nil {
		return f, false, fieldError(f, err)
	}
	return f, true, nil
}

// parse reads the marker tags of sf. A field is marked when it carries a
// structural marker or the required marker.
func (p *Planner) parse(sf reflect.StructField) (Markers, bool, error) {
	var m Markers
	tag := sf.Tag

	if opts, ok := tag.Lookup(p.tags.Config); ok {
		m.Scalar = true
		for _, opt := range strings.Split(opts, ",") {
			if opt = strings.TrimSpace(opt); opt != "" {
				m.Options = append(m.Options, opt)
			}
		}
		for _, opt := range m.Options {
			switch opt {
			case OptionRequired:
				m.Required = true
			case OptionFlag:
				m.Flag = true
			}
		}
	}

	if delim, ok := tag.Lookup(p.tags.Collection); ok {
		m.Collection = &CollectionMarker{Delimiter: delim}
	}

	if entries, ok := tag.Lookup(p.tags.Map); ok {
		if entries == "" {
			entries = convert.DefaultEntryDelimiter
		}
		m.Map = &MapMarker{EntryDelimiter: entries, Separator: convert.DefaultSeparator}
		if sep, ok := tag.Lookup(p.tags.KVSep); ok {
			m.Map.Separator = sep
		}
	} else if _, ok := tag.Lookup(p.tags.KVSep); ok {
		return m, false, errors.Newf(errors.CodeMarkerCompatibility, "%q tag requires the %q marker", p.tags.KVSep, p.tags.Map)
	}

	if _, ok := tag.Lookup(p.tags.Required); ok {
		m.Required = true
	}

	conv := tag.Get(p.tags.Converter)
	elem := tag.Get(p.tags.Elem)
	key := tag.Get(p.tags.MapKey)
	value := tag.Get(p.tags.MapValue)

	switch {
	case m.Collection != nil:
		m.Collection.Kind, m.Collection.Elem = conv, elem
	case m.Map != nil:
		m.Map.Kind, m.Map.Key, m.Map.Value = conv, key, value
	default:
		m.Converter = conv
	}
	if elem != "" && m.Collection == nil {
		return m, false, errors.Newf(errors.CodeMarkerCompatibility, "%q tag requires the %q marker", p.tags.Elem, p.tags.Collection)
	}
	if (key != "" || value != "") && m.Map == nil {
		return m, false, errors.Newf(errors.CodeMarkerCompatibility, "%q and %q tags require the %q marker", p.tags.MapKey, p.tags.MapValue, p.tags.Map)
	}

	marked := m.Scalar || m.Collection != nil || m.Map != nil || m.Required
	if !marked {
		if conv != "" {
			return m, false, errors.Newf(errors.CodeMarkerCompatibility, "%q tag without a structural marker", p.tags.Converter)
		}
		return m, false, nil
	}

	if err := validateMarkers(&m); err != nil {
		return m, false, err
	}
	return m, true, nil
}

func structuralKind(m Markers) (Kind, error) {
	n := 0
	kind := Presence
	if m.Scalar {
		n++
		kind = Scalar
	}
	if m.Collection != nil {
		n++
		kind = Collection
	}
	if m.Map != nil {
		n++
		kind = Map
	}
	if n > 1 {
		return kind, errors.New(errors.CodeMarkerCompatibility, "field carries more than one structural marker")
	}
	return kind, nil
}

func checkShape(f Field) error {
	switch f.Kind {
	case Scalar:
		if f.Markers.Flag && f.Type.Kind() != reflect.Bool {
			return errors.Newf(errors.CodeMarkerCompatibility, "flag marker on non-boolean type %s", f.Type)
		}
	case Collection:
		if !convert.IsCollectionShape(f.Type) {
			return errors.Newf(errors.CodeMarkerCompatibility, "collection marker on non-collection type %s", f.Type)
		}
	case Map:
		if f.Type.Kind() != reflect.Map {
			return errors.Newf(errors.CodeMarkerCompatibility, "map marker on non-map type %s", f.Type)
		}
	}
	return nil
}
