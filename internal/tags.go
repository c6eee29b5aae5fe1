// Package internal provides the binding machinery behind bindx.
//
// Overview:
//   - Responsibility: Discover marked fields, resolve keys and converters,
//     and run the configurator stages
//   - Key Types: Tags, Field, Plan, Planner, Resolver, Stage, Metrics
//   - Concurrency Model: Planner and Resolver are safe for concurrent use;
//     a Stage writes only to the target it is given
//   - Error Semantics: Every failure is an *errors.E carrying a FieldInfo
//     detail when a field is involved
//   - Performance Notes: Plans are built once per struct type and cached in
//     an LRU; converters are resolved per bound field
package internal

// Tags names the struct tag keys that carry markers.
type Tags struct {
	Config     string // scalar marker: "[required][,flag]"
	Collection string // collection marker: delimiter pattern
	Map        string // map marker: entry delimiter pattern
	KVSep      string // map key/value separator pattern
	Required   string // presence-only marker
	Name       string // key override
	Converter  string // scalar converter id, or container kind id for collections and maps
	Elem       string // collection element converter id
	MapKey     string // map key converter id
	MapValue   string // map value converter id
}

// DefaultTags returns the default tag keys.
func DefaultTags() Tags {
	return Tags{
		Config:     "config",
		Collection: "collection",
		Map:        "map",
		KVSep:      "kvsep",
		Required:   "required",
		Name:       "name",
		Converter:  "converter",
		Elem:       "elem",
		MapKey:     "mapkey",
		MapValue:   "mapvalue",
	}
}

// withDefaults fills empty keys from DefaultTags.
func (t Tags) withDefaults() Tags {
	d := DefaultTags()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&t.Config, d.Config)
	fill(&t.Collection, d.Collection)
	fill(&t.Map, d.Map)
	fill(&t.KVSep, d.KVSep)
	fill(&t.Required, d.Required)
	fill(&t.Name, d.Name)
	fill(&t.Converter, d.Converter)
	fill(&t.Elem, d.Elem)
	fill(&t.MapKey, d.MapKey)
	fill(&t.MapValue, d.MapValue)
	return t
}
