// Package bindx binds flat string configuration into tagged struct fields.
//
// Overview:
//   - Responsibility: Populate marked fields of a struct from a source.Source
//     by key lookup, string conversion and required/flag checks
//   - Key Types: Configurator, Option, Tags, FieldInfo
//   - Concurrency Model: A Configurator is safe for concurrent use on distinct
//     targets; binding one target is a single synchronous pass
//   - Error Semantics: Failures are *errors.E with one of the binding codes;
//     FieldOf extracts the offending field
//   - Performance Notes: Field plans are cached per struct type
//
// Markers are struct tags:
//
//	type Server struct {
//	    Host    string            `config:"required" name:"webServer.host"`
//	    Port    int               `config:""`
//	    Debug   bool              `config:"flag"`
//	    Admins  []string          `collection:","`
//	    Limits  map[string]int    `map:"," kvsep:"="`
//	    Timeout time.Duration     `config:"" converter:"duration"`
//	}
//
// A field carries at most one structural marker (config, collection or
// map). The required and name tags combine with any of them. Unmarked fields
// are ignored unless WithStrict is set.
//
// Stages run in a fixed order: required check, scalar, collection, map. All
// required keys are therefore checked before any field is assigned. A later
// failure does not roll back fields that were already assigned.
//
// Usage:
//
//	src, err := source.Load(ctx, []source.Loader{source.Env(source.EnvOptions{})})
//	if err != nil {
//	    return err
//	}
//	var cfg Server
//	if err := bindx.New(src, bindx.WithLogger(logger)).Configure(&cfg); err != nil {
//	    if info, ok := bindx.FieldOf(err); ok {
//	        logger.Error(err, "bad configuration", "field", info.Field, "key", info.Key)
//	    }
//	    return err
//	}
package bindx
