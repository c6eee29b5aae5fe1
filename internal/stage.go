package internal

import (
	"fmt"
	"reflect"

	"go.eggybyte.com/bindx/convert"
	"go.eggybyte.com/bindx/core/errors"
	"go.eggybyte.com/bindx/core/log"
	"go.eggybyte.com/bindx/source"
)

// Configurator binds configuration into a target.
type Configurator interface {
	Configure(target any) error
}

// FieldInfo identifies the field an error originates from.
type FieldInfo struct {
	Field string // Go identifier
	Type  string // declared type
	Owner string // declaring struct type
	Key   string // resolved configuration key, empty if resolution failed
	Raw   string // raw configuration value, empty if none was read
}

// Env holds the collaborators shared by the stages of one chain.
type Env struct {
	Planner  *Planner
	Resolver *Resolver
	Logger   log.Logger
	Metrics  *Metrics
}

// Stage processes the fields of one marker kind and hands the target on.
type Stage struct {
	kind Kind
	src  source.Source
	env  *Env
	next Configurator
}

// NewStage returns the stage for kind. Presence names the required-check
// stage. A nil next ends the chain.
func NewStage(kind Kind, src source.Source, env *Env, next Configurator) *Stage {
	if next == nil {
		next = NoOp{}
	}
	return &Stage{kind: kind, src: src, env: env, next: next}
}

// Configure binds the stage's fields of target, then calls the next stage.
// Fields bound before a failure keep their values.
func (s *Stage) Configure(target any) error {
	rv, plan, err := Prepare(target, s.src, s.env.Planner)
	if err != nil {
		return err
	}

	for _, f := range plan.Fields {
		if err := s.process(rv, f); err != nil {
			return err
		}
	}

	return s.next.Configure(target)
}

func (s *Stage) process(rv reflect.Value, f Field) error {
	if s.kind == Presence {
		if f.Markers.Required {
			if _, ok := s.src.Lookup(f.Key); !ok {
				return fieldError(f, errors.Newf(errors.CodeRequiredMissing, "required configuration %q is missing", f.Key))
			}
		}
		return nil
	}
	if f.Kind != s.kind {
		return nil
	}

	fv := rv.Field(f.Index)
	raw, ok := s.src.Lookup(f.Key)

	if f.Kind == Scalar && f.Markers.Flag {
		fv.SetBool(ok)
		s.bound(f)
		return nil
	}
	if !ok {
		return nil
	}

	c, err := s.converter(f)
	if err != nil {
		return fieldError(f, err)
	}
	v, err := c.Convert(raw)
	if err != nil {
		if errors.CodeOf(err) == "" {
			err = convert.Fail(f.Key, f.Type, raw, err)
		}
		return fieldErrorRaw(f, raw, err)
	}
	val, err := convert.Coerce(v, f.Type)
	if err != nil {
		return fieldErrorRaw(f, raw, err)
	}

	fv.Set(val)
	s.bound(f)
	return nil
}

func (s *Stage) converter(f Field) (convert.Scalar, error) {
	switch f.Kind {
	case Collection:
		return s.env.Resolver.Collection(f)
	case Map:
		return s.env.Resolver.Map(f)
	default:
		return s.env.Resolver.Scalar(f)
	}
}

func (s *Stage) bound(f Field) {
	s.env.Metrics.RecordBound(s.kind)
	s.env.Logger.Debug("field bound",
		log.Str("stage", s.kind.String()),
		log.Str("field", f.Name),
		log.Str("key", f.Key),
		log.Str("owner", f.Owner.String()),
	)
}

// NoOp ends a chain.
type NoOp struct{}

// Configure only rejects a nil target.
func (NoOp) Configure(target any) error {
	if target == nil {
		return errors.New(errors.CodeInvalidArgument, "target must not be nil")
	}
	return nil
}

// Prepare checks that target is a non-nil pointer to a struct and returns
// the struct value with its plan.
func Prepare(target any, src source.Source, planner *Planner) (reflect.Value, *Plan, error) {
	if target == nil {
		return reflect.Value{}, nil, errors.New(errors.CodeInvalidArgument, "target must not be nil")
	}
	if src == nil {
		return reflect.Value{}, nil, errors.New(errors.CodeInvalidArgument, "configuration source must not be nil")
	}

	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return reflect.Value{}, nil, errors.Newf(errors.CodeInvalidArgument, "target must be a non-nil pointer to a struct, got %T", target)
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return reflect.Value{}, nil, errors.Newf(errors.CodeInvalidArgument, "target must point to a struct, got %T", target)
	}

	plan, err := planner.Plan(rv.Type())
	if err != nil {
		return reflect.Value{}, nil, err
	}
	return rv, plan, nil
}

func fieldError(f Field, err error) error {
	return wrapField(f, FieldInfo{}, err)
}

func fieldErrorRaw(f Field, raw string, err error) error {
	return wrapField(f, FieldInfo{Raw: raw}, err)
}

// wrapField adds field context to err and keeps its code.
func wrapField(f Field, info FieldInfo, err error) error {
	info.Field = f.Name
	info.Type = typeString(f.Type)
	info.Owner = typeString(f.Owner)
	info.Key = f.Key

	code := errors.CodeOf(err)
	if code == "" {
		code = errors.CodeInternal
	}

	msg := fmt.Sprintf("field %s (%s) of %s", info.Field, info.Type, info.Owner)
	if info.Key != "" {
		msg += fmt.Sprintf(", key %q", info.Key)
	}

	return errors.Build(code).
		WithOp("bindx.configure").
		WithMsg(msg).
		WithErr(err).
		WithDetails(info).
		Err()
}

func typeString(t reflect.Type) string {
	if t == nil {
		return ""
	}
	return t.String()
}
