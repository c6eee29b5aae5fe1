package bindx

import (
	"time"

	"go.eggybyte.com/bindx/core/errors"
	"go.eggybyte.com/bindx/internal"
	"go.eggybyte.com/bindx/source"
)

// Configurator binds configuration into target, which must be a non-nil
// pointer to a struct.
type Configurator interface {
	Configure(target any) error
}

// FieldInfo identifies the field a binding error originates from.
type FieldInfo = internal.FieldInfo

// FieldOf returns the field context attached to err.
func FieldOf(err error) (FieldInfo, bool) {
	return errors.DetailOf[FieldInfo](err)
}

// New returns the full chain: required check, scalar, collection and map
// stages. It is the recommended entry point.
func New(src source.Source, opts ...Option) Configurator {
	env, err := buildEnv(opts)
	if err != nil {
		return failed{err: err}
	}

	var head Configurator = internal.NoOp{}
	for _, kind := range []internal.Kind{internal.Map, internal.Collection, internal.Scalar, internal.Presence} {
		head = internal.NewStage(kind, src, env, head)
	}
	return &composite{head: head, env: env}
}

// NewRequiredConfigurator returns the stage failing on absent required keys.
func NewRequiredConfigurator(src source.Source, next Configurator, opts ...Option) Configurator {
	return newStage(internal.Presence, src, next, opts)
}

// NewScalarConfigurator returns the stage binding config-marked fields.
func NewScalarConfigurator(src source.Source, next Configurator, opts ...Option) Configurator {
	return newStage(internal.Scalar, src, next, opts)
}

// NewCollectionConfigurator returns the stage binding collection-marked fields.
func NewCollectionConfigurator(src source.Source, next Configurator, opts ...Option) Configurator {
	return newStage(internal.Collection, src, next, opts)
}

// NewMapConfigurator returns the stage binding map-marked fields.
func NewMapConfigurator(src source.Source, next Configurator, opts ...Option) Configurator {
	return newStage(internal.Map, src, next, opts)
}

// NoOp returns the configurator ending a chain.
func NoOp() Configurator {
	return internal.NoOp{}
}

func newStage(kind internal.Kind, src source.Source, next Configurator, opts []Option) Configurator {
	env, err := buildEnv(opts)
	if err != nil {
		return failed{err: err}
	}
	return internal.NewStage(kind, src, env, next)
}

// composite records metrics and failures around a chain.
type composite struct {
	head Configurator
	env  *internal.Env
}

func (c *composite) Configure(target any) error {
	start := time.Now()
	err := c.head.Configure(target)
	c.env.Metrics.RecordConfigure(start, err)
	if err != nil {
		c.env.Logger.Debug("configure failed", "error", err.Error(), "code", string(errors.CodeOf(err)))
	}
	return err
}

// failed reports an option error on every call.
type failed struct {
	err error
}

func (f failed) Configure(any) error {
	return f.err
}
