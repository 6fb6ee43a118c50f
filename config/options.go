package config

import (
	"github.com/spf13/cast"

	"github.com/kbukum/nodegraph/errors"
)

// Recognized option keys.
const (
	KeyLazy              = "lazy"
	KeyLazyInit          = "lazy_init"
	KeyBatchIter         = "batch_iter"
	KeyRaiseCustomErrors = "raise_custom_errors"
	KeyLogLevel          = "log_level"
	KeyOnInit            = "on_init"
	KeyTrace             = "trace"
)

// Batch combination strategies.
const (
	BatchZip     = "zip"
	BatchProduct = "product"
)

// Options is the typed view of a resolved chain.
type Options struct {
	Lazy              bool
	LazyInit          *bool
	BatchIter         string `validate:"oneof=zip product"`
	RaiseCustomErrors bool
	LogLevel          string `validate:"oneof=trace debug info warn error fatal disabled"`
	Trace             bool
	// OnInit holds whatever callback was configured; the node package asserts
	// its concrete type.
	OnInit any
}

// EagerInit reports whether a node must be evaluated right after construction.
// lazy_init wins over lazy when it is set.
func (o Options) EagerInit() bool {
	if o.LazyInit != nil {
		return !*o.LazyInit
	}
	return !o.Lazy
}

// Validate checks option values using struct tags.
func (o Options) Validate() error {
	return validateStruct(o)
}

// Resolve reads every recognized option through the chain and validates the
// result. Values are coerced so that strings coming from the environment
// ("false", "0") work.
func (c *Chain) Resolve() (Options, error) {
	opts := Options{
		Lazy:      true,
		BatchIter: BatchZip,
		LogLevel:  "info",
	}

	var err error
	if v, ok := c.Lookup(KeyLazy); ok {
		if opts.Lazy, err = cast.ToBoolE(v); err != nil {
			return opts, errors.InvalidOption(KeyLazy, v, err.Error())
		}
	}
	if v, ok := c.Lookup(KeyLazyInit); ok && v != nil {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return opts, errors.InvalidOption(KeyLazyInit, v, err.Error())
		}
		opts.LazyInit = &b
	}
	if v, ok := c.Lookup(KeyBatchIter); ok {
		if opts.BatchIter, err = cast.ToStringE(v); err != nil {
			return opts, errors.InvalidOption(KeyBatchIter, v, err.Error())
		}
	}
	if v, ok := c.Lookup(KeyRaiseCustomErrors); ok {
		if opts.RaiseCustomErrors, err = cast.ToBoolE(v); err != nil {
			return opts, errors.InvalidOption(KeyRaiseCustomErrors, v, err.Error())
		}
	}
	if v, ok := c.Lookup(KeyLogLevel); ok {
		if opts.LogLevel, err = cast.ToStringE(v); err != nil {
			return opts, errors.InvalidOption(KeyLogLevel, v, err.Error())
		}
	}
	if v, ok := c.Lookup(KeyTrace); ok {
		if opts.Trace, err = cast.ToBoolE(v); err != nil {
			return opts, errors.InvalidOption(KeyTrace, v, err.Error())
		}
	}
	if v, ok := c.Lookup(KeyOnInit); ok {
		opts.OnInit = v
	}

	return opts, opts.Validate()
}

// Bool resolves a single boolean option, returning def when it is absent or
// cannot be coerced.
func (c *Chain) Bool(key string, def bool) bool {
	v, ok := c.Lookup(key)
	if !ok {
		return def
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return def
	}
	return b
}

// String resolves a single string option, returning def when it is absent.
func (c *Chain) String(key, def string) string {
	v, ok := c.Lookup(key)
	if !ok {
		return def
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return def
	}
	return s
}
