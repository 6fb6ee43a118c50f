package node

import (
	"github.com/kbukum/nodegraph/config"
)

// Func is the computation a kind runs. It must be pure: the result may only
// depend on the bound values.
type Func func(c *Call) (any, error)

type behaviour int

const (
	behaviourDefault behaviour = iota
	behaviourConditional
	behaviourBatch
)

// Kind describes a family of nodes sharing a signature, a computation and
// option defaults.
type Kind struct {
	name      string
	sig       Signature
	fn        Func
	overrides *config.Overrides
	parent    *Kind
	behaviour behaviour
	varPos    string
	varKw     string
}

// KindOption configures a Kind.
type KindOption func(*Kind)

// WithParent makes k inherit option defaults from parent and match it in Is.
func WithParent(parent *Kind) KindOption {
	return func(k *Kind) { k.parent = parent }
}

// WithKindOptions sets kind-level option defaults.
func WithKindOptions(l config.Layer) KindOption {
	return func(k *Kind) { k.overrides = config.NewOverrides(l) }
}

func withBehaviour(b behaviour) KindOption {
	return func(k *Kind) { k.behaviour = b }
}

// NewKind creates an unregistered kind. The signature is validated.
func NewKind(name string, sig Signature, fn Func, opts ...KindOption) (*Kind, error) {
	if err := sig.Validate(name); err != nil {
		return nil, err
	}
	k := &Kind{
		name:      name,
		sig:       append(Signature(nil), sig...),
		fn:        fn,
		overrides: config.NewOverrides(nil),
	}
	for _, opt := range opts {
		opt(k)
	}
	k.varPos = k.sig.slot(ParamVarPositional)
	k.varKw = k.sig.slot(ParamVarKeyword)
	return k, nil
}

// Define creates a kind and registers it in the default registry.
func Define(name string, sig Signature, fn Func, opts ...KindOption) (*Kind, error) {
	return DefaultRegistry().Define(name, sig, fn, opts...)
}

// MustDefine is like Define but panics on error. Intended for package-level
// kind declarations.
func MustDefine(name string, sig Signature, fn Func, opts ...KindOption) *Kind {
	k, err := Define(name, sig, fn, opts...)
	if err != nil {
		panic(err)
	}
	return k
}

// Name returns the kind name.
func (k *Kind) Name() string { return k.name }

// Signature returns a copy of the declared parameters.
func (k *Kind) Signature() Signature { return append(Signature(nil), k.sig...) }

// Parent returns the parent kind, or nil.
func (k *Kind) Parent() *Kind { return k.parent }

// Is reports whether k is other or derives from it.
func (k *Kind) Is(other *Kind) bool {
	for c := k; c != nil; c = c.parent {
		if c == other {
			return true
		}
	}
	return false
}

// SetOption changes a kind-level option default. Existing nodes observe the
// change on their next lookup.
func (k *Kind) SetOption(key string, value any) { k.overrides.Set(key, value) }

// Options returns the kind-level overrides (not including parents).
func (k *Kind) Options() config.Layer { return k.overrides.Snapshot() }

// chain builds the lookup chain below a node: this kind, its parents, then
// the scope defaults.
func (k *Kind) chain(defaults config.Source) *config.Chain {
	var sources []config.Source
	for c := k; c != nil; c = c.parent {
		sources = append(sources, c.overrides)
	}
	sources = append(sources, defaults)
	return config.NewChain(sources...)
}

func (k *Kind) String() string { return k.name + k.sig.String() }
