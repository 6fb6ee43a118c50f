package node

import (
	"context"
	"fmt"
	"time"
	"weak"

	"github.com/google/uuid"

	"github.com/kbukum/nodegraph/config"
	"github.com/kbukum/nodegraph/errors"
	"github.com/kbukum/nodegraph/logger"
)

// Node is a computation unit with bound inputs, a memoized output and
// dependency edges. Nodes are compared by identity.
type Node struct {
	id        uuid.UUID
	kind      *Kind
	scope     *Scope
	overrides *config.Overrides
	chain     *config.Chain

	inputs        map[string]any
	snapshot      map[string]any
	batches       map[*Node]int
	output        any
	hasOutput     bool
	stale         bool
	errored       bool
	err           error
	updates       int
	prevBatchIter string

	inbound  map[string]*Node
	outbound []weak.Pointer[Node]

	capture *logger.Capture
	baseLog *logger.Logger
	log     *logger.Logger

	// relevantUpdate is only meaningful for conditional nodes while an
	// input update is being applied.
	relevantUpdate bool
}

// Option configures node construction.
type Option func(*constructOptions)

type constructOptions struct {
	scope     *Scope
	overrides config.Layer
}

// WithScope places the node in s instead of the scope of its inputs.
func WithScope(s *Scope) Option {
	return func(o *constructOptions) { o.scope = s }
}

// WithOverrides sets instance-level option overrides.
func WithOverrides(l config.Layer) Option {
	return func(o *constructOptions) {
		if o.overrides == nil {
			o.overrides = make(config.Layer, len(l))
		}
		for k, v := range l {
			o.overrides[k] = v
		}
	}
}

// WithOption sets a single instance-level option override.
func WithOption(key string, value any) Option {
	return WithOverrides(config.Layer{key: value})
}

type keyword struct {
	name  string
	value any
}

// Kw marks a keyword argument for Kind.New.
func Kw(name string, value any) any { return keyword{name: name, value: value} }

// New constructs a node. Arguments created with Kw bind by name, Option
// values configure the node, and everything else binds positionally.
func (k *Kind) New(args ...any) (*Node, error) {
	var (
		positional []any
		kwargs     = make(map[string]any)
		opts       []Option
	)
	for _, a := range args {
		switch v := a.(type) {
		case keyword:
			if _, dup := kwargs[v.name]; dup {
				return nil, errors.InputBinding(k.name, fmt.Sprintf("keyword argument %q repeated", v.name))
			}
			kwargs[v.name] = v.value
		case Option:
			opts = append(opts, v)
		default:
			positional = append(positional, a)
		}
	}
	return k.Construct(positional, kwargs, opts...)
}

// Construct binds args and kwargs to the kind's signature and wires the new
// node to every node-valued input. Binding failures return a nil node. When
// the resolved options ask for eager initialisation the node is evaluated
// immediately; an evaluation failure is returned together with the node.
func (k *Kind) Construct(args []any, kwargs map[string]any, opts ...Option) (*Node, error) {
	var co constructOptions
	for _, opt := range opts {
		opt(&co)
	}
	scope := co.scope
	if scope == nil {
		scope = scopeOf(args, kwargs)
	}

	scope.mu.Lock()
	n, err := k.construct(context.Background(), scope, args, kwargs, co.overrides)
	var onInit func(*Node)
	if n != nil {
		onInit = n.onInit()
	}
	scope.mu.Unlock()

	if onInit != nil {
		onInit(n)
	}
	return n, err
}

// Must panics if err is not nil and returns n otherwise.
func Must(n *Node, err error) *Node {
	if err != nil {
		panic(err)
	}
	return n
}

func scopeOf(args []any, kwargs map[string]any) *Scope {
	for _, a := range args {
		if n, ok := a.(*Node); ok && n != nil {
			return n.scope
		}
	}
	for _, name := range sortedKeys(kwargs) {
		if n, ok := kwargs[name].(*Node); ok && n != nil {
			return n.scope
		}
	}
	return DefaultScope()
}

// construct runs with the scope locked.
func (k *Kind) construct(ctx context.Context, scope *Scope, args []any, kwargs map[string]any, overrides config.Layer) (*Node, error) {
	bound, err := k.sig.bind(k.name, args, kwargs)
	if err != nil {
		return nil, err
	}

	n := &Node{
		id:        uuid.New(),
		kind:      k,
		scope:     scope,
		overrides: config.NewOverrides(overrides),
		inputs:    bound,
		snapshot:  map[string]any{},
		inbound:   map[string]*Node{},
		stale:     true,
		capture:   logger.NewCapture(),
	}
	n.chain = k.chain(scope.defaults).Child(n.overrides)
	n.baseLog = logger.NewCaptured(n.capture, "trace", k.name).WithFields(logger.Fields(logger.FieldNode, n.id.String()))
	n.log = n.baseLog.WithLevel(n.chain.String(config.KeyLogLevel, "info"))

	if err := n.checkInputs(bound); err != nil {
		return nil, err
	}
	n.rewire()

	opts, err := n.chain.Resolve()
	if err != nil {
		return n, err
	}
	if opts.EagerInit() {
		if _, err := n.get(ctx); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (n *Node) onInit() func(*Node) {
	v, ok := n.chain.Lookup(config.KeyOnInit)
	if !ok || v == nil {
		return nil
	}
	fn, ok := v.(func(*Node))
	if !ok {
		logger.Get("node").Warn("ignoring on_init with unsupported type", logger.Fields(
			logger.FieldKind, n.kind.name,
			"type", fmt.Sprintf("%T", v),
		))
		return nil
	}
	return fn
}

// checkInputs verifies that every node-valued input lives in the node's scope.
func (n *Node) checkInputs(inputs map[string]any) error {
	var err error
	n.eachInput(inputs, func(key string, v any) {
		u, ok := v.(*Node)
		if !ok || err != nil {
			return
		}
		switch {
		case u == nil:
			err = errors.InputBinding(n.kind.name, fmt.Sprintf("%q is a nil node", key))
		case u.scope != n.scope:
			err = errors.ScopeMismatch(n.kind.name, key)
		}
	})
	return err
}

// ID returns the node's unique identifier.
func (n *Node) ID() string { return n.id.String() }

// Kind returns the node's kind.
func (n *Node) Kind() *Kind { return n.kind }

// Scope returns the scope owning the node.
func (n *Node) Scope() *Scope { return n.scope }

func (n *Node) String() string {
	return fmt.Sprintf("%s<%s>", n.kind.name, n.id.String()[:8])
}

// Output returns the cached output and whether one exists.
func (n *Node) Output() (any, bool) {
	n.scope.mu.Lock()
	defer n.scope.mu.Unlock()
	return n.output, n.hasOutput
}

// Stale reports whether the node was invalidated since its last evaluation.
func (n *Node) Stale() bool {
	n.scope.mu.Lock()
	defer n.scope.mu.Unlock()
	return n.stale
}

// Errored reports whether the last evaluation of this node failed.
func (n *Node) Errored() bool {
	n.scope.mu.Lock()
	defer n.scope.mu.Unlock()
	return n.errored
}

// Err returns the *CalculationError of the last failed evaluation, or nil.
func (n *Node) Err() error {
	n.scope.mu.Lock()
	defer n.scope.mu.Unlock()
	return n.err
}

// Updates returns how many times the output was recomputed.
func (n *Node) Updates() int {
	n.scope.mu.Lock()
	defer n.scope.mu.Unlock()
	return n.updates
}

// Logs returns everything the node logged so far.
func (n *Node) Logs() string { return n.capture.String() }

// LastLog returns when the node last logged, or the zero time.
func (n *Node) LastLog() time.Time { return n.capture.LastWrite() }

// Outputs returns the live downstream nodes.
func (n *Node) Outputs() []*Node {
	n.scope.mu.Lock()
	defer n.scope.mu.Unlock()
	return n.liveOutputs()
}

// InputNodes returns the inbound edges keyed by input key.
func (n *Node) InputNodes() map[string]*Node {
	n.scope.mu.Lock()
	defer n.scope.mu.Unlock()
	out := make(map[string]*Node, len(n.inbound))
	for k, u := range n.inbound {
		out[k] = u
	}
	return out
}

// SetOption sets an instance-level option override.
func (n *Node) SetOption(key string, value any) { n.overrides.Set(key, value) }

// Options resolves the node's options through its chain.
func (n *Node) Options() (config.Options, error) { return n.chain.Resolve() }

// IsBatch reports whether the node is a batch marker.
func (n *Node) IsBatch() bool { return n.kind.behaviour == behaviourBatch }
