package node

import (
	"context"
	"fmt"

	"github.com/kbukum/nodegraph/errors"
	"github.com/kbukum/nodegraph/logger"
)

// Call is a single invocation of a kind's computation.
//
// Args and Kwargs are the reassembled invocation: when the kind declares a
// var-positional slot, Args holds the parameters before it followed by the
// slot's elements and Kwargs holds the rest; otherwise Args is empty and every
// value is in Kwargs. Var-keyword entries are merged into Kwargs.
type Call struct {
	Args   []any
	Kwargs map[string]any

	ctx    context.Context
	node   *Node
	values map[string]any
}

func newCall(ctx context.Context, n *Node, evaluated map[string]any) (*Call, error) {
	k := n.kind
	values := make(map[string]any, len(k.sig))
	for _, p := range k.sig {
		v, ok := evaluated[p.Name]
		switch {
		case p.Kind == ParamVarPositional:
			seq, _ := sequence(v)
			values[p.Name] = seq
		case p.Kind == ParamVarKeyword:
			m, _ := mapping(v)
			values[p.Name] = m
		case ok:
			values[p.Name] = v
		case p.HasDefault:
			values[p.Name] = p.Default
		default:
			return nil, errors.InputBinding(k.name, fmt.Sprintf("missing required argument %q", p.Name))
		}
	}

	c := &Call{ctx: ctx, node: n, values: values, Kwargs: make(map[string]any)}
	if k.varPos != "" {
		for _, p := range k.sig {
			if p.Kind != ParamPositional {
				break
			}
			if v, ok := evaluated[p.Name]; ok {
				c.Args = append(c.Args, v)
			}
		}
		c.Args = append(c.Args, values[k.varPos].([]any)...)
	}
	for _, p := range k.sig {
		if k.varPos != "" && (p.Kind == ParamPositional || p.Kind == ParamVarPositional) {
			continue
		}
		if p.Kind == ParamVarKeyword {
			continue
		}
		if v, ok := evaluated[p.Name]; ok {
			c.Kwargs[p.Name] = v
		}
	}
	if k.varKw != "" {
		for name, v := range values[k.varKw].(map[string]any) {
			c.Kwargs[name] = v
		}
	}
	return c, nil
}

// Context returns the context passed to GetContext.
func (c *Call) Context() context.Context { return c.ctx }

// Node returns the node being evaluated.
func (c *Call) Node() *Node { return c.node }

// Logger returns the node's captured logger.
func (c *Call) Logger() *logger.Logger { return c.node.log }

// Value returns the bound value of a parameter, with defaults applied.
// Var-positional slots are []any and var-keyword slots map[string]any.
func (c *Call) Value(name string) any { return c.values[name] }

// Lookup is like Value but reports whether name is a declared parameter.
func (c *Call) Lookup(name string) (any, bool) {
	v, ok := c.values[name]
	return v, ok
}

// Get returns the bound value of name converted to T.
func Get[T any](c *Call, name string) (T, error) {
	var zero T
	v, ok := c.values[name]
	if !ok {
		return zero, errors.NotFound("parameter", name)
	}
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("parameter %q: expected %T, got %T", name, zero, v)
	}
	return t, nil
}
