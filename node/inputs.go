package node

import (
	"fmt"

	"github.com/kbukum/nodegraph/errors"
)

// DeleteKwarg removes a single entry from the var-keyword slot when passed
// as a value to UpdateInputs.
var DeleteKwarg any = &deleteMarker{}

type deleteMarker struct{}

func isDelete(v any) bool {
	_, ok := v.(*deleteMarker)
	return ok
}

func elementKey(slot string, elem any) string {
	return fmt.Sprintf("%s[%v]", slot, elem)
}

// eachInput calls fn for every input value in signature order. Elements of
// the var-positional slot are reported as slot[i] and entries of the
// var-keyword slot as slot[name], in name order.
func (n *Node) eachInput(inputs map[string]any, fn func(key string, v any)) {
	for _, p := range n.kind.sig {
		v, ok := inputs[p.Name]
		if !ok {
			continue
		}
		switch p.Kind {
		case ParamVarPositional:
			seq, _ := sequence(v)
			for i, item := range seq {
				fn(elementKey(p.Name, i), item)
			}
		case ParamVarKeyword:
			m, _ := mapping(v)
			for _, name := range sortedKeys(m) {
				fn(elementKey(p.Name, name), m[name])
			}
		default:
			fn(p.Name, v)
		}
	}
}

// mapInputs applies fn to every input value, keeping the structure of the
// variadic slots. Keys in exclude are copied unchanged.
func (n *Node) mapInputs(inputs map[string]any, fn func(v any) (any, error), onlyNodes bool, exclude ...string) (map[string]any, error) {
	skip := make(map[string]bool, len(exclude))
	for _, k := range exclude {
		skip[k] = true
	}
	apply := func(v any) (any, error) {
		if onlyNodes {
			if _, ok := v.(*Node); !ok {
				return v, nil
			}
		}
		return fn(v)
	}

	mapped := make(map[string]any, len(inputs))
	for key, v := range inputs {
		if skip[key] {
			mapped[key] = v
			continue
		}
		var err error
		switch key {
		case n.kind.varPos:
			seq, _ := sequence(v)
			out := make([]any, len(seq))
			for i, item := range seq {
				if out[i], err = apply(item); err != nil {
					return nil, err
				}
			}
			mapped[key] = out
		case n.kind.varKw:
			m, _ := mapping(v)
			out := make(map[string]any, len(m))
			for name, item := range m {
				if out[name], err = apply(item); err != nil {
					return nil, err
				}
			}
			mapped[key] = out
		default:
			if mapped[key], err = apply(v); err != nil {
				return nil, err
			}
		}
	}
	return mapped, nil
}

// copyInputs returns a copy of inputs with fresh variadic containers.
func (n *Node) copyInputs(inputs map[string]any) map[string]any {
	out, _ := n.mapInputs(inputs, func(v any) (any, error) { return v, nil }, false)
	return out
}

// MapInputs applies fn to every input value and returns the transformed
// input map. With onlyNodes set, non-node values are copied unchanged. The
// scope is not locked while fn runs.
func (n *Node) MapInputs(fn func(v any) any, onlyNodes bool, exclude ...string) map[string]any {
	n.scope.mu.Lock()
	inputs := n.copyInputs(n.inputs)
	n.scope.mu.Unlock()

	out, _ := n.mapInputs(inputs, func(v any) (any, error) { return fn(v), nil }, onlyNodes, exclude...)
	return out
}

// RawInputs returns the explicitly bound inputs, without defaults.
func (n *Node) RawInputs() map[string]any {
	n.scope.mu.Lock()
	defer n.scope.mu.Unlock()
	return n.copyInputs(n.inputs)
}

// Inputs returns the bound inputs overlaid on the signature defaults. Empty
// variadic slots appear as an empty []any or map[string]any.
func (n *Node) Inputs() map[string]any {
	n.scope.mu.Lock()
	defer n.scope.mu.Unlock()
	return n.mergedInputs()
}

func (n *Node) mergedInputs() map[string]any {
	merged := n.copyInputs(n.inputs)
	for _, p := range n.kind.sig {
		if _, ok := merged[p.Name]; ok {
			continue
		}
		switch {
		case p.Kind == ParamVarPositional:
			merged[p.Name] = []any{}
		case p.Kind == ParamVarKeyword:
			merged[p.Name] = map[string]any{}
		case p.HasDefault:
			merged[p.Name] = p.Default
		}
	}
	return merged
}

// GetInput returns the value of a single input, falling back to the
// parameter default.
func (n *Node) GetInput(key string) (any, error) {
	n.scope.mu.Lock()
	defer n.scope.mu.Unlock()
	v, ok := n.mergedInputs()[key]
	if !ok {
		return nil, errors.NotFound("input", key)
	}
	return v, nil
}
