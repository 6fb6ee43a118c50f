package node

import (
	"context"
	"fmt"

	"github.com/kbukum/nodegraph/config"
	"github.com/kbukum/nodegraph/errors"
	"github.com/kbukum/nodegraph/logger"
	"github.com/kbukum/nodegraph/observability"
)

// UpdateInputs rebinds the given inputs by name, rewires dependency edges
// and invalidates the node and everything downstream of it.
//
// Passing the var-positional slot name replaces the whole sequence, passing
// the var-keyword slot name replaces the whole mapping, and any other name
// not declared by the signature is merged into the mapping. A DeleteKwarg
// value removes a mapping entry, or the explicit value of a declared input.
//
// When the node is eager, it is re-evaluated during the update and the
// evaluation error, if any, is returned.
func (n *Node) UpdateInputs(kv map[string]any) (*Node, error) {
	return n.UpdateInputsContext(context.Background(), kv)
}

// UpdateInputsContext is UpdateInputs with a context for eager evaluation.
func (n *Node) UpdateInputsContext(ctx context.Context, kv map[string]any) (*Node, error) {
	if len(kv) == 0 {
		return n, nil
	}
	n.scope.mu.Lock()
	defer n.scope.mu.Unlock()

	if n.scope.tracing {
		spanCtx, span := observability.StartSpan(ctx, observability.SpanNodeUpdate)
		defer span.End()
		ctx = spanCtx
		observability.SetSpanAttribute(ctx, observability.AttrNodeID, n.ID())
		observability.SetSpanAttribute(ctx, observability.AttrNodeKind, n.kind.name)
		observability.SetSpanAttribute(ctx, observability.AttrNodeKey, sortedKeys(kv))
	}
	if err := n.updateInputs(ctx, kv); err != nil {
		observability.SetSpanError(ctx, err)
		return n, err
	}
	return n, nil
}

// RecursiveUpdateInputs applies the inputs to n and every node upstream of
// it, giving each node only the keys its signature declares. When kinds are
// given, only nodes whose kind Is one of them are updated.
func (n *Node) RecursiveUpdateInputs(kv map[string]any, kinds ...*Kind) error {
	n.scope.mu.Lock()
	defer n.scope.mu.Unlock()

	ctx := context.Background()
	for _, m := range n.upstream() {
		if len(kinds) > 0 && !m.kind.isAny(kinds) {
			continue
		}
		subset := make(map[string]any)
		for key, v := range kv {
			if _, ok := m.kind.sig.Param(key); ok {
				subset[key] = v
			}
		}
		if len(subset) == 0 {
			continue
		}
		if err := m.updateInputs(ctx, subset); err != nil {
			return err
		}
	}
	return nil
}

func (k *Kind) isAny(kinds []*Kind) bool {
	for _, other := range kinds {
		if k.Is(other) {
			return true
		}
	}
	return false
}

// upstream lists n and every node reachable through inbound edges, depth
// first, each once.
func (n *Node) upstream() []*Node {
	seen := map[*Node]bool{}
	var order []*Node
	var walk func(m *Node)
	walk = func(m *Node) {
		if seen[m] {
			return
		}
		seen[m] = true
		order = append(order, m)
		m.eachInput(m.inputs, func(_ string, v any) {
			if u, ok := v.(*Node); ok {
				walk(u)
			}
		})
	}
	walk(n)
	return order
}

// dependsOn reports whether target is reachable from n through inbound edges.
func (n *Node) dependsOn(target *Node) bool {
	seen := map[*Node]bool{}
	stack := []*Node{n}
	for len(stack) > 0 {
		m := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if m == target {
			return true
		}
		if seen[m] {
			continue
		}
		seen[m] = true
		for _, u := range m.inbound {
			stack = append(stack, u)
		}
	}
	return false
}

// updateInputs runs with the scope locked.
func (n *Node) updateInputs(ctx context.Context, kv map[string]any) error {
	k := n.kind
	updates := make(map[string]any, len(kv))
	merged := make(map[string]any)

	for _, name := range sortedKeys(kv) {
		v := kv[name]
		switch {
		case k.varPos != "" && name == k.varPos:
			seq, ok := sequence(v)
			if !ok {
				return errors.InputBinding(k.name, fmt.Sprintf("%q expects a sequence, got %T", name, v))
			}
			updates[name] = append([]any(nil), seq...)
		case k.varKw != "" && name == k.varKw:
			m, ok := mapping(v)
			if !ok {
				return errors.InputBinding(k.name, fmt.Sprintf("%q expects a mapping, got %T", name, v))
			}
			replacement := make(map[string]any, len(m))
			for key, item := range m {
				if !isDelete(item) {
					replacement[key] = item
				}
			}
			updates[name] = replacement
		default:
			if p, ok := k.sig.Param(name); ok && (p.Kind == ParamPositional || p.Kind == ParamKeywordOnly) {
				updates[name] = v
				continue
			}
			if k.varKw == "" {
				return errors.InputBinding(k.name, fmt.Sprintf("unexpected keyword argument %q", name))
			}
			merged[name] = v
		}
	}
	if _, replaced := updates[k.varKw]; !replaced && len(merged) > 0 {
		current, _ := mapping(n.inputs[k.varKw])
		next := make(map[string]any, len(current)+len(merged))
		for key, item := range current {
			next[key] = item
		}
		for key, item := range merged {
			if isDelete(item) {
				delete(next, key)
			} else {
				next[key] = item
			}
		}
		updates[k.varKw] = next
	}

	var err error
	n.eachInput(updates, func(key string, v any) {
		u, ok := v.(*Node)
		if !ok || err != nil {
			return
		}
		switch {
		case u == nil:
			err = errors.InputBinding(k.name, fmt.Sprintf("%q is a nil node", key))
		case u.scope != n.scope:
			err = errors.ScopeMismatch(k.name, key)
		case u == n || u.dependsOn(n):
			err = errors.Cycle(k.name, key)
		}
	})
	if err != nil {
		return err
	}

	if n.unchanged(updates) {
		n.log.Debug("inputs unchanged", logger.Fields(logger.FieldUpdates, sortedKeys(updates)))
		return nil
	}

	if k.behaviour == behaviourConditional {
		n.relevantUpdate = n.conditionalUpdateRelevant(updates)
		defer func() { n.relevantUpdate = false }()
	}

	for name, v := range updates {
		if isDelete(v) {
			delete(n.inputs, name)
		} else {
			n.inputs[name] = v
		}
	}
	n.rewire()

	if m := n.scope.metrics; m != nil {
		m.RecordUpdate(ctx, k.name, len(updates))
	}
	n.log.Debug("inputs updated", logger.Fields(logger.FieldUpdates, sortedKeys(updates)))

	return n.receiveOutdated(ctx, nil)
}

// unchanged reports whether applying updates would leave the inputs as they
// are: same nodes, equal values, deletions of absent keys.
func (n *Node) unchanged(updates map[string]any) bool {
	for name, v := range updates {
		old, ok := n.inputs[name]
		if isDelete(v) {
			if ok {
				return false
			}
			continue
		}
		if !ok || !equalInput(old, v) {
			return false
		}
	}
	return true
}

// receiveOutdated is called on n after its own inputs changed (source nil)
// or when the upstream node source was invalidated.
func (n *Node) receiveOutdated(ctx context.Context, source *Node) error {
	if n.kind.behaviour == behaviourConditional && !n.conditionalOutdatedRelevant(source) {
		return nil
	}
	return n.invalidate(ctx)
}

// invalidate marks n stale, re-evaluates it when eager and notifies every
// downstream node. Repeated invalidation has no additional effect on n.
func (n *Node) invalidate(ctx context.Context) error {
	n.stale = true
	n.errored = false
	n.err = nil
	if m := n.scope.metrics; m != nil {
		m.RecordInvalidation(ctx, n.kind.name)
	}

	var err error
	if !n.chain.Bool(config.KeyLazy, true) {
		_, err = n.get(ctx)
	}

	for _, d := range n.liveOutputs() {
		if derr := d.receiveOutdated(ctx, n); derr != nil {
			logger.Get("node").Debug("eager evaluation failed during invalidation", logger.Fields(
				logger.FieldNode, d.ID(),
				logger.FieldKind, d.kind.name,
				logger.FieldError, derr.Error(),
			))
		}
	}
	return err
}
