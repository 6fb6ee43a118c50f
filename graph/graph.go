package graph

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kbukum/nodegraph/config"
	"github.com/kbukum/nodegraph/errors"
	"github.com/kbukum/nodegraph/logger"
	"github.com/kbukum/nodegraph/node"
	"github.com/kbukum/nodegraph/observability"
)

// Graph is a built definition: live nodes addressable by id.
type Graph struct {
	Name    string
	Scope   *node.Scope
	Nodes   map[string]*node.Node
	Order   []string
	Outputs []string
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*node.Node, bool) {
	n, ok := g.Nodes[id]
	return n, ok
}

// Build constructs the nodes of d in scope, resolving kinds through the
// scope's registry. Nodes are created in dependency order, so definitions
// may refer to nodes declared later in the file.
func Build(ctx context.Context, d *Definition, scope *node.Scope) (*Graph, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanGraphLoad)
	defer span.End()
	log := logger.Get("graph")

	order, err := buildOrder(d)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return nil, err
	}
	defs := make(map[string]NodeDef, len(d.Nodes))
	for _, nd := range d.Nodes {
		defs[nd.ID] = nd
	}

	g := &Graph{
		Name:    d.Name,
		Scope:   scope,
		Nodes:   make(map[string]*node.Node, len(order)),
		Order:   order,
		Outputs: append([]string(nil), d.Outputs...),
	}
	for _, id := range order {
		nd := defs[id]
		kind, err := scope.Registry().Get(nd.Kind)
		if err != nil {
			err = fmt.Errorf("graph: node %q: %w", id, err)
			observability.SetSpanError(ctx, err)
			return nil, err
		}

		args := make([]any, len(nd.Args))
		for i, a := range nd.Args {
			args[i] = g.resolve(a)
		}
		var kwargs map[string]any
		if len(nd.Kwargs) > 0 {
			kwargs = make(map[string]any, len(nd.Kwargs))
			for name, v := range nd.Kwargs {
				kwargs[name] = g.resolve(v)
			}
		}

		n, err := kind.Construct(args, kwargs, node.WithScope(scope), node.WithOverrides(config.Layer(nd.Options)))
		if n == nil {
			err = fmt.Errorf("graph: node %q: %w", id, err)
			observability.SetSpanError(ctx, err)
			return nil, err
		}
		if err != nil {
			log.Warn("eager evaluation failed while building", logger.Fields(
				logger.FieldNode, id,
				logger.FieldKind, nd.Kind,
				logger.FieldError, err.Error(),
			))
		}
		g.Nodes[id] = n
	}

	for _, id := range g.Outputs {
		if _, ok := g.Nodes[id]; !ok {
			err := errors.NotFound("output", id)
			observability.SetSpanError(ctx, err)
			return nil, err
		}
	}
	observability.SetSpanAttribute(ctx, observability.AttrGraphNodes, len(g.Nodes))
	log.Debug("graph built", logger.Fields("graph", g.Name, "nodes", len(g.Nodes)))
	return g, nil
}

// resolve replaces a "$id" reference by the node built for id.
func (g *Graph) resolve(v any) any {
	if id, ok := ref(v); ok {
		return g.Nodes[id]
	}
	return literal(v)
}

// Evaluate gets every output node, or every node when the definition names
// no outputs. Results are keyed by node id; the first failure is returned.
func (g *Graph) Evaluate(ctx context.Context) (map[string]any, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanGraphEvaluate)
	defer span.End()
	start := time.Now()

	ids := g.Outputs
	if len(ids) == 0 {
		ids = g.Order
	}
	results := make(map[string]any, len(ids))
	for _, id := range ids {
		v, err := g.Nodes[id].GetContext(ctx)
		if err != nil {
			err = fmt.Errorf("graph: evaluating %q: %w", id, err)
			observability.SetSpanError(ctx, err)
			return results, err
		}
		results[id] = v
	}
	observability.SetSpanAttribute(ctx, observability.AttrStatus, observability.StatusOK)
	logger.Get("graph").Debug("graph evaluated", logger.DurationFields("evaluate", time.Since(start)))
	return results, nil
}

// Update applies input updates to the node with the given id.
func (g *Graph) Update(ctx context.Context, id string, kv map[string]any) error {
	n, ok := g.Nodes[id]
	if !ok {
		return errors.NotFound("node", id)
	}
	resolved := make(map[string]any, len(kv))
	for k, v := range kv {
		if target, ok := ref(v); ok {
			if _, exists := g.Nodes[target]; !exists {
				return errors.NotFound("node", target)
			}
		}
		resolved[k] = g.resolve(v)
	}
	_, err := n.UpdateInputsContext(ctx, resolved)
	return err
}

// Levels groups the graph's nodes by dependency depth.
func (g *Graph) Levels() ([][]*node.Node, error) {
	nodes := make([]*node.Node, 0, len(g.Order))
	for _, id := range g.Order {
		nodes = append(nodes, g.Nodes[id])
	}
	return Levels(nodes)
}

// buildOrder sorts node ids so that every node follows the nodes it refers
// to, using Kahn's algorithm. Ties keep definition order.
func buildOrder(d *Definition) ([]string, error) {
	position := make(map[string]int, len(d.Nodes))
	for i, nd := range d.Nodes {
		if nd.ID == "" {
			return nil, fmt.Errorf("graph: node %d has no id", i)
		}
		if _, dup := position[nd.ID]; dup {
			return nil, errors.AlreadyExists("node", nd.ID)
		}
		position[nd.ID] = i
	}

	inDegree := make(map[string]int, len(d.Nodes))
	dependents := make(map[string][]string)
	for _, nd := range d.Nodes {
		for _, dep := range nd.refs() {
			if _, ok := position[dep]; !ok {
				return nil, fmt.Errorf("graph: node %q references unknown node %q", nd.ID, dep)
			}
			inDegree[nd.ID]++
			dependents[dep] = append(dependents[dep], nd.ID)
		}
	}

	byPosition := func(ids []string) {
		sort.Slice(ids, func(i, j int) bool { return position[ids[i]] < position[ids[j]] })
	}

	var queue []string
	for _, nd := range d.Nodes {
		if inDegree[nd.ID] == 0 {
			queue = append(queue, nd.ID)
		}
	}

	order := make([]string, 0, len(d.Nodes))
	for len(queue) > 0 {
		order = append(order, queue...)
		var next []string
		for _, id := range queue {
			for _, dep := range dependents[id] {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		byPosition(next)
		queue = next
	}

	if len(order) != len(d.Nodes) {
		return nil, errors.Newf(errors.ErrCodeCycle, "cycle detected, processed %d of %d nodes", len(order), len(d.Nodes))
	}
	return order, nil
}
