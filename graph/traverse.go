package graph

import (
	stderrors "errors"
	"sort"

	"github.com/kbukum/nodegraph/node"
)

// SkipBranch is returned by a Visitor to stop descending from the visited
// node without aborting the traversal.
var SkipBranch = stderrors.New("skip branch")

// Visitor is called once per reached node. Returning SkipBranch prunes the
// traversal below the node; any other error aborts it and is returned.
type Visitor func(n *node.Node) error

// Forward visits root and every node depending on it, depth first, each
// once.
func Forward(root *node.Node, visit Visitor) error {
	return walk(root, visit, func(n *node.Node) []*node.Node { return n.Outputs() })
}

// Backward visits leaf and every node it depends on, depth first in input
// key order, each once.
func Backward(leaf *node.Node, visit Visitor) error {
	return walk(leaf, visit, inputs)
}

// VisitConnected visits every node reachable from start through inbound or
// outbound edges, breadth first, each once.
func VisitConnected(start *node.Node, visit Visitor) error {
	seen := map[*node.Node]bool{start: true}
	queue := []*node.Node{start}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		err := visit(n)
		if stderrors.Is(err, SkipBranch) {
			continue
		}
		if err != nil {
			return err
		}
		for _, next := range append(inputs(n), n.Outputs()...) {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return nil
}

// Connected returns every node connected to start, start first.
func Connected(start *node.Node) []*node.Node {
	var out []*node.Node
	_ = VisitConnected(start, func(n *node.Node) error {
		out = append(out, n)
		return nil
	})
	return out
}

func walk(start *node.Node, visit Visitor, next func(*node.Node) []*node.Node) error {
	seen := map[*node.Node]bool{}
	stack := []*node.Node{start}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[n] {
			continue
		}
		seen[n] = true

		err := visit(n)
		if stderrors.Is(err, SkipBranch) {
			continue
		}
		if err != nil {
			return err
		}
		children := next(n)
		for i := len(children) - 1; i >= 0; i-- {
			if !seen[children[i]] {
				stack = append(stack, children[i])
			}
		}
	}
	return nil
}

// inputs lists the distinct upstream nodes of n in input key order.
func inputs(n *node.Node) []*node.Node {
	edges := n.InputNodes()
	keys := make([]string, 0, len(edges))
	for k := range edges {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	seen := make(map[*node.Node]bool, len(edges))
	out := make([]*node.Node, 0, len(edges))
	for _, k := range keys {
		if u := edges[k]; !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}
