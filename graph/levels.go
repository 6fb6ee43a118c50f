package graph

import (
	"github.com/kbukum/nodegraph/errors"
	"github.com/kbukum/nodegraph/node"
)

// Levels uses Kahn's algorithm to group nodes by dependency level: level 0
// has no inputs among nodes, and every node comes after all of its inputs.
// Edges to nodes outside the set are ignored.
func Levels(nodes []*node.Node) ([][]*node.Node, error) {
	inSet := make(map[*node.Node]bool, len(nodes))
	for _, n := range nodes {
		inSet[n] = true
	}

	inDegree := make(map[*node.Node]int, len(nodes))
	dependents := make(map[*node.Node][]*node.Node)
	for _, n := range nodes {
		if _, ok := inDegree[n]; !ok {
			inDegree[n] = 0
		}
		for _, u := range inputs(n) {
			if !inSet[u] {
				continue
			}
			inDegree[n]++
			dependents[u] = append(dependents[u], n)
		}
	}

	// Level 0 keeps the caller's order.
	var queue []*node.Node
	queued := make(map[*node.Node]bool, len(nodes))
	for _, n := range nodes {
		if inDegree[n] == 0 && !queued[n] {
			queued[n] = true
			queue = append(queue, n)
		}
	}

	var levels [][]*node.Node
	visited := 0
	for len(queue) > 0 {
		levels = append(levels, queue)
		visited += len(queue)

		var next []*node.Node
		for _, n := range queue {
			for _, d := range dependents[n] {
				inDegree[d]--
				if inDegree[d] == 0 {
					next = append(next, d)
				}
			}
		}
		queue = next
	}

	if visited != len(inDegree) {
		return nil, errors.Newf(errors.ErrCodeCycle, "cycle detected, processed %d of %d nodes", visited, len(inDegree))
	}
	return levels, nil
}
