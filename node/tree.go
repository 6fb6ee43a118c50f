package node

import (
	"github.com/goccy/go-json"
)

// Tree is a nested view of a node and everything upstream of it. Node-valued
// inputs are replaced by their own trees; variadic slots keep their shape.
type Tree struct {
	Node   *Node          `json:"-"`
	ID     string         `json:"id"`
	Kind   string         `json:"kind"`
	Inputs map[string]any `json:"inputs"`
}

// GetTree returns the input tree rooted at n.
func (n *Node) GetTree() *Tree {
	n.scope.mu.Lock()
	defer n.scope.mu.Unlock()
	return n.tree()
}

func (n *Node) tree() *Tree {
	inputs, _ := n.mapInputs(n.inputs, func(v any) (any, error) {
		return v.(*Node).tree(), nil
	}, true)
	return &Tree{Node: n, ID: n.ID(), Kind: n.kind.name, Inputs: inputs}
}

// JSON encodes the tree. Input values must be JSON-encodable.
func (t *Tree) JSON() ([]byte, error) {
	return json.Marshal(t)
}

// Walk calls fn for t and every subtree, parents first.
func (t *Tree) Walk(fn func(*Tree)) {
	fn(t)
	for _, v := range t.Inputs {
		walkValue(v, fn)
	}
}

func walkValue(v any, fn func(*Tree)) {
	switch x := v.(type) {
	case *Tree:
		x.Walk(fn)
	case []any:
		for _, item := range x {
			walkValue(item, fn)
		}
	case map[string]any:
		for _, item := range x {
			walkValue(item, fn)
		}
	}
}
