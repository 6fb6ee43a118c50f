package node

import "context"

// NewConditional returns a node yielding ifTrue when test is truthy and
// ifFalse otherwise. Only the taken branch is evaluated, and changes to the
// other branch do not invalidate the node.
func NewConditional(test, ifTrue, ifFalse any, opts ...Option) (*Node, error) {
	return ConditionalKind.Construct([]any{test, ifTrue, ifFalse}, nil, opts...)
}

func evalConditional(c *Call) (any, error) {
	if Truthy(c.Value("test")) {
		return c.Value("true"), nil
	}
	return c.Value("false"), nil
}

// takenBranch names the branch input selected by the last evaluated test.
func (n *Node) takenBranch() string {
	if Truthy(n.snapshot["test"]) {
		return "true"
	}
	return "false"
}

// evaluateConditionalInputs evaluates the test and the branch it selects.
// The other branch keeps its last evaluated value so it never counts as a
// change.
func (n *Node) evaluateConditionalInputs(ctx context.Context) (map[string]any, error) {
	eval := func(key string) (any, error) {
		if u, ok := n.inputs[key].(*Node); ok {
			return evaluateInput(ctx, u)
		}
		return n.inputs[key], nil
	}

	test, err := eval("test")
	if err != nil {
		return nil, err
	}
	taken, skipped := "false", "true"
	if Truthy(test) {
		taken, skipped = "true", "false"
	}
	value, err := eval(taken)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"test":  test,
		taken:   value,
		skipped: n.snapshot[skipped],
	}, nil
}

// conditionalUpdateRelevant reports whether a direct input update can change
// the output: before the first evaluation any update can, afterwards only
// the test or the branch it selected.
func (n *Node) conditionalUpdateRelevant(updates map[string]any) bool {
	if _, evaluated := n.snapshot["test"]; !evaluated {
		return true
	}
	if _, ok := updates["test"]; ok {
		return true
	}
	_, ok := updates[n.takenBranch()]
	return ok
}

// conditionalOutdatedRelevant applies the same rule to an invalidated
// upstream node, looking at the input keys it is wired to.
func (n *Node) conditionalOutdatedRelevant(source *Node) bool {
	if source == nil {
		return n.relevantUpdate
	}
	if _, evaluated := n.snapshot["test"]; !evaluated {
		return true
	}
	taken := n.takenBranch()
	for key, u := range n.inbound {
		if u == source && (key == "test" || key == taken) {
			return true
		}
	}
	return false
}
