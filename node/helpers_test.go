package node

import (
	"testing"

	"github.com/kbukum/nodegraph/config"
	"github.com/kbukum/nodegraph/errors"
)

var errDivide = errors.New(errors.ErrCodeUnsupportedOperand, "cannot divide by zero")

// testScope returns an isolated scope whose defaults start from the
// built-in settings with the given overrides.
func testScope(t *testing.T, overrides config.Layer) (*Scope, *config.Defaults) {
	t.Helper()
	d := config.NewDefaults(config.DefaultSettings().Nodes)
	for k, v := range overrides {
		d.Set(k, v)
	}
	return NewScope(WithDefaults(d)), d
}

// sumKind returns an unregistered kind adding a and b, counting its calls.
func sumKind(t *testing.T, calls *int) *Kind {
	t.Helper()
	k, err := NewKind("Sum", Signature{Arg("a"), ArgDefault("b", 0)}, func(c *Call) (any, error) {
		*calls++
		a, err := Get[int](c, "a")
		if err != nil {
			return nil, err
		}
		b, err := Get[int](c, "b")
		if err != nil {
			return nil, err
		}
		return a + b, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return k
}

func divKind(t *testing.T, calls *int) *Kind {
	t.Helper()
	k, err := NewKind("Div", Signature{Arg("a"), Arg("b")}, func(c *Call) (any, error) {
		*calls++
		a, _ := Get[int](c, "a")
		b, _ := Get[int](c, "b")
		if b == 0 {
			return nil, errDivide
		}
		return a / b, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return k
}

func mustNew(t *testing.T, k *Kind, args ...any) *Node {
	t.Helper()
	n, err := k.New(args...)
	if err != nil {
		t.Fatalf("unexpected error constructing %s: %v", k.Name(), err)
	}
	return n
}

func mustGet(t *testing.T, n *Node) any {
	t.Helper()
	v, err := n.Get()
	if err != nil {
		t.Fatalf("unexpected error getting %s: %v", n, err)
	}
	return v
}

func mustUpdate(t *testing.T, n *Node, kv map[string]any) {
	t.Helper()
	if _, err := n.UpdateInputs(kv); err != nil {
		t.Fatalf("unexpected error updating %s: %v", n, err)
	}
}
