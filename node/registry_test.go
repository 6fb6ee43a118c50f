package node

import (
	"testing"

	"github.com/kbukum/nodegraph/errors"
)

type recordingObserver struct {
	seen []string
}

func (o *recordingObserver) KindRegistered(k *Kind) { o.seen = append(o.seen, k.Name()) }

func identity(c *Call) (any, error) { return c.Value("x"), nil }

func TestRegistry_DefineAndLookup(t *testing.T) {
	r := NewRegistry()
	k, err := r.Define("Identity", Signature{Arg("x")}, identity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok := r.Lookup("Identity")
	if !ok || got != k {
		t.Fatal("expected to find the defined kind")
	}
	if _, err := r.Get("Missing"); !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}

	if _, err := r.Define("Identity", Signature{Arg("y")}, identity); !errors.HasCode(err, errors.ErrCodeAlreadyExists) {
		t.Fatalf("expected ALREADY_EXISTS, got %v", err)
	}
	if err := r.Register(k); err != nil {
		t.Fatalf("expected re-registering the same kind to succeed, got %v", err)
	}
	if len(r.Kinds()) != 1 {
		t.Fatalf("expected 1 kind, got %d", len(r.Kinds()))
	}
}

func TestRegistry_InvalidSignature(t *testing.T) {
	r := NewRegistry()
	_, err := r.Define("Bad", Signature{Arg("x"), Arg("x")}, identity)
	if !errors.HasCode(err, errors.ErrCodeInvalidSignature) {
		t.Fatalf("expected INVALID_SIGNATURE, got %v", err)
	}
	if len(r.List()) != 0 {
		t.Fatal("expected nothing registered")
	}
}

func TestRegistry_Subscribe(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Define("B", Signature{Arg("x")}, identity); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	obs := &recordingObserver{}
	r.Subscribe(obs)
	if len(obs.seen) != 1 || obs.seen[0] != "B" {
		t.Fatalf("expected replay of existing kinds, got %v", obs.seen)
	}

	if _, err := r.Define("A", Signature{Arg("x")}, identity); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(obs.seen) != 2 || obs.seen[1] != "A" {
		t.Fatalf("expected notification, got %v", obs.seen)
	}

	r.Unsubscribe(obs)
	if _, err := r.Define("C", Signature{Arg("x")}, identity); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(obs.seen) != 2 {
		t.Fatalf("expected no notification after unsubscribe, got %v", obs.seen)
	}

	names := r.List()
	if len(names) != 3 || names[0] != "A" || names[2] != "C" {
		t.Fatalf("expected sorted names, got %v", names)
	}
	kinds := r.Kinds()
	if kinds[0].Name() != "B" {
		t.Fatalf("expected registration order, got %s first", kinds[0].Name())
	}
}

func TestRegistry_Chained(t *testing.T) {
	parent := NewRegistry()
	child := NewRegistry()
	if _, err := parent.Define("Early", Signature{Arg("x")}, identity); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	parent.Subscribe(child)
	if _, err := parent.Define("Late", Signature{Arg("x")}, identity); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{"Early", "Late"} {
		if _, ok := child.Lookup(name); !ok {
			t.Fatalf("expected %s in child registry", name)
		}
	}
	if _, err := child.Define("Local", Signature{Arg("x")}, identity); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := parent.Lookup("Local"); ok {
		t.Fatal("expected child definitions to stay local")
	}
}

func TestDefaultRegistry_Builtins(t *testing.T) {
	for _, name := range []string{
		"Constant", "Batch", "List", "Dict", "Conditional",
		"BinaryOp", "Compare", "UnaryOp", "GetItem", "GetAttr", "Func",
	} {
		if _, ok := DefaultRegistry().Lookup(name); !ok {
			t.Fatalf("expected built-in kind %s", name)
		}
	}
}

func TestKind_Inheritance(t *testing.T) {
	s, _ := testScope(t, nil)
	base, err := NewKind("Base", Signature{Arg("x")}, identity, WithKindOptions(map[string]any{"lazy": false}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	derived, err := NewKind("Derived", Signature{Arg("x")}, identity, WithParent(base))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !derived.Is(base) || base.Is(derived) {
		t.Fatal("expected derived to be a base and not the reverse")
	}

	n := mustNew(t, derived, 1, WithScope(s))
	if _, ok := n.Output(); !ok {
		t.Fatal("expected eager evaluation inherited from the parent kind")
	}

	base.SetOption("lazy", true)
	opts, err := n.Options()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !opts.Lazy {
		t.Fatal("expected kind option change to be visible to existing nodes")
	}
}
