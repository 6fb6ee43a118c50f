package node

import (
	"fmt"

	"github.com/kbukum/nodegraph/errors"
)

// Built-in kinds, registered in the default registry.
var (
	ConstantKind = MustDefine("Constant", Signature{Arg("value")}, func(c *Call) (any, error) {
		return c.Value("value"), nil
	})

	BatchKind = MustDefine("Batch", Signature{VarArgs("items")}, func(c *Call) (any, error) {
		return append([]any{}, c.Args...), nil
	}, withBehaviour(behaviourBatch))

	ListKind = MustDefine("List", Signature{VarArgs("items")}, func(c *Call) (any, error) {
		return append([]any{}, c.Args...), nil
	})

	DictKind = MustDefine("Dict", Signature{VarKwargs("items")}, func(c *Call) (any, error) {
		out := make(map[string]any, len(c.Kwargs))
		for k, v := range c.Kwargs {
			out[k] = v
		}
		return out, nil
	})

	ConditionalKind = MustDefine("Conditional", Signature{Arg("test"), Arg("true"), Arg("false")},
		evalConditional, withBehaviour(behaviourConditional))

	BinaryOpKind = MustDefine("BinaryOp", Signature{Arg("left"), Arg("op"), Arg("right")},
		opFunc(Op.IsBinary, "left", "right"))

	CompareKind = MustDefine("Compare", Signature{Arg("left"), Arg("op"), Arg("right")},
		opFunc(Op.IsCompare, "left", "right"))

	UnaryOpKind = MustDefine("UnaryOp", Signature{Arg("op"), Arg("operand")},
		opFunc(Op.IsUnary, "operand"))

	GetItemKind = MustDefine("GetItem", Signature{Arg("obj"), Arg("key")}, func(c *Call) (any, error) {
		return getItem(c.Value("obj"), c.Value("key"))
	})

	GetAttrKind = MustDefine("GetAttr", Signature{Arg("obj"), Arg("name")}, func(c *Call) (any, error) {
		name, err := Get[string](c, "name")
		if err != nil {
			return nil, err
		}
		return getAttr(c.Value("obj"), name)
	})

	FuncKind = MustDefine("Func", Signature{VarArgs("args"), Kwarg("func"), VarKwargs("kwargs")}, func(c *Call) (any, error) {
		kwargs := make(map[string]any, len(c.Kwargs))
		for k, v := range c.Kwargs {
			if k != "func" {
				kwargs[k] = v
			}
		}
		return callFunc(c.Value("func"), c.Args, kwargs)
	})
)

// opFunc builds the computation shared by the operator kinds. The op input
// must belong to the family accepted by allowed.
func opFunc(allowed func(Op) bool, operands ...string) Func {
	return func(c *Call) (any, error) {
		op, err := opOf(c.Value("op"))
		if err != nil {
			return nil, err
		}
		if !allowed(op) {
			return nil, errors.Newf(errors.ErrCodeUnsupportedOperand, "%s does not apply %s", c.Node().kind.name, op)
		}
		values := make([]any, len(operands))
		for i, name := range operands {
			values[i] = c.Value(name)
		}
		return applyOp(op, values...)
	}
}

// NewConstant wraps a plain value in a node.
func NewConstant(value any, opts ...Option) (*Node, error) {
	return ConstantKind.Construct([]any{value}, nil, opts...)
}

// NewList returns a node evaluating to the list of its evaluated items.
func NewList(items ...any) (*Node, error) {
	return ListKind.Construct(items, nil)
}

// NewDict returns a node evaluating to the mapping of its evaluated items.
func NewDict(items map[string]any, opts ...Option) (*Node, error) {
	return DictKind.Construct(nil, items, opts...)
}

// NewFunc returns a node calling fn with the evaluated args and kwargs. fn
// is any Go function, or a Callable when keywords are passed.
func NewFunc(fn any, args []any, kwargs map[string]any, opts ...Option) (*Node, error) {
	kw := make(map[string]any, len(kwargs)+1)
	for k, v := range kwargs {
		kw[k] = v
	}
	kw["func"] = fn
	return FuncKind.Construct(args, kw, opts...)
}

// Apply builds the operator node for op. Unary operators ignore right.
func Apply(op Op, left, right any) (*Node, error) {
	switch {
	case op.IsUnary():
		return UnaryOpKind.Construct([]any{op, left}, nil)
	case op.IsCompare():
		return CompareKind.Construct([]any{left, op, right}, nil)
	case op.IsBinary():
		return BinaryOpKind.Construct([]any{left, op, right}, nil)
	}
	return nil, errors.Newf(errors.ErrCodeUnsupportedOperand, "invalid operator %v", op)
}

// derive builds an expression node from n. Construction problems such as a
// scope mismatch are programming errors and panic; evaluation errors of an
// eager node are left on the node.
func (n *Node) derive(k *Kind, args ...any) *Node {
	m, err := k.Construct(args, nil, WithScope(n.scope))
	if m == nil {
		panic(err)
	}
	return m
}

func (n *Node) binary(op Op, other any) *Node { return n.derive(BinaryOpKind, n, op, other) }
func (n *Node) compare(op Op, other any) *Node { return n.derive(CompareKind, n, op, other) }

func (n *Node) Add(other any) *Node { return n.binary(OpAdd, other) }
func (n *Node) Sub(other any) *Node { return n.binary(OpSub, other) }
func (n *Node) Mul(other any) *Node { return n.binary(OpMul, other) }
func (n *Node) TrueDiv(other any) *Node { return n.binary(OpTrueDiv, other) }
func (n *Node) FloorDiv(other any) *Node { return n.binary(OpFloorDiv, other) }
func (n *Node) Mod(other any) *Node { return n.binary(OpMod, other) }
func (n *Node) Pow(other any) *Node { return n.binary(OpPow, other) }
func (n *Node) Lshift(other any) *Node { return n.binary(OpLshift, other) }
func (n *Node) Rshift(other any) *Node { return n.binary(OpRshift, other) }
func (n *Node) And(other any) *Node { return n.binary(OpAnd, other) }
func (n *Node) Xor(other any) *Node { return n.binary(OpXor, other) }
func (n *Node) Or(other any) *Node { return n.binary(OpOr, other) }

func (n *Node) Eq(other any) *Node { return n.compare(OpEq, other) }
func (n *Node) Ne(other any) *Node { return n.compare(OpNe, other) }
func (n *Node) Lt(other any) *Node { return n.compare(OpLt, other) }
func (n *Node) Le(other any) *Node { return n.compare(OpLe, other) }
func (n *Node) Gt(other any) *Node { return n.compare(OpGt, other) }
func (n *Node) Ge(other any) *Node { return n.compare(OpGe, other) }

func (n *Node) Neg() *Node { return n.derive(UnaryOpKind, OpNeg, n) }
func (n *Node) Pos() *Node { return n.derive(UnaryOpKind, OpPos, n) }
func (n *Node) Invert() *Node { return n.derive(UnaryOpKind, OpInvert, n) }

// Index returns a node evaluating to n's output indexed by key.
func (n *Node) Index(key any) *Node { return n.derive(GetItemKind, n, key) }

// Attr returns a node evaluating to the field, map entry or zero-argument
// method result called name on n's output.
func (n *Node) Attr(name string) *Node { return n.derive(GetAttrKind, n, name) }

// Inplace rejects in-place operators: a node is rebound with UpdateInputs,
// never mutated through an expression.
func (n *Node) Inplace(op Op, other any) error {
	return errors.InplaceOperation(fmt.Sprintf("%s=", op.Symbol()))
}
