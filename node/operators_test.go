package node

import (
	"math"
	"strings"
	"testing"

	"github.com/kbukum/nodegraph/errors"
)

type meters int

type point struct {
	X, Y int
}

func (p point) Norm1() int { return abs(p.X) + abs(p.Y) }

func (p point) Fail() (int, error) { return 0, errDivide }

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// --- Operator dispatch ---

func TestApplyOp(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		operands []any
		want     any
	}{
		{"add ints", OpAdd, []any{2, 3}, 5},
		{"add mixed", OpAdd, []any{2, 0.5}, 2.5},
		{"add named type", OpAdd, []any{meters(3), meters(4)}, meters(7)},
		{"add strings", OpAdd, []any{"ab", "cd"}, "abcd"},
		{"sub", OpSub, []any{2, 5}, -3},
		{"mul", OpMul, []any{4, 2.5}, 10.0},
		{"repeat string", OpMul, []any{"ab", 3}, "ababab"},
		{"repeat string reversed", OpMul, []any{2, "x"}, "xx"},
		{"truediv ints", OpTrueDiv, []any{7, 2}, 3.5},
		{"floordiv negative", OpFloorDiv, []any{-7, 2}, -4},
		{"floordiv float", OpFloorDiv, []any{7.5, 2}, 3.0},
		{"mod sign of divisor", OpMod, []any{-7, 2}, 1},
		{"mod negative divisor", OpMod, []any{7, -2}, -1},
		{"mod float", OpMod, []any{-1.5, 1}, 0.5},
		{"pow ints", OpPow, []any{2, 10}, 1024},
		{"pow negative exponent", OpPow, []any{2, -1}, 0.5},
		{"lshift", OpLshift, []any{1, 4}, 16},
		{"rshift", OpRshift, []any{-16, 2}, -4},
		{"and ints", OpAnd, []any{6, 3}, 2},
		{"or ints", OpOr, []any{6, 3}, 7},
		{"xor ints", OpXor, []any{6, 3}, 5},
		{"and bools", OpAnd, []any{true, false}, false},
		{"or bools", OpOr, []any{true, false}, true},
		{"eq across types", OpEq, []any{1, 1.0}, true},
		{"ne", OpNe, []any{"a", "b"}, true},
		{"lt mixed", OpLt, []any{1, 2.5}, true},
		{"ge strings", OpGe, []any{"b", "a"}, true},
		{"le equal", OpLe, []any{3, 3}, true},
		{"gt false", OpGt, []any{1, 3}, false},
		{"neg", OpNeg, []any{3}, -3},
		{"neg float", OpNeg, []any{1.5}, -1.5},
		{"pos", OpPos, []any{meters(2)}, meters(2)},
		{"invert", OpInvert, []any{5}, -6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := applyOp(tt.op, tt.operands...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %v (%T), got %v (%T)", tt.want, tt.want, got, got)
			}
		})
	}
}

func TestApplyOp_Slices(t *testing.T) {
	got, err := applyOp(OpAdd, []int{1}, []int{2, 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s := got.([]int); len(s) != 3 || s[2] != 3 {
		t.Fatalf("expected [1 2 3], got %v", s)
	}

	got, err = applyOp(OpMul, []string{"a"}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s := got.([]string); len(s) != 3 {
		t.Fatalf("expected 3 items, got %v", s)
	}
}

func TestApplyOp_Errors(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		operands []any
		code     errors.ErrorCode
	}{
		{"string minus int", OpSub, []any{"a", 1}, errors.ErrCodeUnsupportedOperand},
		{"shift floats", OpLshift, []any{1.5, 1}, errors.ErrCodeUnsupportedOperand},
		{"negative shift", OpRshift, []any{1, -1}, errors.ErrCodeUnsupportedOperand},
		{"order mixed", OpLt, []any{"a", 1}, errors.ErrCodeUnsupportedOperand},
		{"neg string", OpNeg, []any{"a"}, errors.ErrCodeUnsupportedOperand},
		{"wrong arity", OpAdd, []any{1}, errors.ErrCodeUnsupportedOperand},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := applyOp(tt.op, tt.operands...)
			if !errors.HasCode(err, tt.code) {
				t.Fatalf("expected %s, got %v", tt.code, err)
			}
		})
	}
}

func TestApplyOp_DivisionByZero(t *testing.T) {
	for _, op := range []Op{OpTrueDiv, OpFloorDiv, OpMod} {
		t.Run(op.String(), func(t *testing.T) {
			if _, err := applyOp(op, 1, 0); !errors.Is(err, ErrDivisionByZero) {
				t.Fatalf("expected ErrDivisionByZero, got %v", err)
			}
			if _, err := applyOp(op, 1.0, 0.0); !errors.Is(err, ErrDivisionByZero) {
				t.Fatalf("expected ErrDivisionByZero, got %v", err)
			}
		})
	}
}

func TestCompare_NaN(t *testing.T) {
	for _, op := range []Op{OpLt, OpLe, OpGt, OpGe, OpEq} {
		got, err := applyOp(op, math.NaN(), 1.0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != false {
			t.Fatalf("expected NaN %s 1 to be false", op.Symbol())
		}
	}
}

func TestParseOp(t *testing.T) {
	tests := []struct {
		in   string
		want Op
	}{
		{"add", OpAdd},
		{"__add__", OpAdd},
		{"+", OpAdd},
		{"-", OpSub},
		{"FloorDiv", OpFloorDiv},
		{"//", OpFloorDiv},
		{"<=", OpLe},
		{"invert", OpInvert},
		{"neg", OpNeg},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOp(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
	if _, err := ParseOp("bogus"); !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}

	var op Op
	if err := op.UnmarshalText([]byte("mul")); err != nil || op != OpMul {
		t.Fatalf("expected OpMul, got %v (%v)", op, err)
	}
	if b, _ := OpPow.MarshalText(); string(b) != "pow" {
		t.Fatalf("expected pow, got %s", b)
	}
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		v    any
		want bool
	}{
		{nil, false},
		{false, false},
		{true, true},
		{0, false},
		{-1, true},
		{uint8(0), false},
		{0.0, false},
		{"", false},
		{"x", true},
		{[]int{}, false},
		{map[string]int{"a": 1}, true},
		{(*point)(nil), false},
		{&point{}, true},
		{point{}, true},
	}
	for _, tt := range tests {
		if got := Truthy(tt.v); got != tt.want {
			t.Fatalf("Truthy(%#v): expected %v, got %v", tt.v, tt.want, got)
		}
	}
}

// --- Item and attribute access ---

func TestGetItem(t *testing.T) {
	tests := []struct {
		name string
		obj  any
		key  any
		want any
	}{
		{"slice", []int{1, 2, 3}, 1, 2},
		{"negative index", []any{"a", "b"}, -1, "b"},
		{"array", [2]string{"x", "y"}, 0, "x"},
		{"string rune", "héllo", 1, "é"},
		{"map", map[string]int{"a": 1}, "a", 1},
		{"map numeric key conversion", map[int64]string{2: "two"}, 2, "two"},
		{"pointer to slice", &[]int{4}, 0, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := getItem(tt.obj, tt.key)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}

	if _, err := getItem([]int{1}, 5); !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
	if _, err := getItem(map[string]int{}, "x"); !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
	if _, err := getItem(42, 0); !errors.HasCode(err, errors.ErrCodeUnsupportedOperand) {
		t.Fatalf("expected UNSUPPORTED_OPERAND, got %v", err)
	}
}

func TestGetAttr(t *testing.T) {
	p := point{X: 3, Y: -4}

	tests := []struct {
		name string
		obj  any
		attr string
		want any
	}{
		{"field", p, "X", 3},
		{"field through pointer", &p, "Y", -4},
		{"method", p, "Norm1", 7},
		{"map entry", map[string]any{"k": "v"}, "k", "v"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := getAttr(tt.obj, tt.attr)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}

	if _, err := getAttr(p, "Z"); !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
	if _, err := getAttr(p, "Fail"); !errors.Is(err, errDivide) {
		t.Fatalf("expected method error, got %v", err)
	}
}

// --- Expression nodes ---

func TestNodeExpressions(t *testing.T) {
	s, _ := testScope(t, nil)
	x := mustNew(t, ConstantKind, 6, WithScope(s))

	tests := []struct {
		name string
		node *Node
		want any
	}{
		{"add mul", x.Add(4).Mul(2), 20},
		{"sub", x.Sub(x), 0},
		{"truediv", x.TrueDiv(4), 1.5},
		{"floordiv", x.FloorDiv(4), 1},
		{"mod", x.Mod(4), 2},
		{"pow", x.Pow(2), 36},
		{"shifts", x.Lshift(2).Rshift(1), 12},
		{"bitwise", x.And(3).Or(8).Xor(1), 11},
		{"compare", x.Gt(3), true},
		{"eq", x.Eq(6), true},
		{"ne", x.Ne(6), false},
		{"lt le ge", x.Lt(6), false},
		{"le", x.Le(6), true},
		{"ge", x.Ge(7), false},
		{"neg", x.Neg(), -6},
		{"pos", x.Pos(), 6},
		{"invert", x.Invert(), -7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mustGet(t, tt.node); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}

	mustUpdate(t, x, map[string]any{"value": 1})
	if got := mustGet(t, tests[0].node); got != 10 {
		t.Fatalf("expected 10 after update, got %v", got)
	}
}

func TestNodeIndexAndAttr(t *testing.T) {
	s, _ := testScope(t, nil)
	list := mustNew(t, ListKind, 1, 2, 3, WithScope(s))
	if got := mustGet(t, list.Index(-1)); got != 3 {
		t.Fatalf("expected 3, got %v", got)
	}

	p := mustNew(t, ConstantKind, point{X: 1, Y: 2}, WithScope(s))
	if got := mustGet(t, p.Attr("Y")); got != 2 {
		t.Fatalf("expected 2, got %v", got)
	}
}

func TestOperatorKinds(t *testing.T) {
	s, _ := testScope(t, nil)

	byName := mustNew(t, BinaryOpKind, 2, "mul", 3, WithScope(s))
	if got := mustGet(t, byName); got != 6 {
		t.Fatalf("expected 6, got %v", got)
	}

	wrongFamily := mustNew(t, CompareKind, 1, OpAdd, 2, WithScope(s))
	if _, err := wrongFamily.Get(); !errors.HasCode(err, errors.ErrCodeUnsupportedOperand) {
		t.Fatalf("expected UNSUPPORTED_OPERAND, got %v", err)
	}

	x := mustNew(t, ConstantKind, 5, WithScope(s))
	n, err := Apply(OpSub, 10, x)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := mustGet(t, n); got != 5 {
		t.Fatalf("expected 5, got %v", got)
	}
	if n.Scope() != s {
		t.Fatal("expected operator node to join the operand scope")
	}
}

func TestNodeExpressions_ScopeMismatchPanics(t *testing.T) {
	s1, _ := testScope(t, nil)
	s2, _ := testScope(t, nil)
	a := mustNew(t, ConstantKind, 1, WithScope(s1))
	b := mustNew(t, ConstantKind, 2, WithScope(s2))

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected a panic")
		}
	}()
	a.Add(b)
}

func TestInplace(t *testing.T) {
	s, _ := testScope(t, nil)
	x := mustNew(t, ConstantKind, 1, WithScope(s))
	err := x.Inplace(OpAdd, 1)
	if !errors.HasCode(err, errors.ErrCodeInplaceOperation) {
		t.Fatalf("expected INPLACE_OPERATION, got %v", err)
	}
	if !strings.Contains(err.Error(), "+=") {
		t.Fatalf("expected operator in message, got %q", err.Error())
	}
}

// --- Func nodes ---

func TestFunc(t *testing.T) {
	s, _ := testScope(t, nil)
	word := mustNew(t, ConstantKind, "go", WithScope(s))

	upper, err := NewFunc(strings.ToUpper, []any{word}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := mustGet(t, upper); got != "GO" {
		t.Fatalf("expected GO, got %v", got)
	}

	variadic, err := NewFunc(func(sep string, parts ...string) string {
		return strings.Join(parts, sep)
	}, []any{"-", "a", word}, nil, WithScope(s))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := mustGet(t, variadic); got != "a-go" {
		t.Fatalf("expected a-go, got %v", got)
	}

	widened, err := NewFunc(math.Sqrt, []any{16}, nil, WithScope(s))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := mustGet(t, widened); got != 4.0 {
		t.Fatalf("expected 4, got %v", got)
	}
}

func TestFunc_CallableWithKeywords(t *testing.T) {
	s, _ := testScope(t, nil)
	calls := 0
	greet := Callable(func(args []any, kwargs map[string]any) (any, error) {
		calls++
		return kwargs["greeting"].(string) + ", " + args[0].(string), nil
	})

	n, err := NewFunc(greet, []any{"world"}, map[string]any{"greeting": "hello"}, WithScope(s))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := mustGet(t, n); got != "hello, world" {
		t.Fatalf("expected 'hello, world', got %v", got)
	}
	mustGet(t, n)
	if calls != 1 {
		t.Fatalf("expected the function result to be cached, got %d calls", calls)
	}

	mustUpdate(t, n, map[string]any{"greeting": "hi"})
	if got := mustGet(t, n); got != "hi, world" {
		t.Fatalf("expected 'hi, world', got %v", got)
	}
}

func TestFunc_Errors(t *testing.T) {
	s, _ := testScope(t, nil)

	kw, err := NewFunc(strings.ToUpper, []any{"x"}, map[string]any{"k": 1}, WithScope(s))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := kw.Get(); !errors.HasCode(err, errors.ErrCodeUnsupportedOperand) {
		t.Fatalf("expected UNSUPPORTED_OPERAND, got %v", err)
	}

	arity, err := NewFunc(strings.ToUpper, nil, nil, WithScope(s))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := arity.Get(); !errors.HasCode(err, errors.ErrCodeUnsupportedOperand) {
		t.Fatalf("expected UNSUPPORTED_OPERAND, got %v", err)
	}

	failing, err := NewFunc(func() (int, error) { return 0, errDivide }, nil, nil, WithScope(s))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := failing.Get(); !errors.Is(err, errDivide) {
		t.Fatalf("expected function error, got %v", err)
	}
}
