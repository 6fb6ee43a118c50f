package node

import (
	"fmt"
	"strings"

	"github.com/kbukum/nodegraph/errors"
)

// Op identifies an operator applied by the BinaryOp, Compare and UnaryOp
// kinds.
type Op int

const (
	OpAdd Op = iota + 1
	OpSub
	OpMul
	OpTrueDiv
	OpFloorDiv
	OpMod
	OpPow
	OpLshift
	OpRshift
	OpAnd
	OpXor
	OpOr

	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe

	OpNeg
	OpPos
	OpInvert
)

var opInfo = map[Op]struct{ name, symbol string }{
	OpAdd:      {"add", "+"},
	OpSub:      {"sub", "-"},
	OpMul:      {"mul", "*"},
	OpTrueDiv:  {"truediv", "/"},
	OpFloorDiv: {"floordiv", "//"},
	OpMod:      {"mod", "%"},
	OpPow:      {"pow", "**"},
	OpLshift:   {"lshift", "<<"},
	OpRshift:   {"rshift", ">>"},
	OpAnd:      {"and", "&"},
	OpXor:      {"xor", "^"},
	OpOr:       {"or", "|"},
	OpEq:       {"eq", "=="},
	OpNe:       {"ne", "!="},
	OpLt:       {"lt", "<"},
	OpLe:       {"le", "<="},
	OpGt:       {"gt", ">"},
	OpGe:       {"ge", ">="},
	OpNeg:      {"neg", "-"},
	OpPos:      {"pos", "+"},
	OpInvert:   {"invert", "~"},
}

func (o Op) String() string {
	if info, ok := opInfo[o]; ok {
		return info.name
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Symbol returns the operator as written in an expression.
func (o Op) Symbol() string {
	if info, ok := opInfo[o]; ok {
		return info.symbol
	}
	return o.String()
}

// MarshalText encodes the operator by name.
func (o Op) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// UnmarshalText accepts an operator name or symbol.
func (o *Op) UnmarshalText(b []byte) error {
	op, err := ParseOp(string(b))
	if err != nil {
		return err
	}
	*o = op
	return nil
}

// IsBinary reports whether o is an arithmetic or bitwise binary operator.
func (o Op) IsBinary() bool { return o >= OpAdd && o <= OpOr }

// IsCompare reports whether o is a comparison.
func (o Op) IsCompare() bool { return o >= OpEq && o <= OpGe }

// IsUnary reports whether o takes a single operand.
func (o Op) IsUnary() bool { return o >= OpNeg && o <= OpInvert }

// ParseOp resolves an operator from its name ("add", "__add__") or, for
// binary operators and comparisons, its symbol.
func ParseOp(s string) (Op, error) {
	name := strings.ToLower(strings.Trim(strings.TrimSpace(s), "_"))
	for op, info := range opInfo {
		if info.name == name {
			return op, nil
		}
	}
	for op, info := range opInfo {
		if !op.IsUnary() && info.symbol == s {
			return op, nil
		}
	}
	return 0, errors.NotFound("operator", s)
}

// opOf reads the operator input, which is an Op or its name.
func opOf(v any) (Op, error) {
	switch o := v.(type) {
	case Op:
		if _, ok := opInfo[o]; ok {
			return o, nil
		}
	case string:
		return ParseOp(o)
	}
	return 0, errors.Newf(errors.ErrCodeUnsupportedOperand, "invalid operator %v", v)
}
