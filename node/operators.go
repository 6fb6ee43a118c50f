package node

import (
	"cmp"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/kbukum/nodegraph/errors"
)

// applyOp evaluates op on its operands. Numbers follow floor-division and
// modulo rules where the result takes the sign of the divisor, ints are
// promoted to float64 when mixed with floats, and operands of one named
// numeric type keep that type.
func applyOp(op Op, operands ...any) (any, error) {
	switch {
	case op.IsUnary() && len(operands) == 1:
		return unaryOp(op, operands[0])
	case op.IsCompare() && len(operands) == 2:
		return compareOp(op, operands[0], operands[1])
	case op.IsBinary() && len(operands) == 2:
		return binaryOp(op, operands[0], operands[1])
	}
	return nil, errors.UnsupportedOperand(op.Symbol(), operands...)
}

// num is a numeric operand widened to int64 or float64.
type num struct {
	i       int64
	f       float64
	isFloat bool
}

func (x num) float() float64 {
	if x.isFloat {
		return x.f
	}
	return float64(x.i)
}

func toNum(v any) (num, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return num{i: rv.Int()}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return num{i: int64(rv.Uint())}, true
	case reflect.Float32, reflect.Float64:
		return num{f: rv.Float(), isFloat: true}, true
	}
	return num{}, false
}

func toStr(v any) (string, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}

func isFloatKind(t reflect.Type) bool {
	return t.Kind() == reflect.Float32 || t.Kind() == reflect.Float64
}

// result converts r back to the operands' type when they share one.
func result(a, b any, r num) any {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	same := ta == tb
	if r.isFloat {
		if same && isFloatKind(ta) {
			return reflect.ValueOf(r.f).Convert(ta).Interface()
		}
		return r.f
	}
	if same && !isFloatKind(ta) {
		return reflect.ValueOf(r.i).Convert(ta).Interface()
	}
	return int(r.i)
}

func binaryOp(op Op, a, b any) (any, error) {
	if x, ok := a.(bool); ok {
		if y, ok := b.(bool); ok {
			switch op {
			case OpAnd:
				return x && y, nil
			case OpOr:
				return x || y, nil
			case OpXor:
				return x != y, nil
			}
		}
	}

	x, okx := toNum(a)
	y, oky := toNum(b)
	if okx && oky {
		r, err := arith(op, x, y)
		if err != nil {
			return nil, err
		}
		return result(a, b, r), nil
	}

	switch op {
	case OpAdd:
		if s, ok := toStr(a); ok {
			if t, ok := toStr(b); ok {
				return s + t, nil
			}
		}
		if out, ok := concat(a, b); ok {
			return out, nil
		}
	case OpMul:
		if s, ok := toStr(a); ok && oky && !y.isFloat {
			return strings.Repeat(s, int(max(y.i, 0))), nil
		}
		if t, ok := toStr(b); ok && okx && !x.isFloat {
			return strings.Repeat(t, int(max(x.i, 0))), nil
		}
		if oky && !y.isFloat {
			if out, ok := repeat(a, int(max(y.i, 0))); ok {
				return out, nil
			}
		}
		if okx && !x.isFloat {
			if out, ok := repeat(b, int(max(x.i, 0))); ok {
				return out, nil
			}
		}
	}
	return nil, errors.UnsupportedOperand(op.Symbol(), a, b)
}

func arith(op Op, x, y num) (num, error) {
	isFloat := x.isFloat || y.isFloat
	switch op {
	case OpAdd:
		if isFloat {
			return num{f: x.float() + y.float(), isFloat: true}, nil
		}
		return num{i: x.i + y.i}, nil
	case OpSub:
		if isFloat {
			return num{f: x.float() - y.float(), isFloat: true}, nil
		}
		return num{i: x.i - y.i}, nil
	case OpMul:
		if isFloat {
			return num{f: x.float() * y.float(), isFloat: true}, nil
		}
		return num{i: x.i * y.i}, nil
	case OpTrueDiv:
		if y.float() == 0 {
			return num{}, ErrDivisionByZero
		}
		return num{f: x.float() / y.float(), isFloat: true}, nil
	case OpFloorDiv:
		if y.float() == 0 {
			return num{}, ErrDivisionByZero
		}
		if isFloat {
			return num{f: math.Floor(x.float() / y.float()), isFloat: true}, nil
		}
		q := x.i / y.i
		if (x.i%y.i != 0) && ((x.i < 0) != (y.i < 0)) {
			q--
		}
		return num{i: q}, nil
	case OpMod:
		if y.float() == 0 {
			return num{}, ErrDivisionByZero
		}
		if isFloat {
			r := math.Mod(x.float(), y.float())
			if r != 0 && (r < 0) != (y.float() < 0) {
				r += y.float()
			}
			return num{f: r, isFloat: true}, nil
		}
		r := x.i % y.i
		if r != 0 && (r < 0) != (y.i < 0) {
			r += y.i
		}
		return num{i: r}, nil
	case OpPow:
		if isFloat || y.i < 0 {
			return num{f: math.Pow(x.float(), y.float()), isFloat: true}, nil
		}
		return num{i: intPow(x.i, y.i)}, nil
	}

	if isFloat {
		return num{}, errors.UnsupportedOperand(op.Symbol(), x.f, y.f)
	}
	switch op {
	case OpLshift, OpRshift:
		if y.i < 0 {
			return num{}, errors.Newf(errors.ErrCodeUnsupportedOperand, "negative shift count %d", y.i)
		}
		if op == OpLshift {
			return num{i: x.i << uint64(y.i)}, nil
		}
		return num{i: x.i >> uint64(y.i)}, nil
	case OpAnd:
		return num{i: x.i & y.i}, nil
	case OpXor:
		return num{i: x.i ^ y.i}, nil
	case OpOr:
		return num{i: x.i | y.i}, nil
	}
	return num{}, errors.UnsupportedOperand(op.Symbol(), x.i, y.i)
}

func intPow(base, exp int64) int64 {
	out := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			out *= base
		}
		base *= base
		exp >>= 1
	}
	return out
}

// concat joins two slices of the same type into a new slice.
func concat(a, b any) (any, bool) {
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Kind() != reflect.Slice || ra.Type() != rb.Type() {
		return nil, false
	}
	out := reflect.MakeSlice(ra.Type(), 0, ra.Len()+rb.Len())
	out = reflect.AppendSlice(out, ra)
	out = reflect.AppendSlice(out, rb)
	return out.Interface(), true
}

func repeat(a any, times int) (any, bool) {
	ra := reflect.ValueOf(a)
	if ra.Kind() != reflect.Slice {
		return nil, false
	}
	out := reflect.MakeSlice(ra.Type(), 0, ra.Len()*times)
	for range times {
		out = reflect.AppendSlice(out, ra)
	}
	return out.Interface(), true
}

func compareOp(op Op, a, b any) (any, error) {
	switch op {
	case OpEq:
		return looseEqual(a, b), nil
	case OpNe:
		return !looseEqual(a, b), nil
	}
	if x, ok := toNum(a); ok {
		if y, ok := toNum(b); ok {
			if x.isFloat || y.isFloat {
				return ordered(op, x.float(), y.float()), nil
			}
			return ordered(op, x.i, y.i), nil
		}
	}
	if s, ok := toStr(a); ok {
		if t, ok := toStr(b); ok {
			return ordered(op, s, t), nil
		}
	}
	return nil, errors.UnsupportedOperand(op.Symbol(), a, b)
}

// looseEqual compares numbers by value across numeric types.
func looseEqual(a, b any) bool {
	if x, ok := toNum(a); ok {
		if y, ok := toNum(b); ok {
			if x.isFloat || y.isFloat {
				return x.float() == y.float()
			}
			return x.i == y.i
		}
	}
	return equalValues(a, b)
}

func ordered[T cmp.Ordered](op Op, a, b T) bool {
	switch op {
	case OpLt:
		return a < b
	case OpLe:
		return a <= b
	case OpGt:
		return a > b
	case OpGe:
		return a >= b
	}
	return false
}

func unaryOp(op Op, a any) (any, error) {
	x, ok := toNum(a)
	if !ok {
		if b, isBool := a.(bool); isBool && op == OpInvert {
			return !b, nil
		}
		return nil, errors.UnsupportedOperand(op.Symbol(), a)
	}
	switch op {
	case OpNeg:
		if x.isFloat {
			return result(a, a, num{f: -x.f, isFloat: true}), nil
		}
		return result(a, a, num{i: -x.i}), nil
	case OpPos:
		return a, nil
	case OpInvert:
		if !x.isFloat {
			return result(a, a, num{i: ^x.i}), nil
		}
	}
	return nil, errors.UnsupportedOperand(op.Symbol(), a)
}

// Truthy reports whether v counts as true: false, nil, zero numbers and
// empty strings, slices and maps are false.
func Truthy(v any) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array, reflect.Chan:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface, reflect.Func:
		return !rv.IsNil()
	}
	return true
}

// getItem indexes slices, arrays and strings (negative indexes count from
// the end) and looks up map keys.
func getItem(obj, key any) (any, error) {
	rv := reflect.ValueOf(obj)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, errors.UnsupportedOperand("[]", obj, key)
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.String:
		idx, ok := toNum(key)
		if !ok || idx.isFloat {
			return nil, errors.UnsupportedOperand("[]", obj, key)
		}
		if rv.Kind() == reflect.String {
			runes := []rune(rv.String())
			i, ok := normIndex(idx.i, len(runes))
			if !ok {
				return nil, errors.NotFound("index", fmt.Sprint(key))
			}
			return string(runes[i]), nil
		}
		i, ok := normIndex(idx.i, rv.Len())
		if !ok {
			return nil, errors.NotFound("index", fmt.Sprint(key))
		}
		return rv.Index(i).Interface(), nil
	case reflect.Map:
		kv, ok := mapKey(rv.Type().Key(), key)
		if !ok {
			return nil, errors.UnsupportedOperand("[]", obj, key)
		}
		v := rv.MapIndex(kv)
		if !v.IsValid() {
			return nil, errors.NotFound("key", fmt.Sprint(key))
		}
		return v.Interface(), nil
	}
	return nil, errors.UnsupportedOperand("[]", obj, key)
}

func normIndex(i int64, size int) (int, bool) {
	if i < 0 {
		i += int64(size)
	}
	if i < 0 || i >= int64(size) {
		return 0, false
	}
	return int(i), true
}

func mapKey(t reflect.Type, key any) (reflect.Value, bool) {
	if key == nil {
		return reflect.Value{}, false
	}
	kv := reflect.ValueOf(key)
	if kv.Type().AssignableTo(t) {
		return kv, true
	}
	_, keyNum := toNum(key)
	_, keyStr := toStr(key)
	zero := reflect.Zero(t).Interface()
	_, tNum := toNum(zero)
	_, tStr := toStr(zero)
	if (keyNum && tNum) || (keyStr && tStr) {
		return kv.Convert(t), true
	}
	return reflect.Value{}, false
}

// getAttr reads an exported field, a string map entry, or the result of a
// method taking no arguments.
func getAttr(obj any, name string) (any, error) {
	rv := reflect.ValueOf(obj)
	if !rv.IsValid() {
		return nil, errors.UnsupportedOperand(".", obj)
	}
	if m := rv.MethodByName(name); m.IsValid() && m.Type().NumIn() == 0 {
		return callMethod(m)
	}
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, errors.NotFound("attribute", name)
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Struct:
		if f := rv.FieldByName(name); f.IsValid() && f.CanInterface() {
			return f.Interface(), nil
		}
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			if v := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key())); v.IsValid() {
				return v.Interface(), nil
			}
		}
	}
	return nil, errors.NotFound("attribute", name)
}

func callMethod(m reflect.Value) (any, error) {
	outs := m.Call(nil)
	return fromResults(outs)
}

// fromResults maps function results to a value and an error. A trailing
// error result is returned as the error.
func fromResults(outs []reflect.Value) (any, error) {
	errType := reflect.TypeFor[error]()
	if n := len(outs); n > 0 && outs[n-1].Type() == errType {
		if err, _ := outs[n-1].Interface().(error); err != nil {
			return nil, err
		}
		outs = outs[:n-1]
	}
	switch len(outs) {
	case 0:
		return nil, nil
	case 1:
		return outs[0].Interface(), nil
	}
	values := make([]any, len(outs))
	for i, o := range outs {
		values[i] = o.Interface()
	}
	return values, nil
}

// Callable is a function taking positional and keyword arguments, used by
// Func nodes that need keywords.
type Callable func(args []any, kwargs map[string]any) (any, error)

// callFunc invokes fn with args. Any Go function works when no keywords are
// given; arguments are converted between numeric types as needed.
func callFunc(fn any, args []any, kwargs map[string]any) (any, error) {
	switch f := fn.(type) {
	case Callable:
		return f(args, kwargs)
	case func(args []any, kwargs map[string]any) (any, error):
		return f(args, kwargs)
	}

	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return nil, errors.UnsupportedOperand("call", fn)
	}
	if len(kwargs) > 0 {
		return nil, errors.Newf(errors.ErrCodeUnsupportedOperand, "%T does not accept keyword arguments", fn)
	}
	ft := rv.Type()
	fixed := ft.NumIn()
	if ft.IsVariadic() {
		fixed--
		if len(args) < fixed {
			return nil, errors.Newf(errors.ErrCodeUnsupportedOperand, "%T needs at least %d arguments, got %d", fn, fixed, len(args))
		}
	} else if len(args) != fixed {
		return nil, errors.Newf(errors.ErrCodeUnsupportedOperand, "%T needs %d arguments, got %d", fn, fixed, len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, a := range args {
		var t reflect.Type
		if i < fixed {
			t = ft.In(i)
		} else {
			t = ft.In(fixed).Elem()
		}
		v, err := convertArg(a, t)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		in[i] = v
	}
	return fromResults(rv.Call(in))
}

func convertArg(a any, t reflect.Type) (reflect.Value, error) {
	if a == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(a)
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	if _, ok := toNum(a); ok {
		if _, ok := toNum(reflect.Zero(t).Interface()); ok {
			return v.Convert(t), nil
		}
	}
	return reflect.Value{}, errors.Newf(errors.ErrCodeUnsupportedOperand, "cannot use %T as %s", a, t)
}
