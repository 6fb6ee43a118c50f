package node

import (
	"reflect"
	"unsafe"

	"github.com/google/go-cmp/cmp"
)

// equalValues decides whether an evaluated input changed. Identical values
// are equal, values of different dynamic types are not, and everything else
// is compared with == or, for incomparable types, cmp.Equal. A comparison
// that panics counts as a change.
func equalValues(a, b any) (equal bool) {
	defer func() {
		if recover() != nil {
			equal = false
		}
	}()

	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	if reflect.TypeOf(a).Kind() == reflect.Func {
		return funcIdentity(a) == funcIdentity(b)
	}
	if reflect.TypeOf(a).Comparable() {
		if eq, ok := compareSafely(a, b); ok {
			return eq
		}
	}
	return cmp.Equal(a, b)
}

// compareSafely applies == and reports ok=false when it panics, which
// happens for comparable types holding incomparable dynamic values.
func compareSafely(a, b any) (equal, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return a == b, true
}

// equalInput compares two input values, looking inside variadic containers
// element by element so nodes held there compare by identity.
func equalInput(a, b any) bool {
	if sa, ok := a.([]any); ok {
		sb, ok := b.([]any)
		if !ok || len(sa) != len(sb) {
			return false
		}
		for i := range sa {
			if !equalValues(sa[i], sb[i]) {
				return false
			}
		}
		return true
	}
	if ma, ok := a.(map[string]any); ok {
		mb, ok := b.(map[string]any)
		if !ok || len(ma) != len(mb) {
			return false
		}
		for k, va := range ma {
			vb, ok := mb[k]
			if !ok || !equalValues(va, vb) {
				return false
			}
		}
		return true
	}
	return equalValues(a, b)
}

// funcIdentity returns the closure pointer held in the interface. Copies of
// one func value share it; separately created closures do not.
func funcIdentity(f any) unsafe.Pointer {
	return (*[2]unsafe.Pointer)(unsafe.Pointer(&f))[1]
}
