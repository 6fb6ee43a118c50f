package node

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/kbukum/nodegraph/errors"
)

// ParamKind describes how an argument binds to a parameter.
type ParamKind int

const (
	// ParamPositional binds positionally or by name.
	ParamPositional ParamKind = iota
	// ParamKeywordOnly binds by name only.
	ParamKeywordOnly
	// ParamVarPositional collects excess positional arguments.
	ParamVarPositional
	// ParamVarKeyword collects keyword arguments matching no other parameter.
	ParamVarKeyword
)

func (k ParamKind) String() string {
	switch k {
	case ParamPositional:
		return "positional"
	case ParamKeywordOnly:
		return "keyword-only"
	case ParamVarPositional:
		return "var-positional"
	case ParamVarKeyword:
		return "var-keyword"
	default:
		return fmt.Sprintf("ParamKind(%d)", int(k))
	}
}

// Param is a single declared parameter.
type Param struct {
	Name       string
	Kind       ParamKind
	Default    any
	HasDefault bool
}

// Arg declares a required positional-or-keyword parameter.
func Arg(name string) Param { return Param{Name: name} }

// ArgDefault declares a positional-or-keyword parameter with a default.
func ArgDefault(name string, def any) Param {
	return Param{Name: name, Default: def, HasDefault: true}
}

// Kwarg declares a required keyword-only parameter.
func Kwarg(name string) Param { return Param{Name: name, Kind: ParamKeywordOnly} }

// KwargDefault declares a keyword-only parameter with a default.
func KwargDefault(name string, def any) Param {
	return Param{Name: name, Kind: ParamKeywordOnly, Default: def, HasDefault: true}
}

// VarArgs declares the var-positional slot.
func VarArgs(name string) Param { return Param{Name: name, Kind: ParamVarPositional} }

// VarKwargs declares the var-keyword slot.
func VarKwargs(name string) Param { return Param{Name: name, Kind: ParamVarKeyword} }

// Signature is an ordered parameter list.
type Signature []Param

// Validate checks ordering and uniqueness rules: positional parameters come
// first, at most one var-positional and one var-keyword slot exist, and the
// var-keyword slot is last.
func (s Signature) Validate(kind string) error {
	seen := make(map[string]bool, len(s))
	var sawVarPos, sawVarKw, sawKwOnly, sawDefault bool

	for _, p := range s {
		if p.Name == "" {
			return errors.InvalidSignature(kind, "empty parameter name")
		}
		if seen[p.Name] {
			return errors.InvalidSignature(kind, fmt.Sprintf("duplicate parameter %q", p.Name))
		}
		seen[p.Name] = true

		if sawVarKw {
			return errors.InvalidSignature(kind, fmt.Sprintf("parameter %q follows the var-keyword slot", p.Name))
		}

		switch p.Kind {
		case ParamPositional:
			if sawVarPos || sawKwOnly {
				return errors.InvalidSignature(kind, fmt.Sprintf("positional parameter %q follows keyword-only parameters", p.Name))
			}
			if sawDefault && !p.HasDefault {
				return errors.InvalidSignature(kind, fmt.Sprintf("parameter %q without default follows parameter with default", p.Name))
			}
			sawDefault = sawDefault || p.HasDefault
		case ParamKeywordOnly:
			sawKwOnly = true
		case ParamVarPositional:
			if sawVarPos {
				return errors.InvalidSignature(kind, "more than one var-positional slot")
			}
			if sawKwOnly {
				return errors.InvalidSignature(kind, "var-positional slot follows keyword-only parameters")
			}
			if p.HasDefault {
				return errors.InvalidSignature(kind, "var-positional slot cannot have a default")
			}
			sawVarPos = true
		case ParamVarKeyword:
			if p.HasDefault {
				return errors.InvalidSignature(kind, "var-keyword slot cannot have a default")
			}
			sawVarKw = true
		default:
			return errors.InvalidSignature(kind, fmt.Sprintf("unknown parameter kind %v", p.Kind))
		}
	}
	return nil
}

// Names returns the parameter names in declaration order.
func (s Signature) Names() []string {
	names := make([]string, len(s))
	for i, p := range s {
		names[i] = p.Name
	}
	return names
}

// Param returns the parameter named name.
func (s Signature) Param(name string) (Param, bool) {
	for _, p := range s {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

func (s Signature) String() string {
	parts := make([]string, len(s))
	for i, p := range s {
		switch p.Kind {
		case ParamVarPositional:
			parts[i] = "*" + p.Name
		case ParamVarKeyword:
			parts[i] = "**" + p.Name
		default:
			parts[i] = p.Name
			if p.HasDefault {
				parts[i] += fmt.Sprintf("=%v", p.Default)
			}
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (s Signature) slot(kind ParamKind) string {
	for _, p := range s {
		if p.Kind == kind {
			return p.Name
		}
	}
	return ""
}

// bind performs partial binding of construction arguments. Only supplied
// values are recorded; defaults stay in the signature.
func (s Signature) bind(kind string, args []any, kwargs map[string]any) (map[string]any, error) {
	bound := make(map[string]any, len(s))
	varPos := s.slot(ParamVarPositional)
	varKw := s.slot(ParamVarKeyword)

	i := 0
	for _, p := range s {
		if i == len(args) || p.Kind != ParamPositional {
			break
		}
		bound[p.Name] = args[i]
		i++
	}
	if i < len(args) {
		if varPos == "" {
			return nil, errors.InputBinding(kind, fmt.Sprintf("too many positional arguments: got %d", len(args)))
		}
		bound[varPos] = append([]any(nil), args[i:]...)
	}

	extra := make(map[string]any)
	for _, name := range sortedKeys(kwargs) {
		value := kwargs[name]
		p, ok := s.Param(name)
		if ok && (p.Kind == ParamPositional || p.Kind == ParamKeywordOnly) {
			if _, dup := bound[name]; dup {
				return nil, errors.InputBinding(kind, fmt.Sprintf("multiple values for argument %q", name))
			}
			bound[name] = value
			continue
		}
		if varKw == "" {
			return nil, errors.InputBinding(kind, fmt.Sprintf("unexpected keyword argument %q", name))
		}
		extra[name] = value
	}
	if len(extra) > 0 {
		bound[varKw] = extra
	}
	return bound, nil
}

// sequence converts any slice or array to []any.
func sequence(v any) ([]any, bool) {
	switch s := v.(type) {
	case nil:
		return nil, false
	case []any:
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// mapping converts any map with string keys to map[string]any.
func mapping(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case nil:
		return nil, false
	case map[string]any:
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
