package proxyfactory

import "github.com/crosshair-go/symex/internal/symbolic"

// FromValue reads back the TypeSpec shape of an already-synthesized value,
// used by the Short-Circuit Context to unify a callee's declared parameter
// types against the actual argument values it was called with (spec
// §4.7's "unify any type variables in the callee signature against actual
// argument types").
func FromValue(v symbolic.Value) TypeSpec {
	switch v.VKind() {
	case symbolic.KBool:
		return Bool()
	case symbolic.KInt:
		return Int()
	case symbolic.KFloat:
		return Float()
	case symbolic.KStr:
		return Str()
	default:
		return ClassOf(v.NominalType())
	}
}

// Substitute replaces every named TypeVar found in bindings, leaving
// unbound or unrecognized typevars and every other shape untouched.
func Substitute(t TypeSpec, bindings map[string]TypeSpec) TypeSpec {
	switch t.Kind {
	case KTypeVar:
		if t.VarName != "" {
			if bound, ok := bindings[t.VarName]; ok {
				return bound
			}
		}
		return t
	case KSeq, KTuple, KSet, KFrozenSet:
		e := Substitute(*t.Elem, bindings)
		t.Elem = &e
		return t
	case KDict:
		k := Substitute(*t.Key, bindings)
		v := Substitute(*t.Val, bindings)
		t.Key, t.Val = &k, &v
		return t
	case KCallable:
		params := make([]TypeSpec, len(t.Params))
		for i, p := range t.Params {
			params[i] = Substitute(p, bindings)
		}
		ret := Substitute(*t.Ret, bindings)
		t.Params, t.Ret = params, &ret
		return t
	case KUnion:
		arms := make([]TypeSpec, len(t.Arms))
		for i, a := range t.Arms {
			arms[i] = Substitute(a, bindings)
		}
		t.Arms = arms
		return t
	default:
		return t
	}
}

// Unify walks declared parameter types in lockstep with the actual
// argument types and records a binding for every named TypeVar it finds,
// seeding bindings (caller-owned, so repeated calls accumulate).
func Unify(params []TypeSpec, actual []TypeSpec, bindings map[string]TypeSpec) {
	for i := range params {
		if i >= len(actual) {
			return
		}
		unifyOne(params[i], actual[i], bindings)
	}
}

func unifyOne(param, actual TypeSpec, bindings map[string]TypeSpec) {
	switch param.Kind {
	case KTypeVar:
		if param.VarName != "" {
			if _, ok := bindings[param.VarName]; !ok {
				bindings[param.VarName] = actual
			}
		}
	case KSeq, KTuple, KSet, KFrozenSet:
		if actual.Elem != nil && param.Elem != nil {
			unifyOne(*param.Elem, *actual.Elem, bindings)
		}
	case KDict:
		if actual.Key != nil && actual.Val != nil && param.Key != nil && param.Val != nil {
			unifyOne(*param.Key, *actual.Key, bindings)
			unifyOne(*param.Val, *actual.Val, bindings)
		}
	}
}
