// Package smt is the engine's Solver Facade (spec §4.1): it wraps a
// symbolic-reasoning backend behind a small typed algebra of sorts and
// expressions, exposing declaration, assertion, push/pop checkpoints,
// timeouts, and model extraction.
//
// No Go binding to a real SMT solver (z3, cvc5, …) exists anywhere in the
// examined reference pack; see DESIGN.md for why this facade is therefore
// a hand-built bounded model finder rather than a wrapper over a
// third-party decision procedure — the same position the teacher's own
// bytecode VM and Hindley-Milner type checker occupy in its codebase.
package smt

import "fmt"

// Kind identifies a Sort's shape.
type Kind uint8

const (
	KindBool Kind = iota
	KindInt
	KindReal
	KindStr
	KindHeapRef
	KindPyType
	KindArray
	KindOptional
	KindFunc
)

// Sort is the facade's type algebra: primitive sorts (Bool, Int, Real,
// Str, an opaque HeapRef sort, an enumerated PyType sort) plus composite
// sorts (Array(K,V), Optional(V), and function sorts for symbolic
// callables), per spec §4.1.
type Sort struct {
	Kind   Kind
	Key    *Sort  // KindArray
	Elem   *Sort  // KindArray (value), KindOptional
	Params []Sort // KindFunc
	Ret    *Sort  // KindFunc
}

func Bool() Sort    { return Sort{Kind: KindBool} }
func Int() Sort     { return Sort{Kind: KindInt} }
func Real() Sort    { return Sort{Kind: KindReal} }
func Str() Sort     { return Sort{Kind: KindStr} }
func HeapRef() Sort { return Sort{Kind: KindHeapRef} }
func PyType() Sort  { return Sort{Kind: KindPyType} }

func Array(key, val Sort) Sort {
	k, v := key, val
	return Sort{Kind: KindArray, Key: &k, Elem: &v}
}

func Optional(elem Sort) Sort {
	e := elem
	return Sort{Kind: KindOptional, Elem: &e}
}

func Func(params []Sort, ret Sort) Sort {
	r := ret
	return Sort{Kind: KindFunc, Params: append([]Sort(nil), params...), Ret: &r}
}

func (s Sort) String() string {
	switch s.Kind {
	case KindBool:
		return "Bool"
	case KindInt:
		return "Int"
	case KindReal:
		return "Real"
	case KindStr:
		return "Str"
	case KindHeapRef:
		return "HeapRef"
	case KindPyType:
		return "PyType"
	case KindArray:
		return fmt.Sprintf("Array<%s,%s>", s.Key, s.Elem)
	case KindOptional:
		return fmt.Sprintf("Optional<%s>", s.Elem)
	case KindFunc:
		return fmt.Sprintf("Func%v->%s", s.Params, s.Ret)
	default:
		return "?"
	}
}

func (s Sort) Equal(o Sort) bool {
	if s.Kind != o.Kind {
		return false
	}
	switch s.Kind {
	case KindArray:
		return s.Key.Equal(*o.Key) && s.Elem.Equal(*o.Elem)
	case KindOptional:
		return s.Elem.Equal(*o.Elem)
	case KindFunc:
		if len(s.Params) != len(o.Params) {
			return false
		}
		for i := range s.Params {
			if !s.Params[i].Equal(o.Params[i]) {
				return false
			}
		}
		return s.Ret.Equal(*o.Ret)
	default:
		return true
	}
}
