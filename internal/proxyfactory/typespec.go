// Package proxyfactory is the Proxy Factory (spec §4.6): given a requested
// program type it synthesizes a symbolic value for it, dispatching to the
// Symbolic Value Taxonomy's scalar and container variants, to a registered
// class's constructor ("concrete instantiation with symbolic members"), or
// to an opaque proxy when no constructor applies.
package proxyfactory

import "github.com/crosshair-go/symex/internal/typerepo"

// Kind tags a TypeSpec variant. TypeSpec is the Go encoding of the "T"
// proxy_for_type is asked to synthesize: a closed algebra mirroring the
// shape internal/symbolic.Value and internal/typesystem.Type already use
// (tagged variant over shared fields) rather than interface{}.
type Kind uint8

const (
	KBool Kind = iota
	KInt
	KFloat
	KStr
	KSeq
	KTuple
	KDict
	KSet
	KFrozenSet
	KCallable
	KUnion
	KTypeVar
	KClass
	KAny
)

// TypeSpec names a requested type. Only the fields relevant to Kind are
// populated; the rest are zero.
type TypeSpec struct {
	Kind   Kind
	Elem   *TypeSpec   // Seq, Tuple, Set, FrozenSet
	Key    *TypeSpec   // Dict
	Val    *TypeSpec   // Dict
	Params []TypeSpec  // Callable
	Ret    *TypeSpec   // Callable
	Arms   []TypeSpec  // Union
	Bound  *TypeSpec   // TypeVar; nil means unbound ("object")
	Class  typerepo.PType

	// VarName identifies a TypeVar for unification against an actual
	// argument type (spec §4.7's "unify any type variables in the
	// callee signature against actual argument types"); two TypeSpecs
	// with Kind == KTypeVar and equal VarName refer to the same
	// parameter.
	VarName string
}

func Bool() TypeSpec                 { return TypeSpec{Kind: KBool} }
func Int() TypeSpec                  { return TypeSpec{Kind: KInt} }
func Float() TypeSpec                { return TypeSpec{Kind: KFloat} }
func Str() TypeSpec                  { return TypeSpec{Kind: KStr} }
func SeqOf(elem TypeSpec) TypeSpec   { return TypeSpec{Kind: KSeq, Elem: &elem} }
func TupleOf(elem TypeSpec) TypeSpec { return TypeSpec{Kind: KTuple, Elem: &elem} }
func DictOf(key, val TypeSpec) TypeSpec {
	return TypeSpec{Kind: KDict, Key: &key, Val: &val}
}
func SetOf(elem TypeSpec) TypeSpec       { return TypeSpec{Kind: KSet, Elem: &elem} }
func FrozenSetOf(elem TypeSpec) TypeSpec { return TypeSpec{Kind: KFrozenSet, Elem: &elem} }
func CallableOf(params []TypeSpec, ret TypeSpec) TypeSpec {
	return TypeSpec{Kind: KCallable, Params: params, Ret: &ret}
}
func UnionOf(arms ...TypeSpec) TypeSpec       { return TypeSpec{Kind: KUnion, Arms: arms} }
func TypeVarBoundBy(bound TypeSpec) TypeSpec { return TypeSpec{Kind: KTypeVar, Bound: &bound} }
func UnboundTypeVar() TypeSpec                { return TypeSpec{Kind: KTypeVar} }
func TypeVarNamed(name string, bound *TypeSpec) TypeSpec {
	return TypeSpec{Kind: KTypeVar, VarName: name, Bound: bound}
}
func ClassOf(t typerepo.PType) TypeSpec       { return TypeSpec{Kind: KClass, Class: t} }
func Any() TypeSpec                           { return TypeSpec{Kind: KAny} }

// ObjectType is the root type typevars and Any normalize to, matching
// Python's `object` as the universal upper bound.
var ObjectType = typerepo.PType{Name: "object"}

// normalize resolves typevars to their bound (or object) and Any to
// object, spec §4.6's first bullet ("typevars -> bound or object; Any ->
// object").
func normalize(t TypeSpec) TypeSpec {
	switch t.Kind {
	case KTypeVar:
		if t.Bound != nil {
			return normalize(*t.Bound)
		}
		return TypeSpec{Kind: KClass, Class: ObjectType}
	case KAny:
		return TypeSpec{Kind: KClass, Class: ObjectType}
	default:
		return t
	}
}
