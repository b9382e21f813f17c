// Package symbolic is the Symbolic Value Taxonomy (spec §3, §4.4): a tagged
// variant over {Bool, Int, Float, Str, Seq, Tuple, Dict, Set, FrozenSet,
// Callable, TypeVal, LazyObject, Proxy}, each backed by one or more solver
// expressions. Mirrors the shape of the teacher's internal/typesystem.Type
// — one small struct per variant implementing a shared interface, double
// dispatch on (lhs, rhs) pairs via a promotion table rather than a type
// switch pyramid — generalized from "program types" to "symbolic runtime
// values under active exploration".
package symbolic

import (
	"github.com/crosshair-go/symex/internal/heap"
	"github.com/crosshair-go/symex/internal/smt"
	"github.com/crosshair-go/symex/internal/typerepo"
)

// VKind tags which variant a Value holds.
type VKind uint8

const (
	KBool VKind = iota
	KInt
	KFloat
	KStr
	KSeq
	KTuple
	KDict
	KSet
	KFrozenSet
	KCallable
	KTypeVal
	KLazyObject
	KProxy
)

// Value is the common interface every variant satisfies (spec §3's "every
// symbolic value carries its nominal type, a handle to its solver
// expression(s), and a snapshot reference").
type Value interface {
	VKind() VKind
	NominalType() typerepo.PType
	Snapshot() heap.Snapshot
}

// base carries the three fields every variant shares. Variants embed it
// rather than re-declaring the fields, the same pattern TVar/TCon/TApp use
// for their common Kind() plumbing in the teacher's type system.
type base struct {
	nominal  typerepo.PType
	snapshot heap.Snapshot
}

func (b base) NominalType() typerepo.PType { return b.nominal }
func (b base) Snapshot() heap.Snapshot     { return b.snapshot }

// Expr is implemented by every scalar variant whose value is a single
// solver expression (Bool, Int, Float, Str, TypeVal, Callable); container
// variants expose Len() instead and keep their backing array unexported.
type Expr interface {
	Value
	Expr() smt.Expr
}
