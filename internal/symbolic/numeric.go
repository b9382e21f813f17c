package symbolic

import (
	"fmt"

	"github.com/crosshair-go/symex/internal/heap"
	"github.com/crosshair-go/symex/internal/smt"
	"github.com/crosshair-go/symex/internal/typerepo"
)

var (
	boolType  = typerepo.PType{Name: "bool"}
	intType   = typerepo.PType{Name: "int"}
	floatType = typerepo.PType{Name: "float"}
	strType   = typerepo.PType{Name: "str"}
)

// Bool is the symbolic boolean variant; per spec §4.4 it also answers the
// integer operator set since bool is the bottom of the promotion lattice.
type Bool struct {
	base
	expr smt.Expr
}

func NewBool(snap heap.Snapshot, e smt.Expr) Bool {
	return Bool{base: base{nominal: boolType, snapshot: snap}, expr: e}
}

func (b Bool) VKind() VKind   { return KBool }
func (b Bool) Expr() smt.Expr { return b.expr }

// Int is the symbolic integer variant (spec §4.4): full ring operators plus
// solver-safe floor division/modulo.
type Int struct {
	base
	expr smt.Expr
}

func NewInt(snap heap.Snapshot, e smt.Expr) Int {
	return Int{base: base{nominal: intType, snapshot: snap}, expr: e}
}

func (i Int) VKind() VKind   { return KInt }
func (i Int) Expr() smt.Expr { return i.expr }

// Float is the symbolic real-domain variant standing in for Python's float
// (spec §1: "real sort chosen over floating sort for feasibility").
type Float struct {
	base
	expr smt.Expr
}

func NewFloat(snap heap.Snapshot, e smt.Expr) Float {
	return Float{base: base{nominal: floatType, snapshot: snap}, expr: e}
}

func (f Float) VKind() VKind   { return KFloat }
func (f Float) Expr() smt.Expr { return f.expr }

// Str is the symbolic string variant.
type Str struct {
	base
	expr smt.Expr
}

func NewStr(snap heap.Snapshot, e smt.Expr) Str {
	return Str{base: base{nominal: strType, snapshot: snap}, expr: e}
}

func (s Str) VKind() VKind   { return KStr }
func (s Str) Expr() smt.Expr { return s.expr }

func asExpr(v Value) (smt.Expr, error) {
	e, ok := v.(Expr)
	if !ok {
		return smt.Expr{}, fmt.Errorf("symbolic: %v has no scalar expression", v.VKind())
	}
	return e.Expr(), nil
}
