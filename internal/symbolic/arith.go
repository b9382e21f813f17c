package symbolic

import (
	"fmt"

	"github.com/crosshair-go/symex/internal/smt"
)

// Add, Sub, Mul implement the ordered-field operator set across the
// bool/int/float promotion lattice (spec §3, §4.4, §8).
func Add(a, b Value) (Value, error) { return binArith(a, b, smt.Add) }
func Sub(a, b Value) (Value, error) { return binArith(a, b, smt.Sub) }
func Mul(a, b Value) (Value, error) { return binArith(a, b, smt.Mul) }

func binArith(a, b Value, op func(smt.Expr, smt.Expr) smt.Expr) (Value, error) {
	kind, ae, be, err := promote(a, b)
	if err != nil {
		return nil, err
	}
	return wrap(kind, a.Snapshot(), op(ae, be)), nil
}

// TrueDiv always yields Float (Python's `/`, spec §4.4's real-domain
// division).
func TrueDiv(a, b Value) (Value, error) {
	_, ae, be, err := promote(a, b)
	if err != nil {
		return nil, err
	}
	return NewFloat(a.Snapshot(), smt.Div(ae, be)), nil
}

// FloorDiv implements `x // y` with the sign-aware rewrite of spec §4.4:
// `x // y = if x%y=0 or x≥0==y≥0 then x/y else (x/y - 1)`, delegated to the
// solver's OpFloorDiv which already encodes that rule (internal/smt/eval.go
// floorDiv); only integer operands are accepted, matching the spec's
// placement of floor-division under the Int variant.
func FloorDiv(a, b Value) (Value, error) {
	ai, aok := a.(Int)
	bi, bok := b.(Int)
	if !aok || !bok {
		return nil, fmt.Errorf("symbolic: floor division is only defined on Int operands")
	}
	return NewInt(a.Snapshot(), smt.FloorDiv(ai.expr, bi.expr)), nil
}

// Mod is the integer modulo paired with FloorDiv's sign convention.
func Mod(a, b Value) (Value, error) {
	ai, aok := a.(Int)
	bi, bok := b.(Int)
	if !aok || !bok {
		return nil, fmt.Errorf("symbolic: modulo is only defined on Int operands")
	}
	return NewInt(a.Snapshot(), smt.Mod(ai.expr, bi.expr)), nil
}

// Neg implements unary negation across the numeric lattice.
func Neg(a Value) (Value, error) {
	rk, ok := rank(a.VKind())
	if !ok {
		return nil, fmt.Errorf("symbolic: cannot negate %v", a.VKind())
	}
	e, err := asExpr(a)
	if err != nil {
		return nil, err
	}
	// Negating a bool promotes to int, matching Python's -True == -1.
	target := rk
	if target < 1 {
		target = 1
	}
	kind := KInt
	if target == 2 {
		kind = KFloat
	}
	return wrap(kind, a.Snapshot(), smt.Neg(liftTo(e, rk, target))), nil
}

// Compare dispatches <, <=, >, >= across the promotion lattice, returning a
// Bool.
func Compare(a, b Value, op func(smt.Expr, smt.Expr) smt.Expr) (Bool, error) {
	_, ae, be, err := promote(a, b)
	if err != nil {
		return Bool{}, err
	}
	return NewBool(a.Snapshot(), op(ae, be)), nil
}

// Equal is defined over any two Expr-backed values sharing a rank, or
// structurally for containers (handled in deepequal.go's DeepEqual since
// the spec's deep-equality for mutation auditing needs cycle detection that
// a plain == cannot provide).
func Equal(a, b Value) (Bool, error) {
	if _, aok := rank(a.VKind()); aok {
		if _, bok := rank(b.VKind()); bok {
			return Compare(a, b, smt.Eq)
		}
	}
	ae, aok := a.(Expr)
	be, bok := b.(Expr)
	if aok && bok && a.VKind() == b.VKind() {
		return NewBool(a.Snapshot(), smt.Eq(ae.Expr(), be.Expr())), nil
	}
	return Bool{}, fmt.Errorf("symbolic: %v and %v are not directly comparable", a.VKind(), b.VKind())
}

// LogicalAnd, LogicalOr, LogicalNot implement Bool's logical operators.
func LogicalAnd(a, b Bool) Bool { return NewBool(a.Snapshot(), smt.And(a.expr, b.expr)) }
func LogicalOr(a, b Bool) Bool  { return NewBool(a.Snapshot(), smt.Or(a.expr, b.expr)) }
func LogicalNot(a Bool) Bool    { return NewBool(a.Snapshot(), smt.Not(a.expr)) }

// ToInt, ToFloat implement the numeric coercions named in spec §4.4 for
// Bool and Int.
func ToInt(a Value) (Int, error) {
	rk, ok := rank(a.VKind())
	if !ok {
		return Int{}, fmt.Errorf("symbolic: %v has no integer coercion", a.VKind())
	}
	e, err := asExpr(a)
	if err != nil {
		return Int{}, err
	}
	return NewInt(a.Snapshot(), liftTo(e, rk, 1)), nil
}

func ToFloat(a Value) (Float, error) {
	rk, ok := rank(a.VKind())
	if !ok {
		return Float{}, fmt.Errorf("symbolic: %v has no float coercion", a.VKind())
	}
	e, err := asExpr(a)
	if err != nil {
		return Float{}, err
	}
	return NewFloat(a.Snapshot(), liftTo(e, rk, 2)), nil
}
