package symbolic

import (
	"fmt"

	"github.com/crosshair-go/symex/internal/heap"
	"github.com/crosshair-go/symex/internal/smt"
)

// rank implements the promotion lattice bool -> int -> float (spec §3,
// §4.4, §8's numeric-promotion testable property). Values outside the
// numeric tower have no rank and cannot participate in arithmetic.
func rank(k VKind) (int, bool) {
	switch k {
	case KBool:
		return 0, true
	case KInt:
		return 1, true
	case KFloat:
		return 2, true
	default:
		return 0, false
	}
}

// promote lifts a and b to their join in the lattice, converting the lower
// rank's solver expression up (bool -> int via an Ite(e, 1, 0), int -> real
// via smt.Div by the real constant 1; no separate sort-cast expression is
// used).
func promote(a, b Value) (VKind, smt.Expr, smt.Expr, error) {
	ra, aok := rank(a.VKind())
	rb, bok := rank(b.VKind())
	if !aok || !bok {
		return 0, smt.Expr{}, smt.Expr{}, fmt.Errorf("symbolic: cannot promote %v and %v", a.VKind(), b.VKind())
	}
	ae, err := asExpr(a)
	if err != nil {
		return 0, smt.Expr{}, smt.Expr{}, err
	}
	be, err := asExpr(b)
	if err != nil {
		return 0, smt.Expr{}, smt.Expr{}, err
	}

	target := ra
	if rb > target {
		target = rb
	}

	ae = liftTo(ae, ra, target)
	be = liftTo(be, rb, target)

	kind := KBool
	switch target {
	case 1:
		kind = KInt
	case 2:
		kind = KFloat
	}
	return kind, ae, be, nil
}

func liftTo(e smt.Expr, from, to int) smt.Expr {
	for from < to {
		switch from {
		case 0: // bool -> int
			e = smt.Ite(e, smt.IntConst(1), smt.IntConst(0))
		case 1: // int -> float
			e = smt.Div(e, smt.RealConst(1))
		}
		from++
	}
	return e
}

func wrap(kind VKind, snap heap.Snapshot, e smt.Expr) Value {
	switch kind {
	case KBool:
		return NewBool(snap, e)
	case KInt:
		return NewInt(snap, e)
	default:
		return NewFloat(snap, e)
	}
}
