package symbolic

import (
	"context"
	"fmt"

	"github.com/crosshair-go/symex/internal/smt"
	"github.com/crosshair-go/symex/internal/statespace"
)

// ErrIndexOutOfRange is raised by ProcessIndex when an integer index is
// provably out of bounds on every feasible path (spec §4.4).
var ErrIndexOutOfRange = fmt.Errorf("symbolic: index out of range")

// ProcessIndex implements `process_slice_vs_symbolic_len`'s integer-index
// case: abort with ErrIndexOutOfRange iff `i ≥ L ∨ i < -L`, else normalize
// a negative index by adding L. The normalization branches via an actual
// fork on the sign of i rather than an smt.Ite, per spec §4.4's "avoid
// heavy queries" rationale — a fork lets the rest of the path's reasoning
// proceed with a concrete-shaped (non-negative) index expression instead of
// carrying the conditional through every subsequent Select.
func ProcessIndex(ctx context.Context, st *statespace.State, i, length Int) (Int, error) {
	inRange, err := st.ChoosePossible(ctx, smt.And(smt.Ge(i.expr, smt.Neg(length.expr)), smt.Lt(i.expr, length.expr)), true)
	if err != nil {
		return Int{}, err
	}
	if !inRange {
		return Int{}, ErrIndexOutOfRange
	}

	negative, err := st.ChoosePossible(ctx, smt.Lt(i.expr, smt.IntConst(0)), false)
	if err != nil {
		return Int{}, err
	}
	if negative {
		return NewInt(i.Snapshot(), smt.Add(i.expr, length.expr)), nil
	}
	return i, nil
}

// ProcessSlice implements the slice-with-step case: rejects a non-unit
// step, then normalizes start/stop the way Python's slice.indices() would,
// clamped into [0, length].
func ProcessSlice(ctx context.Context, st *statespace.State, a, b *Int, step *int64, length Int) (start, stop Int, err error) {
	if step != nil && *step != 1 {
		return Int{}, Int{}, fmt.Errorf("symbolic: non-unit slice step is not supported")
	}

	start = NewInt(length.Snapshot(), smt.IntConst(0))
	stop = length

	if a != nil {
		start, err = normalizeEndpoint(ctx, st, *a, length)
		if err != nil {
			return Int{}, Int{}, err
		}
	}
	if b != nil {
		stop, err = normalizeEndpoint(ctx, st, *b, length)
		if err != nil {
			return Int{}, Int{}, err
		}
	}

	clampedStop, err := st.ChoosePossible(ctx, smt.Lt(stop.expr, start.expr), false)
	if err != nil {
		return Int{}, Int{}, err
	}
	if clampedStop {
		stop = start
	}
	return start, stop, nil
}

// normalizeEndpoint clamps a slice endpoint into [0, length], forking on
// negativity and on exceeding length, following the same "fork, don't
// smt.Ite" discipline as ProcessIndex.
func normalizeEndpoint(ctx context.Context, st *statespace.State, v, length Int) (Int, error) {
	negative, err := st.ChoosePossible(ctx, smt.Lt(v.expr, smt.IntConst(0)), false)
	if err != nil {
		return Int{}, err
	}
	e := v.expr
	if negative {
		e = smt.Add(e, length.expr)
	}
	tooLow, err := st.ChoosePossible(ctx, smt.Lt(e, smt.IntConst(0)), false)
	if err != nil {
		return Int{}, err
	}
	if tooLow {
		e = smt.IntConst(0)
	}
	tooHigh, err := st.ChoosePossible(ctx, smt.Gt(e, length.expr), false)
	if err != nil {
		return Int{}, err
	}
	if tooHigh {
		e = length.expr
	}
	return NewInt(v.Snapshot(), e), nil
}
