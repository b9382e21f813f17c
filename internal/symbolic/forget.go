package symbolic

import (
	"context"
	"fmt"

	"github.com/crosshair-go/symex/internal/smt"
	"github.com/crosshair-go/symex/internal/statespace"
)

// Forget implements spec §4.7's forget_contents(v, space): mutable
// container variants (Seq, Dict, Set) get a fresh solver handle of the
// same shape so later callers see unconstrained state; Proxy recurses
// field by field; immutable variants (Bool, Int, Float, Str, Tuple,
// FrozenSet, Callable, TypeVal) are left alone, mirroring Python's own
// immutability of those types. LazyObject is left alone unforced (forcing
// it here would be an observable side effect forget_contents must not
// cause).
func Forget(ctx context.Context, st *statespace.State, v Value, name string) (Value, error) {
	switch val := v.(type) {
	case Bool, Int, Float, Str, Tuple, Callable, TypeVal, *LazyObject:
		return v, nil

	case Seq:
		arr := st.Solver().DeclareConst(name+".arr", smt.Array(smt.Int(), elemSort(val.elemKind)))
		length := NewInt(val.Snapshot(), st.Solver().DeclareConst(name+".len", smt.Int()))
		st.Solver().Assert(smt.Ge(length.expr, smt.IntConst(0)))
		return NewSeq(val.Snapshot(), val.elemKind, arr, length), nil

	case Dict:
		arr := st.Solver().DeclareConst(name+".arr", smt.Array(elemSort(val.keyKind), smt.Optional(elemSort(val.valKind))))
		length := NewInt(val.Snapshot(), st.Solver().DeclareConst(name+".len", smt.Int()))
		st.Solver().Assert(smt.Ge(length.expr, smt.IntConst(0)))
		return NewDict(val.Snapshot(), val.keyKind, val.valKind, arr, length), nil

	case SetVariant:
		if val.frozen {
			return v, nil
		}
		arr := st.Solver().DeclareConst(name+".arr", smt.Array(elemSort(val.elemKind), smt.Bool()))
		length := NewInt(val.Snapshot(), st.Solver().DeclareConst(name+".len", smt.Int()))
		st.Solver().Assert(smt.Ge(length.expr, smt.IntConst(0)))
		return NewSet(val.Snapshot(), val.elemKind, arr, length), nil

	case *Proxy:
		forgotten := make(map[string]Value, len(val.Fields))
		for fname, fv := range val.Fields {
			nv, err := Forget(ctx, st, fv, name+"."+fname)
			if err != nil {
				return nil, err
			}
			forgotten[fname] = nv
		}
		return NewProxy(val.Snapshot(), val.NominalType(), forgotten, val.Opaque), nil

	default:
		return nil, fmt.Errorf("symbolic: forget_contents: unsupported shape %v", v.VKind())
	}
}
