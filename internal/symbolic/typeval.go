package symbolic

import (
	"context"

	"github.com/crosshair-go/symex/internal/heap"
	"github.com/crosshair-go/symex/internal/smt"
	"github.com/crosshair-go/symex/internal/statespace"
	"github.com/crosshair-go/symex/internal/typerepo"
)

// TypeVal is spec §3/§4.4's SmtType: a symbolic program type carrying a cap
// (upper-bound nominal type). The solver is asserted `issubclass(value,
// cap)` at construction; the cap may only tighten afterward (spec §8's
// "Type cap tightening" testable property).
type TypeVal struct {
	base
	expr smt.Expr // PyType-sorted
	cap  typerepo.PType
}

func NewTypeVal(ctx context.Context, st *statespace.State, repo *typerepo.Repo, snap heap.Snapshot, name string, cap typerepo.PType) TypeVal {
	repo.Register(cap)
	e := st.Solver().DeclareConst(name, smt.PyType())
	st.Solver().Assert(smt.Issubclass(e, smt.StrConst(cap.Tag())))
	return TypeVal{
		base: base{nominal: typerepo.PType{Name: "type"}, snapshot: snap},
		expr: e,
		cap:  cap,
	}
}

func (t TypeVal) VKind() VKind   { return KTypeVal }
func (t TypeVal) Expr() smt.Expr { return t.expr }
func (t TypeVal) Cap() typerepo.PType { return t.cap }

// IsSubclassOf evaluates `issubclass(t, u)` symbolically by forking on the
// assertion, then tightens the cap to u when the branch taken is true and u
// is a strict subtype of the prior cap — never loosening it (spec §3, §8).
func (t TypeVal) IsSubclassOf(ctx context.Context, st *statespace.State, repo *typerepo.Repo, u typerepo.PType) (bool, TypeVal, error) {
	repo.Register(u)
	cond := smt.Issubclass(t.expr, smt.StrConst(u.Tag()))
	yes, err := st.ChoosePossible(ctx, cond, false)
	if err != nil {
		return false, t, err
	}
	if yes && u.Tag() != t.cap.Tag() && repo.Issubclass(u.Tag(), t.cap.Tag()) {
		t.cap = u
	}
	return yes, t, nil
}

// Realize chooses a concrete subtype via repeated binary decisions over
// subclasses_of(cap), preferring the current cap (spec §4.4's TypeVal
// realization).
func (t TypeVal) Realize(ctx context.Context, st *statespace.State, repo *typerepo.Repo) (typerepo.PType, error) {
	candidates, err := repo.SubclassesOf(t.cap)
	if err != nil {
		return typerepo.PType{}, err
	}
	if len(candidates) == 0 {
		return t.cap, nil
	}
	for _, cand := range candidates {
		if cand.Tag() == t.cap.Tag() {
			continue
		}
		cond := smt.Issubclass(t.expr, smt.StrConst(cand.Tag()))
		isCand, err := st.ChoosePossible(ctx, cond, false)
		if err != nil {
			return typerepo.PType{}, err
		}
		if isCand {
			return cand, nil
		}
	}
	return t.cap, nil
}
