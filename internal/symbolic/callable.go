package symbolic

import (
	"github.com/crosshair-go/symex/internal/heap"
	"github.com/crosshair-go/symex/internal/smt"
	"github.com/crosshair-go/symex/internal/typerepo"
)

// Callable is spec §4.4's Callable: a solver uninterpreted function over
// argument sorts to a return sort, used by the Proxy Factory to synthesize
// a symbolic value for a `Callable[...]`-typed parameter.
type Callable struct {
	base
	fn smt.Expr // OpVar of KindFunc sort
}

func NewCallable(snap heap.Snapshot, name string, params []smt.Sort, ret smt.Sort) Callable {
	return Callable{
		base: base{nominal: typerepo.PType{Name: "Callable"}, snapshot: snap},
		fn:   smt.Var(name, smt.Func(params, ret)),
	}
}

func (c Callable) VKind() VKind   { return KCallable }
func (c Callable) Expr() smt.Expr { return c.fn }

// Call applies the uninterpreted function to args, returning the raw
// result expression; the caller lifts it into the declared return variant.
func (c Callable) Call(args ...smt.Expr) smt.Expr { return smt.Apply(c.fn, args...) }
