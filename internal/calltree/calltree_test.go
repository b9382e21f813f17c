package calltree

import (
	"context"
	"testing"
	"time"

	"github.com/crosshair-go/symex/internal/callattempt"
	"github.com/crosshair-go/symex/internal/conditions"
	"github.com/crosshair-go/symex/internal/enforcement"
	"github.com/crosshair-go/symex/internal/heap"
	"github.com/crosshair-go/symex/internal/proxyfactory"
	"github.com/crosshair-go/symex/internal/smt"
	"github.com/crosshair-go/symex/internal/statespace"
	"github.com/crosshair-go/symex/internal/symbolic"
	"github.com/crosshair-go/symex/internal/typerepo"
)

type emptyRegistry struct{}

func (emptyRegistry) Lookup(t typerepo.PType) (proxyfactory.ClassDescriptor, bool) {
	return proxyfactory.ClassDescriptor{}, false
}

func newDeps() Deps {
	repo := typerepo.New(nil)
	return Deps{
		Repo:            repo,
		Heap:            heap.New(),
		Root:            statespace.NewRoot(),
		SolverTimeout:   200 * time.Millisecond,
		PerPathTimeout:  500 * time.Millisecond,
		MaxForksPerPath: 128,
		Registry:        emptyRegistry{},
	}
}

// def f(x: int) -> int: return x + 1, postcondition _ > x ⇒ Confirmed, no
// messages (spec §8 scenario 1).
func TestRunConfirmsIncrementWithNoMessages(t *testing.T) {
	deps := newDeps()
	deps.Body = func(ctx context.Context, st *statespace.State, ctrl *enforcement.Controller, args []symbolic.Value) (symbolic.Value, error) {
		one := symbolic.NewInt(heap.Snapshot(0), smt.IntConst(1))
		return symbolic.Add(args[0], one)
	}

	fc := conditions.FnConditions{
		Sig: conditions.Signature{
			Params: []conditions.Param{{Name: "x", Type: proxyfactory.Int()}},
			Ret:    proxyfactory.Int(),
		},
		Post: &conditions.ExprCondition{
			Src: "_ > x",
			Fn: func(ctx context.Context, st *statespace.State, b map[string]symbolic.Value) (bool, error) {
				cmp, err := symbolic.Compare(b["__return__"], b["x"], smt.Gt)
				if err != nil {
					return false, err
				}
				return st.ChoosePossible(ctx, cmp.Expr(), true)
			},
		},
	}

	analysis, err := Run(context.Background(), deps, fc, "f", time.Now().Add(2*time.Second))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if analysis.Status != statespace.Confirmed {
		t.Fatalf("expected Confirmed, got %v (messages=%v)", analysis.Status, analysis.Messages)
	}
	if len(analysis.Messages) != 0 {
		t.Fatalf("expected no messages, got %v", analysis.Messages)
	}
}

// A precondition that is always false ⇒ every path fails it, so the
// analyzer reports exactly one pre_unsat message.
func TestRunPreUnsatWhenAllPathsFailPrecondition(t *testing.T) {
	deps := newDeps()
	deps.Body = func(ctx context.Context, st *statespace.State, ctrl *enforcement.Controller, args []symbolic.Value) (symbolic.Value, error) {
		return args[0], nil
	}

	fc := conditions.FnConditions{
		Sig: conditions.Signature{
			Params: []conditions.Param{{Name: "x", Type: proxyfactory.Int()}},
			Ret:    proxyfactory.Int(),
		},
		Pre: []conditions.Condition{
			&conditions.ExprCondition{
				Src: "False",
				Ln:  7,
				Fn: func(ctx context.Context, st *statespace.State, b map[string]symbolic.Value) (bool, error) {
					return false, nil
				},
			},
		},
	}

	analysis, err := Run(context.Background(), deps, fc, "f", time.Now().Add(100*time.Millisecond))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(analysis.Messages) != 1 || analysis.Messages[0].Kind != "pre_unsat" {
		t.Fatalf("expected a single pre_unsat message, got %v", analysis.Messages)
	}
}

// A deadline that has already passed lets Run's loop exit before any
// iteration runs, leaving the root Unknown with no messages: finish should
// report that as cannot_confirm rather than silently reporting no findings.
func TestRunReportsCannotConfirmOnExpiredDeadline(t *testing.T) {
	deps := newDeps()
	deps.Body = func(ctx context.Context, st *statespace.State, ctrl *enforcement.Controller, args []symbolic.Value) (symbolic.Value, error) {
		return args[0], nil
	}
	fc := conditions.FnConditions{
		Sig: conditions.Signature{
			Params: []conditions.Param{{Name: "x", Type: proxyfactory.Int()}},
			Ret:    proxyfactory.Int(),
		},
	}

	analysis, err := Run(context.Background(), deps, fc, "f", time.Now().Add(-time.Second))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if analysis.Status != statespace.Unknown {
		t.Fatalf("expected Unknown, got %v", analysis.Status)
	}
	if len(analysis.Messages) != 1 || analysis.Messages[0].Kind != "cannot_confirm" {
		t.Fatalf("expected a single cannot_confirm message, got %v", analysis.Messages)
	}
}
