package callattempt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/crosshair-go/symex/internal/conditions"
	"github.com/crosshair-go/symex/internal/enforcement"
	"github.com/crosshair-go/symex/internal/excfilter"
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

func newHarness() (*statespace.State, *proxyfactory.Factory, *enforcement.Controller, *typerepo.Repo) {
	solver := smt.New(200 * time.Millisecond)
	st := statespace.New(solver, statespace.NewRoot(), time.Second, 256)
	repo := typerepo.New(nil)
	factory := proxyfactory.New(repo, emptyRegistry{}, nil)
	ctrl := enforcement.NewFake(st, repo, factory)
	return st, factory, ctrl, repo
}

// Scenario 1 (spec §8): def f(x: int) -> int: return x + 1, postcondition
// _ > x, should Confirm with no messages.
func TestRunIncrementIsConfirmed(t *testing.T) {
	st, factory, ctrl, _ := newHarness()
	ctx := context.Background()

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

	body := func(ctx context.Context, st *statespace.State, ctrl *enforcement.Controller, args []symbolic.Value) (symbolic.Value, error) {
		one := symbolic.NewInt(heap.Snapshot(0), smt.IntConst(1))
		return symbolic.Add(args[0], one)
	}

	result, err := Run(ctx, st, nil, nil, factory, ctrl, fc, body, "f")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Status != statespace.Confirmed {
		t.Fatalf("expected Confirmed, got %v (messages=%v)", result.Status, result.Messages)
	}
}

// Scenario adapted from spec §8 #2: def f(x: int) -> int: return x * x with
// postcondition _ > x should Refute (x=0 and x=1 both violate strict
// inequality).
func TestRunSquareStrictlyGreaterIsRefuted(t *testing.T) {
	st, factory, ctrl, _ := newHarness()
	ctx := context.Background()

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

	body := func(ctx context.Context, st *statespace.State, ctrl *enforcement.Controller, args []symbolic.Value) (symbolic.Value, error) {
		return symbolic.Mul(args[0], args[0])
	}

	result, err := Run(ctx, st, nil, nil, factory, ctrl, fc, body, "f")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Status != statespace.Refuted {
		t.Fatalf("expected Refuted, got %v", result.Status)
	}
}

// Scenario 5 (spec §8): division declaring raises: ZeroDivisionError
// confirms; the body raises a typed UserException the filter matches
// against the declared raises set.
func TestRunDeclaredRaiseIsConfirmed(t *testing.T) {
	st, factory, ctrl, _ := newHarness()
	ctx := context.Background()

	fc := conditions.FnConditions{
		Sig: conditions.Signature{
			Params: []conditions.Param{
				{Name: "a", Type: proxyfactory.Int()},
				{Name: "b", Type: proxyfactory.Int()},
			},
			Ret: proxyfactory.Float(),
		},
		Raises: []string{"ZeroDivisionError"},
	}

	body := func(ctx context.Context, st *statespace.State, ctrl *enforcement.Controller, args []symbolic.Value) (symbolic.Value, error) {
		zero := symbolic.NewInt(heap.Snapshot(0), smt.IntConst(0))
		isZero, err := symbolic.Equal(args[1], zero)
		if err != nil {
			return nil, err
		}
		hitsZero, err := st.ChoosePossible(ctx, isZero.Expr(), true)
		if err != nil {
			return nil, err
		}
		if hitsZero {
			return nil, &excfilter.UserException{TypeName: "ZeroDivisionError", Cause: errors.New("division by zero")}
		}
		return symbolic.TrueDiv(args[0], args[1])
	}

	result, err := Run(ctx, st, nil, nil, factory, ctrl, fc, body, "div")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Status != statespace.Confirmed {
		t.Fatalf("expected Confirmed, got %v", result.Status)
	}
}

// Scenario 4 (spec §8): mutating an argument not declared in mutable_args
// yields a Refuted POST_ERR from the mutation audit.
func TestRunUnmarkedMutationIsRefuted(t *testing.T) {
	st, factory, ctrl, _ := newHarness()
	ctx := context.Background()

	objType := typerepo.PType{Name: "Counter"}
	fc := conditions.FnConditions{
		Sig: conditions.Signature{
			Params: []conditions.Param{{Name: "c", Type: proxyfactory.ClassOf(objType), Mutable: false}},
			Ret:    proxyfactory.Int(),
		},
	}

	body := func(ctx context.Context, st *statespace.State, ctrl *enforcement.Controller, args []symbolic.Value) (symbolic.Value, error) {
		p := args[0].(*symbolic.Proxy)
		one := symbolic.NewInt(heap.Snapshot(0), smt.IntConst(1))
		p.ForgetField("n", one)
		return one, nil
	}

	result, err := Run(ctx, st, nil, nil, factory, ctrl, fc, body, "bump")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Status != statespace.Refuted {
		t.Fatalf("expected Refuted from mutation audit, got %v", result.Status)
	}
	if len(result.Messages) != 1 || result.Messages[0].Kind != "post_err" {
		t.Fatalf("expected a single post_err message, got %v", result.Messages)
	}
}

// Same scenario as TestRunUnmarkedMutationIsRefuted, but with a real Heap
// passed in: the audit now runs through FindValInHeap/FindKeyInHeap/Mutate
// rather than the plain deepCopy fallback, and must still catch the mutation.
func TestRunUnmarkedMutationIsRefutedThroughHeap(t *testing.T) {
	st, factory, ctrl, _ := newHarness()
	ctx := context.Background()
	hp := heap.New()

	objType := typerepo.PType{Name: "Counter"}
	fc := conditions.FnConditions{
		Sig: conditions.Signature{
			Params: []conditions.Param{{Name: "c", Type: proxyfactory.ClassOf(objType), Mutable: false}},
			Ret:    proxyfactory.Int(),
		},
	}

	body := func(ctx context.Context, st *statespace.State, ctrl *enforcement.Controller, args []symbolic.Value) (symbolic.Value, error) {
		p := args[0].(*symbolic.Proxy)
		one := symbolic.NewInt(heap.Snapshot(0), smt.IntConst(1))
		p.ForgetField("n", one)
		return one, nil
	}

	result, err := Run(ctx, st, hp, nil, factory, ctrl, fc, body, "bump")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Status != statespace.Refuted {
		t.Fatalf("expected Refuted from the heap-backed mutation audit, got %v", result.Status)
	}
}

// The existing-key-overwrite (upsert) case from spec §4.9's DeepEqual rule
// is exercised directly against symbolic.DeepEqual in
// internal/symbolic/deepequal_test.go: Run always synthesizes a fresh,
// store-history-free container argument, so there's no way to hand it a
// dict that already holds the key being overwritten without the dict's
// length itself changing first (which a length-only comparison already
// catches) — the scenario that isolates "same length, changed value" only
// exists once a dict has real Set history, which only the unit-level test
// can set up.
